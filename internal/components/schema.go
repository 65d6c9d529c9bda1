package components

// DataType — тип данных порта компонента.
//
// Конструктор использует тип, чтобы разрешать только совместимые соединения.
// Engine типы не проверяет: значения передаются как есть.
type DataType string

const (
	DataTypeText          DataType = "Text"
	DataTypeNumber        DataType = "Number"
	DataTypeBoolean       DataType = "Boolean"
	DataTypeData          DataType = "Data"
	DataTypeDataFrame     DataType = "DataFrame"
	DataTypeEmbeddings    DataType = "Embeddings"
	DataTypeLanguageModel DataType = "LanguageModel"
	DataTypeMemory        DataType = "Memory"
	DataTypeMessage       DataType = "Message"
	DataTypeTool          DataType = "Tool"
	DataTypeVectorStore   DataType = "VectorStore"
	DataTypeAny           DataType = "Any"
)

// PortSchema — описание входного или выходного порта.
type PortSchema struct {
	// ID — стабильный идентификатор порта: "<component>.<in|out>.<name>".
	// Заполняется реестром при регистрации.
	ID string `json:"id"`

	// Name — имя порта, на него ссылаются handle рёбер.
	Name string `json:"name"`

	// DisplayName — имя для UI.
	DisplayName string `json:"display_name"`

	// Type — тип данных.
	Type DataType `json:"type"`

	// Description — описание порта.
	Description string `json:"description,omitempty"`

	// Required — вход обязателен.
	// Обязательный вход с Default считается заданным.
	Required bool `json:"required"`

	// Multiple — порт принимает несколько соединений.
	Multiple bool `json:"multiple"`

	// Default — значение по умолчанию.
	Default any `json:"default,omitempty"`

	// Options — допустимые значения (select в UI).
	Options []any `json:"options,omitempty"`

	// Advanced — порт скрыт в базовом режиме UI.
	Advanced bool `json:"advanced"`
}

// Schema — метаданные типа компонента.
//
// Объявляется один раз на тип и не меняется.
type Schema struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Icon        string `json:"icon"`
	Version     string `json:"version"`

	// Inputs — входные порты в порядке отображения.
	Inputs []PortSchema `json:"inputs"`

	// Outputs — выходные порты в порядке отображения.
	Outputs []PortSchema `json:"outputs"`

	// DynamicOutputs — компонент может возвращать ключи,
	// не объявленные в Outputs (например, transform).
	DynamicOutputs bool `json:"dynamic_outputs,omitempty"`
}

// Input возвращает описание входного порта.
func (s Schema) Input(name string) (PortSchema, bool) {
	for _, p := range s.Inputs {
		if p.Name == name {
			return p, true
		}
	}
	return PortSchema{}, false
}

// HasInput проверяет, объявлен ли входной порт.
func (s Schema) HasInput(name string) bool {
	_, ok := s.Input(name)
	return ok
}

// HasOutput проверяет, объявлен ли выходной порт.
func (s Schema) HasOutput(name string) bool {
	for _, p := range s.Outputs {
		if p.Name == name {
			return true
		}
	}
	return false
}

// withPortIDs возвращает копию схемы с заполненными ID портов.
func (s Schema) withPortIDs() Schema {
	out := s
	out.Inputs = make([]PortSchema, len(s.Inputs))
	for i, p := range s.Inputs {
		if p.ID == "" {
			p.ID = s.Name + ".in." + p.Name
		}
		out.Inputs[i] = p
	}
	out.Outputs = make([]PortSchema, len(s.Outputs))
	for i, p := range s.Outputs {
		if p.ID == "" {
			p.ID = s.Name + ".out." + p.Name
		}
		out.Outputs[i] = p
	}
	if out.Version == "" {
		out.Version = "1.0.0"
	}
	return out
}
