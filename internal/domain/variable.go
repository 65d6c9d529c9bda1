package domain

import (
	"time"

	"github.com/google/uuid"
)

// Variable — именованное значение, доступное компонентам через контекст.
//
// Типичный пример — API ключи: OPENAI_API_KEY хранится как секрет
// и подставляется в контекст выполнения. Секреты хранятся в БД
// зашифрованными, расшифровка выполняется в репозитории.
type Variable struct {
	// ID — уникальный идентификатор переменной.
	ID uuid.UUID `json:"id"`

	// Name — имя переменной (ключ в контексте выполнения).
	Name string `json:"name"`

	// Value — значение в открытом виде.
	// Для секретов заполняется только после расшифровки.
	Value string `json:"value,omitempty"`

	// Type — тип значения: "string", "number", "boolean", "json".
	Type string `json:"type"`

	// IsSecret — значение хранится зашифрованным и не отдаётся через API.
	IsSecret bool `json:"is_secret"`

	// Description — описание переменной.
	Description string `json:"description,omitempty"`

	// Scope — область видимости.
	Scope VariableScope `json:"scope"`

	// ProjectID — проект для scope=project.
	ProjectID *uuid.UUID `json:"project_id,omitempty"`

	// UserID — владелец переменной.
	UserID uuid.UUID `json:"user_id"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего обновления.
	UpdatedAt time.Time `json:"updated_at"`
}

// Masked возвращает копию переменной без значения секрета.
func (v Variable) Masked() Variable {
	if v.IsSecret {
		v.Value = ""
	}
	return v
}
