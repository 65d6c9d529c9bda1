package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Flow — сохранённый flow пользователя.
//
// Flow хранит определение графа (Data) в том виде, в котором его
// присылает конструктор. Каждое обновление Data увеличивает Version.
// Выполнение (Execution) всегда строит граф заново из Data.
type Flow struct {
	// ID — уникальный идентификатор flow.
	ID uuid.UUID `json:"id"`

	// Name — имя flow.
	Name string `json:"name"`

	// Description — описание назначения flow.
	Description string `json:"description,omitempty"`

	// Data — определение графа: узлы и рёбра.
	Data FlowDefinition `json:"data"`

	// UserID — владелец flow.
	UserID uuid.UUID `json:"user_id"`

	// ProjectID — проект, к которому относится flow (опционально).
	ProjectID *uuid.UUID `json:"project_id,omitempty"`

	// Version — номер версии, увеличивается при каждом обновлении.
	Version int `json:"version"`

	// CreatedAt — время создания flow.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего обновления.
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// FlowDefinition — формат обмена графом flow.
//
//	{
//	    "nodes": [{"id": "a", "type": "text_input", "data": {...}, "position": {"x": 0, "y": 0}}],
//	    "edges": [{"id": "e1", "source": "a", "target": "b", "sourceHandle": "text", "targetHandle": "prompt"}]
//	}
type FlowDefinition struct {
	// Nodes — узлы в порядке их добавления в конструкторе.
	Nodes []NodeDef `json:"nodes"`

	// Edges — рёбра в порядке их добавления.
	Edges []EdgeDef `json:"edges"`
}

// NodeDef — узел flow.
type NodeDef struct {
	// ID — уникальный идентификатор узла в рамках flow.
	ID string `json:"id"`

	// Type — тип компонента (ключ в реестре компонентов).
	Type string `json:"type"`

	// Data — payload узла; может содержать статические inputs.
	Data NodeData `json:"data"`

	// Position — координаты на холсте. На выполнение не влияют.
	Position Position `json:"position"`
}

// EdgeDef — ребро flow: выход одного узла → вход другого.
type EdgeDef struct {
	// ID — уникальный идентификатор ребра.
	ID string `json:"id"`

	// Source — ID узла-источника.
	Source string `json:"source"`

	// Target — ID узла-приёмника.
	Target string `json:"target"`

	// SourceHandle — имя выходного порта источника.
	SourceHandle string `json:"sourceHandle,omitempty"`

	// TargetHandle — имя входного порта приёмника.
	TargetHandle string `json:"targetHandle,omitempty"`
}

// Position — координаты узла на холсте.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeData — payload узла.
//
// Inputs — статические значения входов, заданные в конструкторе.
// Все остальные ключи payload сохраняются в Extra как есть,
// чтобы сериализация была без потерь.
type NodeData struct {
	// Inputs — статические значения входных портов.
	Inputs map[string]any

	// Extra — прочие ключи payload (label, описание, настройки UI).
	Extra map[string]any
}

// dataInputsKey — ключ статических inputs в payload узла.
const dataInputsKey = "inputs"

// MarshalJSON сериализует NodeData в плоский объект.
func (d NodeData) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(d.Extra)+1)
	for k, v := range d.Extra {
		m[k] = v
	}
	if d.Inputs != nil {
		m[dataInputsKey] = d.Inputs
	}
	return json.Marshal(m)
}

// UnmarshalJSON разбирает плоский объект payload.
func (d *NodeData) UnmarshalJSON(b []byte) error {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return fmt.Errorf("node data: %w", err)
	}

	*d = NodeData{}

	if raw, ok := m[dataInputsKey]; ok {
		if raw != nil {
			inputs, ok := raw.(map[string]any)
			if !ok {
				return fmt.Errorf("node data: %q must be an object, got %T", dataInputsKey, raw)
			}
			d.Inputs = inputs
		}
		delete(m, dataInputsKey)
	}

	if len(m) > 0 {
		d.Extra = m
	}
	return nil
}

// NodeByID возвращает узел по ID.
func (f *FlowDefinition) NodeByID(id string) (*NodeDef, bool) {
	for i := range f.Nodes {
		if f.Nodes[i].ID == id {
			return &f.Nodes[i], true
		}
	}
	return nil, false
}
