package components

import (
	"context"
	"fmt"
	"time"

	"github.com/shaiso/Langweave/internal/engine"
)

// Типы логических компонентов.
const (
	TypeConditional = "conditional"
	TypeLoop        = "loop"
	TypeDelay       = "delay"
)

// Операции loop.
const (
	loopPassthrough = "passthrough"
	loopEnumerate   = "enumerate"
	loopStringify   = "stringify"
)

// Conditional — выбор значения по условию.
//
// Условие вычисляется по "истинности": пустая строка, 0, false,
// пустые коллекции и nil ложны. Любая непустая строка истинна,
// включая "false" и "0".
//
// Если задан expression, ветку выбирает Go template выражение,
// где .Data — значение condition: `eq .Data "yes"`, `gt (len .Data) 3`.
type Conditional struct {
	Base
}

// NewConditional создаёт компонент conditional.
func NewConditional() Component {
	return &Conditional{Base: NewBase(Schema{
		Name:        TypeConditional,
		DisplayName: "Conditional",
		Description: "Branch flow based on conditions",
		Category:    "Logic",
		Icon:        "GitBranch",
		Inputs: []PortSchema{
			{Name: "condition", DisplayName: "Condition", Type: DataTypeBoolean, Description: "Condition to evaluate", Required: true},
			{Name: "if_true", DisplayName: "If True", Type: DataTypeAny, Description: "Value to return if condition is true", Required: true},
			{Name: "if_false", DisplayName: "If False", Type: DataTypeAny, Description: "Value to return if condition is false", Required: true},
			{Name: "expression", DisplayName: "Expression", Type: DataTypeText, Description: "Template expression evaluated against the condition", Advanced: true},
		},
		Outputs: []PortSchema{
			{Name: "result", DisplayName: "Result", Type: DataTypeAny, Description: "Selected value based on condition"},
			{Name: "branch_taken", DisplayName: "Branch Taken", Type: DataTypeText, Description: "Which branch was taken"},
		},
	})}
}

// Run выбирает ветку.
func (c *Conditional) Run(context.Context) (map[string]any, error) {
	ok, err := c.evaluate()
	if err != nil {
		return nil, err
	}
	if ok {
		v, _ := c.Input("if_true")
		return map[string]any{"result": v, "branch_taken": "true"}, nil
	}
	v, _ := c.Input("if_false")
	return map[string]any{"result": v, "branch_taken": "false"}, nil
}

func (c *Conditional) evaluate() (bool, error) {
	expr := c.InputString("expression")
	if expr == "" {
		if s, ok := c.Input("condition"); ok {
			if str, isString := s.(string); isString {
				return str != "", nil
			}
		}
		return c.InputBool("condition", false), nil
	}

	condition, _ := c.Input("condition")
	ok, err := engine.RenderCondition(expr, engine.NewTemplateData(condition, c.Inputs(), c.Env().Snapshot()))
	if err != nil {
		return false, fmt.Errorf("expression: %w", err)
	}
	return ok, nil
}

// Loop — поэлементная обработка списка.
//
// Операции:
//   - passthrough — элементы как есть
//   - enumerate — {"index": i, "value": item}
//   - stringify — строковое представление элемента
//
// Неизвестная операция работает как passthrough.
type Loop struct {
	Base
}

// NewLoop создаёт компонент loop.
func NewLoop() Component {
	return &Loop{Base: NewBase(Schema{
		Name:        TypeLoop,
		DisplayName: "Loop",
		Description: "Iterate over a list of items",
		Category:    "Logic",
		Icon:        "Repeat",
		Inputs: []PortSchema{
			{Name: "items", DisplayName: "Items", Type: DataTypeData, Description: "List of items to iterate over", Required: true},
			{
				Name: "operation", DisplayName: "Operation", Type: DataTypeText,
				Description: "Operation to perform on each item",
				Default:     loopPassthrough,
				Options:     []any{loopPassthrough, loopEnumerate, loopStringify},
			},
		},
		Outputs: []PortSchema{
			{Name: "results", DisplayName: "Results", Type: DataTypeData, Description: "Results from processing each item"},
			{Name: "count", DisplayName: "Count", Type: DataTypeNumber, Description: "Number of items processed"},
		},
	})}
}

// Run обрабатывает элементы.
func (c *Loop) Run(ctx context.Context) (map[string]any, error) {
	items := c.InputList("items")
	operation := c.InputString("operation")

	results := make([]any, 0, len(items))
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		switch operation {
		case loopEnumerate:
			results = append(results, map[string]any{"index": i, "value": item})
		case loopStringify:
			results = append(results, toString(item))
		default:
			results = append(results, item)
		}
	}

	return map[string]any{
		"results": results,
		"count":   len(results),
	}, nil
}

// Delay — пауза в выполнении flow.
//
// Учитывает отмену context: при отмене возвращает ошибку контекста.
type Delay struct {
	Base
	duration time.Duration
}

// NewDelay создаёт компонент delay.
func NewDelay() Component {
	return &Delay{Base: NewBase(Schema{
		Name:        TypeDelay,
		DisplayName: "Delay",
		Description: "Pause the flow for a given time",
		Category:    "Logic",
		Icon:        "Timer",
		Inputs: []PortSchema{
			{Name: "duration_ms", DisplayName: "Duration (ms)", Type: DataTypeNumber, Description: "Delay in milliseconds", Required: true},
			{Name: "value", DisplayName: "Value", Type: DataTypeAny, Description: "Value passed through after the delay"},
		},
		Outputs: []PortSchema{
			{Name: "duration_ms", DisplayName: "Duration (ms)", Type: DataTypeNumber},
			{Name: "value", DisplayName: "Value", Type: DataTypeAny},
		},
	})}
}

// Build разбирает длительность.
func (c *Delay) Build(context.Context) error {
	v, _ := c.Input("duration_ms")
	ms, ok := toInt(v)
	if !ok || ms < 0 {
		return fmt.Errorf("%w: duration_ms must be a non-negative number, got %v", ErrInvalidInput, v)
	}
	c.duration = time.Duration(ms) * time.Millisecond
	return nil
}

// Run выполняет задержку.
func (c *Delay) Run(ctx context.Context) (map[string]any, error) {
	timer := time.NewTimer(c.duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		value, _ := c.Input("value")
		return map[string]any{
			"duration_ms": c.duration.Milliseconds(),
			"value":       value,
		}, nil
	}
}
