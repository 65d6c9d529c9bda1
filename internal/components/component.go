package components

import (
	"context"
	"fmt"
	"maps"
	"slices"
)

// Component — контракт типа узла.
//
// Жизненный цикл строго упорядочен:
//
//	SetInput (для каждого входа) → SetContext → ValidateInputs → Build → Run
//
// Streaming компонент (SupportsStreaming() == true) вместо Run
// вызывает Stream: отдаёт чанки через emit и возвращает итоговые выходы.
//
// Экземпляр компонента создаётся фабрикой реестра на один узел
// одного выполнения и повторно не используется.
type Component interface {
	// Schema возвращает схему типа компонента.
	Schema() Schema

	// SetInput задаёт значение входа.
	// Возвращает SchemaError, если вход не объявлен в схеме.
	SetInput(name string, value any) error

	// SetContext передаёт контекст выполнения.
	SetContext(env *Env)

	// ValidateInputs проверяет, что заданы все обязательные входы.
	ValidateInputs() error

	// Build выполняет подготовку: создание клиентов, разбор настроек.
	Build(ctx context.Context) error

	// Run выполняет логику компонента и возвращает выходы.
	Run(ctx context.Context) (map[string]any, error)

	// SupportsStreaming сообщает, реализует ли компонент Stream.
	SupportsStreaming() bool

	// Stream выполняет компонент инкрементально.
	// Каждый чанк передаётся в emit; ошибка emit прерывает выполнение.
	Stream(ctx context.Context, emit func(chunk string) error) (map[string]any, error)
}

// Base — общая часть компонентов.
//
// Хранит входы и контекст, проверяет входы по схеме и даёт
// типизированный доступ к ним с учётом значений по умолчанию.
// Компонент встраивает Base и реализует Run (и Stream, если нужно).
type Base struct {
	schema Schema
	inputs map[string]any
	env    *Env
}

// NewBase создаёт Base для схемы.
func NewBase(schema Schema) Base {
	return Base{
		schema: schema,
		inputs: make(map[string]any),
	}
}

// Schema возвращает схему компонента.
func (b *Base) Schema() Schema {
	return b.schema
}

// SetInput задаёт значение входа.
func (b *Base) SetInput(name string, value any) error {
	if !b.schema.HasInput(name) {
		return &SchemaError{Component: b.schema.Name, Input: name}
	}
	if b.inputs == nil {
		b.inputs = make(map[string]any)
	}
	b.inputs[name] = value
	return nil
}

// SetContext сохраняет контекст выполнения.
func (b *Base) SetContext(env *Env) {
	b.env = env
}

// Env возвращает контекст выполнения. Никогда не nil.
func (b *Base) Env() *Env {
	if b.env == nil {
		return NewEnv(nil)
	}
	return b.env
}

// ValidateInputs проверяет обязательные входы.
func (b *Base) ValidateInputs() error {
	var missing []string
	for _, p := range b.schema.Inputs {
		if !p.Required {
			continue
		}
		if _, ok := b.inputs[p.Name]; ok {
			continue
		}
		if p.Default != nil {
			continue
		}
		missing = append(missing, p.Name)
	}
	if len(missing) > 0 {
		return &MissingInputsError{Component: b.schema.Name, Inputs: missing}
	}
	return nil
}

// Build по умолчанию ничего не делает.
func (b *Base) Build(context.Context) error {
	return nil
}

// SupportsStreaming по умолчанию false.
func (b *Base) SupportsStreaming() bool {
	return false
}

// Stream по умолчанию не поддерживается.
func (b *Base) Stream(context.Context, func(string) error) (map[string]any, error) {
	return nil, fmt.Errorf("%s: %w", b.schema.Name, ErrStreamingUnsupported)
}

// --- Typed inputs ---

// Input возвращает значение входа или значение по умолчанию из схемы.
func (b *Base) Input(name string) (any, bool) {
	if v, ok := b.inputs[name]; ok {
		return v, true
	}
	if p, ok := b.schema.Input(name); ok && p.Default != nil {
		return p.Default, true
	}
	return nil, false
}

// HasInput проверяет, был ли вход задан явно.
func (b *Base) HasInput(name string) bool {
	_, ok := b.inputs[name]
	return ok
}

// Inputs возвращает копию всех входов с подставленными значениями по умолчанию.
func (b *Base) Inputs() map[string]any {
	out := make(map[string]any, len(b.schema.Inputs))
	for _, p := range b.schema.Inputs {
		if p.Default != nil {
			out[p.Name] = p.Default
		}
	}
	maps.Copy(out, b.inputs)
	return out
}

// InputString извлекает строковое значение входа.
func (b *Base) InputString(name string) string {
	v, _ := b.Input(name)
	return toString(v)
}

// InputInt извлекает целое значение входа.
func (b *Base) InputInt(name string) int {
	v, _ := b.Input(name)
	n, _ := toInt(v)
	return n
}

// InputFloat извлекает вещественное значение входа.
func (b *Base) InputFloat(name string) float64 {
	v, _ := b.Input(name)
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

// InputBool извлекает булево значение входа.
func (b *Base) InputBool(name string, defaultVal bool) bool {
	v, ok := b.Input(name)
	if !ok {
		return defaultVal
	}
	return truthy(v)
}

// InputMap извлекает map из входа.
func (b *Base) InputMap(name string) map[string]any {
	v, _ := b.Input(name)
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return nil
}

// InputStringMap извлекает map[string]string из входа.
func (b *Base) InputStringMap(name string) map[string]string {
	v, _ := b.Input(name)
	switch m := v.(type) {
	case map[string]string:
		return m
	case map[string]any:
		result := make(map[string]string, len(m))
		for k, val := range m {
			if s, ok := val.(string); ok {
				result[k] = s
			}
		}
		return result
	}
	return nil
}

// InputList извлекает список из входа.
// Одиночное значение оборачивается в список из одного элемента.
func (b *Base) InputList(name string) []any {
	v, ok := b.Input(name)
	if !ok || v == nil {
		return nil
	}
	switch l := v.(type) {
	case []any:
		return l
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out
	case []map[string]any:
		out := make([]any, len(l))
		for i, m := range l {
			out[i] = m
		}
		return out
	default:
		return []any{v}
	}
}

// --- Lifecycle ---

// Execute проводит компонент через полный жизненный цикл:
// SetInput* → SetContext → ValidateInputs → Build → Run.
//
// Входы задаются в отсортированном порядке имён, чтобы ошибка
// о необъявленном входе была воспроизводимой.
// Ошибки Build и Run оборачиваются в BuildError и RunError.
func Execute(ctx context.Context, c Component, inputs map[string]any, env *Env) (map[string]any, error) {
	if err := prepare(ctx, c, inputs, env); err != nil {
		return nil, err
	}

	outputs, err := c.Run(ctx)
	if err != nil {
		return nil, &RunError{Component: c.Schema().Name, Err: err}
	}
	return checkOutputs(c.Schema(), outputs)
}

// ExecuteStream как Execute, но вместо Run вызывает Stream.
// Для компонента без поддержки streaming возвращает ErrStreamingUnsupported.
func ExecuteStream(ctx context.Context, c Component, inputs map[string]any, env *Env, emit func(string) error) (map[string]any, error) {
	if !c.SupportsStreaming() {
		return nil, fmt.Errorf("%s: %w", c.Schema().Name, ErrStreamingUnsupported)
	}
	if err := prepare(ctx, c, inputs, env); err != nil {
		return nil, err
	}

	outputs, err := c.Stream(ctx, emit)
	if err != nil {
		return nil, &RunError{Component: c.Schema().Name, Err: err}
	}
	return checkOutputs(c.Schema(), outputs)
}

// prepare выполняет общую часть жизненного цикла до Run/Stream.
func prepare(ctx context.Context, c Component, inputs map[string]any, env *Env) error {
	for _, name := range slices.Sorted(maps.Keys(inputs)) {
		if err := c.SetInput(name, inputs[name]); err != nil {
			return err
		}
	}

	c.SetContext(env)

	if err := c.ValidateInputs(); err != nil {
		return err
	}

	if err := c.Build(ctx); err != nil {
		return &BuildError{Component: c.Schema().Name, Err: err}
	}
	return nil
}

// checkOutputs проверяет, что все выходы объявлены в схеме.
func checkOutputs(schema Schema, outputs map[string]any) (map[string]any, error) {
	if outputs == nil {
		outputs = make(map[string]any)
	}
	if schema.DynamicOutputs {
		return outputs, nil
	}
	for _, key := range slices.Sorted(maps.Keys(outputs)) {
		if !schema.HasOutput(key) {
			return nil, &RunError{
				Component: schema.Name,
				Err:       fmt.Errorf("%w: %q", ErrUndeclaredOutput, key),
			}
		}
	}
	return outputs, nil
}

// --- Helpers ---

func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprint(v)
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case float32:
		return int(n), true
	}
	return 0, false
}

// truthy вычисляет истинность значения так же, как её видит пользователь
// конструктора: пустые строки, нули и пустые коллекции ложны.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != "" && x != "false" && x != "0"
	case float64:
		return x != 0
	case int:
		return x != 0
	case int64:
		return x != 0
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	default:
		return true
	}
}
