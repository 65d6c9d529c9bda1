package components

import (
	"fmt"
	"maps"
	"slices"
)

// Env — контекст выполнения, доступный компонентам только на чтение.
//
// Содержит метаданные запуска (user_id, flow_id), переменные пользователя
// и переопределения вызывающей стороны. Один Env разделяется всеми
// компонентами одного выполнения, поэтому мутаторов у него нет.
// Вложенные map и slice копируются на входе и на выходе: изменения
// полученного значения не видны другим узлам.
type Env struct {
	values map[string]any
}

// NewEnv создаёт Env из глубокой копии values.
func NewEnv(values map[string]any) *Env {
	return &Env{values: cloneMap(values)}
}

// Get возвращает значение по ключу.
func (e *Env) Get(key string) (any, bool) {
	if e == nil {
		return nil, false
	}
	v, ok := e.values[key]
	return cloneValue(v), ok
}

// String возвращает значение как строку.
// Отсутствующий ключ даёт пустую строку.
func (e *Env) String(key string) string {
	v, ok := e.Get(key)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Keys возвращает отсортированный список ключей.
func (e *Env) Keys() []string {
	if e == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(e.values))
}

// Len возвращает количество значений.
func (e *Env) Len() int {
	if e == nil {
		return 0
	}
	return len(e.values)
}

// Snapshot возвращает копию значений.
// Изменения копии не влияют на Env.
func (e *Env) Snapshot() map[string]any {
	if e == nil {
		return make(map[string]any)
	}
	out := cloneMap(e.values)
	if out == nil {
		out = make(map[string]any)
	}
	return out
}

// --- Helpers ---

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

// cloneValue копирует составные значения JSON формы.
// Скаляры неизменяемы и возвращаются как есть.
func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return cloneMap(x)
	case []any:
		if x == nil {
			return x
		}
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = cloneValue(item)
		}
		return out
	case map[string]string:
		return maps.Clone(x)
	case []string:
		return slices.Clone(x)
	default:
		return v
	}
}
