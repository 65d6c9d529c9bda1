package components

import (
	"fmt"
	"sort"
	"sync"
)

// Factory создаёт новый экземпляр компонента.
type Factory func() Component

// Registry — реестр типов компонентов.
//
// Registry — обычное значение: executor получает его при создании,
// глобального реестра нет. Потокобезопасен.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	schemas   map[string]Schema
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		schemas:   make(map[string]Schema),
	}
}

// DefaultRegistry создаёт реестр со всеми встроенными компонентами.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(TypeTextInput, NewTextInput)
	r.Register(TypeChatInput, NewChatInput)
	r.Register(TypeTextOutput, NewTextOutput)
	r.Register(TypePromptTemplate, NewPromptTemplate)
	r.Register(TypeConditional, NewConditional)
	r.Register(TypeLoop, NewLoop)
	r.Register(TypeDelay, NewDelay)
	r.Register(TypeTextSplitter, NewTextSplitter)
	r.Register(TypeTransform, NewTransform)
	r.Register(TypeJSONLoader, NewJSONLoader)
	r.Register(TypeCSVLoader, NewCSVLoader)
	r.Register(TypeOpenAILLM, NewOpenAILLM)
	r.Register(TypeAnthropicLLM, NewAnthropicLLM)
	r.Register(TypeCompletionLLM, NewCompletionLLM)
	r.Register(TypeHTTPRequest, NewHTTPRequest)
	r.Register(TypeWebSearch, NewWebSearch)
	r.Register(TypeChromaDB, NewChromaDB)

	return r
}

// Register регистрирует фабрику под именем типа.
// Если тип уже зарегистрирован, он будет перезаписан.
func (r *Registry) Register(typeName string, factory Factory) {
	schema := factory().Schema()
	if schema.Name == "" {
		schema.Name = typeName
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[typeName] = factory
	r.schemas[typeName] = schema.withPortIDs()
}

// Get возвращает фабрику по имени типа.
// Возвращает ErrUnknownComponent, если тип не зарегистрирован.
func (r *Registry) Get(typeName string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.factories[typeName]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownComponent, typeName)
	}
	return factory, nil
}

// New создаёт экземпляр компонента по имени типа.
func (r *Registry) New(typeName string) (Component, error) {
	factory, err := r.Get(typeName)
	if err != nil {
		return nil, err
	}
	return factory(), nil
}

// Schema возвращает схему типа.
func (r *Registry) Schema(typeName string) (Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schema, exists := r.schemas[typeName]
	if !exists {
		return Schema{}, fmt.Errorf("%w: %s", ErrUnknownComponent, typeName)
	}
	return schema, nil
}

// Has проверяет, зарегистрирован ли тип.
func (r *Registry) Has(typeName string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.factories[typeName]
	return exists
}

// Types возвращает отсортированный список зарегистрированных типов.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Schemas возвращает схемы всех типов, отсортированные по имени.
func (r *Registry) Schemas() []Schema {
	types := r.Types()

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Schema, 0, len(types))
	for _, t := range types {
		out = append(out, r.schemas[t])
	}
	return out
}

// ByCategory группирует схемы по категории.
func (r *Registry) ByCategory() map[string][]Schema {
	out := make(map[string][]Schema)
	for _, s := range r.Schemas() {
		out[s.Category] = append(out[s.Category], s)
	}
	return out
}

// Count возвращает количество зарегистрированных типов.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.factories)
}

// Unregister удаляет тип из реестра.
func (r *Registry) Unregister(typeName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.factories, typeName)
	delete(r.schemas, typeName)
}
