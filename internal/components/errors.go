package components

import (
	"errors"
	"fmt"
	"strings"
)

// Ошибки компонентов.
var (
	// ErrUnknownComponent — тип компонента не зарегистрирован.
	ErrUnknownComponent = errors.New("unknown component type")

	// ErrUnknownInput — вход не объявлен в схеме компонента.
	ErrUnknownInput = errors.New("input not declared in component schema")

	// ErrMissingInput — не задан обязательный вход.
	ErrMissingInput = errors.New("required input is missing")

	// ErrUndeclaredOutput — компонент вернул выход, не объявленный в схеме.
	ErrUndeclaredOutput = errors.New("output not declared in component schema")

	// ErrStreamingUnsupported — компонент не поддерживает streaming.
	ErrStreamingUnsupported = errors.New("component does not support streaming")

	// ErrInvalidInput — значение входа не подходит компоненту.
	ErrInvalidInput = errors.New("invalid input value")

	// ErrMissingCredentials — не найден API ключ.
	ErrMissingCredentials = errors.New("api key is required")
)

// SchemaError — вход не соответствует схеме компонента.
type SchemaError struct {
	Component string
	Input     string
}

// Error реализует интерфейс error.
func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: input %q not found in component schema", e.Component, e.Input)
}

// Unwrap возвращает ErrUnknownInput.
func (e *SchemaError) Unwrap() error {
	return ErrUnknownInput
}

// MissingInputsError — не заданы обязательные входы.
// Перечисляет все отсутствующие порты, а не только первый.
type MissingInputsError struct {
	Component string
	Inputs    []string
}

// Error реализует интерфейс error.
func (e *MissingInputsError) Error() string {
	return fmt.Sprintf("%s: required inputs missing: %s", e.Component, strings.Join(e.Inputs, ", "))
}

// Unwrap возвращает ErrMissingInput.
func (e *MissingInputsError) Unwrap() error {
	return ErrMissingInput
}

// BuildError — ошибка на этапе Build.
type BuildError struct {
	Component string
	Err       error
}

// Error реализует интерфейс error. Сохраняет исходное сообщение.
func (e *BuildError) Error() string {
	return fmt.Sprintf("%s: build: %v", e.Component, e.Err)
}

// Unwrap возвращает исходную ошибку.
func (e *BuildError) Unwrap() error {
	return e.Err
}

// RunError — ошибка на этапе Run или Stream.
type RunError struct {
	Component string
	Err       error
}

// Error реализует интерфейс error. Сохраняет исходное сообщение.
func (e *RunError) Error() string {
	return fmt.Sprintf("%s: run: %v", e.Component, e.Err)
}

// Unwrap возвращает исходную ошибку.
func (e *RunError) Unwrap() error {
	return e.Err
}
