package flow

import (
	"errors"
	"fmt"
)

// Ошибки выполнения flow.
var (
	// ErrTimeout — истёк дедлайн выполнения.
	ErrTimeout = errors.New("flow execution timed out")

	// ErrCancelled — выполнение отменено вызывающей стороной.
	ErrCancelled = errors.New("flow execution cancelled")

	// ErrAlreadyStarted — executor уже запускался.
	// Для повторного выполнения нужен новый executor.
	ErrAlreadyStarted = errors.New("executor already started")

	// ErrStreamAborted — потребитель событий прекратил чтение.
	ErrStreamAborted = errors.New("stream consumer stopped reading events")
)

// NodeError — ошибка выполнения конкретного узла.
//
// Оборачивает ошибку компонента (BuildError, RunError, SchemaError,
// MissingInputsError) или ошибку реестра (ErrUnknownComponent).
type NodeError struct {
	NodeID string
	Type   string
	Err    error
}

// Error реализует интерфейс error.
func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s (%s): %v", e.NodeID, e.Type, e.Err)
}

// Unwrap возвращает исходную ошибку.
func (e *NodeError) Unwrap() error {
	return e.Err
}
