package worker

import "errors"

// Ошибки воркера.
var (
	// ErrExecutionNotFound — execution не найден в БД.
	ErrExecutionNotFound = errors.New("execution not found")

	// ErrExecutionNotPending — execution уже взят другим worker'ом или завершён.
	ErrExecutionNotPending = errors.New("execution is not pending")
)
