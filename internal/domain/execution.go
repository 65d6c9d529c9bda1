package domain

import (
	"time"

	"github.com/google/uuid"
)

// Execution — запись об одном выполнении flow.
//
// Execution создаётся при старте выполнения и изменяется только
// executor'ом, который ведёт этот запуск. После финального статуса
// запись либо отбрасывается (CLI), либо сохраняется в БД (API, worker).
type Execution struct {
	// ID — уникальный идентификатор выполнения.
	ID uuid.UUID `json:"id"`

	// FlowID — flow, который выполняется. uuid.Nil для локальных запусков.
	FlowID uuid.UUID `json:"flow_id"`

	// UserID — пользователь, запустивший выполнение.
	UserID uuid.UUID `json:"user_id"`

	// FlowVersion — версия flow на момент запуска.
	FlowVersion int `json:"flow_version,omitempty"`

	// Status — текущий статус.
	Status ExecutionStatus `json:"status"`

	// Error — текст ошибки, если Status = failed.
	Error string `json:"error,omitempty"`

	// Context — переопределения контекста, переданные при запуске.
	// Секреты сюда не попадают: они подгружаются при выполнении.
	Context map[string]any `json:"context,omitempty"`

	// Results — выходы узлов: nodeID → outputs.
	// При Status = failed результаты частичные и ненадёжные.
	Results map[string]map[string]any `json:"results"`

	// StartedAt — время перехода в running.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время перехода в финальный статус.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// CreatedAt — время создания записи.
	CreatedAt time.Time `json:"created_at"`
}

// NewExecution создаёт execution в статусе pending.
func NewExecution(flowID, userID uuid.UUID) *Execution {
	return &Execution{
		ID:        uuid.New(),
		FlowID:    flowID,
		UserID:    userID,
		Status:    ExecutionStatusPending,
		Results:   make(map[string]map[string]any),
		CreatedAt: time.Now(),
	}
}

// Duration возвращает продолжительность выполнения.
// Возвращает 0, если выполнение ещё не завершено.
func (e *Execution) Duration() time.Duration {
	if e.StartedAt == nil || e.FinishedAt == nil {
		return 0
	}
	return e.FinishedAt.Sub(*e.StartedAt)
}

// IsFinished возвращает true, если выполнение завершено.
func (e *Execution) IsFinished() bool {
	return e.Status.IsTerminal()
}

// MarkRunning переводит execution в статус running.
func (e *Execution) MarkRunning() {
	now := time.Now()
	e.Status = ExecutionStatusRunning
	e.StartedAt = &now
}

// RecordNode сохраняет выходы узла.
func (e *Execution) RecordNode(nodeID string, outputs map[string]any) {
	if e.Results == nil {
		e.Results = make(map[string]map[string]any)
	}
	if outputs == nil {
		outputs = make(map[string]any)
	}
	e.Results[nodeID] = outputs
}

// MarkCompleted переводит execution в статус completed.
func (e *Execution) MarkCompleted() {
	now := time.Now()
	e.Status = ExecutionStatusCompleted
	e.FinishedAt = &now
}

// MarkFailed переводит execution в статус failed с ошибкой.
func (e *Execution) MarkFailed(err string) {
	now := time.Now()
	e.Status = ExecutionStatusFailed
	e.FinishedAt = &now
	e.Error = err
}
