package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Langweave/internal/components"
	"github.com/shaiso/Langweave/internal/domain"
	"github.com/shaiso/Langweave/internal/flow"
	"github.com/shaiso/Langweave/internal/mq"
	"github.com/shaiso/Langweave/internal/repo"
)

// FlowStore — хранилище flows (repo.FlowRepo).
type FlowStore interface {
	Create(ctx context.Context, f *domain.Flow) error
	GetForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Flow, error)
	List(ctx context.Context, filter repo.FlowFilter) ([]domain.Flow, error)
	Update(ctx context.Context, f *domain.Flow) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ExecutionStore — хранилище executions (repo.ExecutionRepo).
type ExecutionStore interface {
	Create(ctx context.Context, exec *domain.Execution) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Execution, error)
	ListByFlow(ctx context.Context, flowID uuid.UUID, page repo.Page) ([]domain.Execution, error)
	Update(ctx context.Context, exec *domain.Execution) error
}

// VariableStore — хранилище variables (repo.VariableRepo).
type VariableStore interface {
	flow.VariableStore
	Create(ctx context.Context, v *domain.Variable) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Variable, error)
	List(ctx context.Context, userID uuid.UUID) ([]domain.Variable, error)
	Update(ctx context.Context, v *domain.Variable) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ScheduleStore — хранилище schedules (repo.ScheduleRepo).
type ScheduleStore interface {
	Create(ctx context.Context, s *domain.Schedule) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Schedule, error)
	List(ctx context.Context, filter repo.ScheduleFilter) ([]domain.Schedule, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) error
}

// Publisher ставит executions в очередь (mq.Publisher).
type Publisher interface {
	PublishExecutionPending(ctx context.Context, executionID uuid.UUID) error
}

// EventSubscriber подписывается на события выполнения (mq.Connection).
type EventSubscriber interface {
	SubscribeEvents(ctx context.Context, executionID uuid.UUID, fn func(mq.ExecutionEventPayload) bool) error
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	flows      FlowStore
	executions ExecutionStore
	variables  VariableStore
	schedules  ScheduleStore
	publisher  Publisher
	events     EventSubscriber
	registry   *components.Registry
	timeout    time.Duration
	logger     *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Flows      FlowStore
	Executions ExecutionStore
	Variables  VariableStore
	Schedules  ScheduleStore

	// Publisher — опционально: без него async executions подхватит polling worker'а.
	Publisher Publisher

	// Events — опционально: без него /executions/{id}/events отвечает 503.
	Events EventSubscriber

	// Registry — реестр компонентов (если nil — DefaultRegistry()).
	Registry *components.Registry

	// Timeout — ограничение на синхронное выполнение и websocket stream.
	Timeout time.Duration

	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	registry := cfg.Registry
	if registry == nil {
		registry = components.DefaultRegistry()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		flows:      cfg.Flows,
		executions: cfg.Executions,
		variables:  cfg.Variables,
		schedules:  cfg.Schedules,
		publisher:  cfg.Publisher,
		events:     cfg.Events,
		registry:   registry,
		timeout:    cfg.Timeout,
		logger:     logger,
	}
}
