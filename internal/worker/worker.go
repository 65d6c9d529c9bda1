package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/shaiso/Langweave/internal/components"
	"github.com/shaiso/Langweave/internal/domain"
	"github.com/shaiso/Langweave/internal/flow"
	"github.com/shaiso/Langweave/internal/mq"
)

// Default configuration values.
const (
	defaultPollInterval = 10 * time.Second
	defaultBatchSize    = 20
	defaultConcurrency  = 4
)

// FlowStore — чтение flows (repo.FlowRepo).
type FlowStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Flow, error)
}

// ExecutionStore — хранилище executions (repo.ExecutionRepo).
type ExecutionStore interface {
	ListPending(ctx context.Context, limit int) ([]domain.Execution, error)
	Claim(ctx context.Context, id uuid.UUID) (*domain.Execution, error)
	Update(ctx context.Context, exec *domain.Execution) error
}

// EventPublisher транслирует события выполнения (mq.Publisher).
type EventPublisher interface {
	PublishEvent(ctx context.Context, payload mq.ExecutionEventPayload) error
}

// Worker выполняет flows асинхронно.
//
// Worker:
//   - Получает execution.pending из очереди executions.pending
//   - Периодически забирает pending executions из БД (polling fallback)
//   - Атомарно переводит execution в running (Claim), чтобы несколько
//     экземпляров не выполнили его дважды
//   - Выполняет flow в streaming режиме и публикует каждое событие
//     в langweave.events
//   - Сохраняет финальный статус и результаты
type Worker struct {
	flows      FlowStore
	executions ExecutionStore
	variables  flow.VariableStore
	publisher  EventPublisher
	conn       *mq.Connection
	registry   *components.Registry

	timeout      time.Duration
	pollInterval time.Duration
	batchSize    int
	concurrency  int

	logger     *slog.Logger
	cancelFunc context.CancelFunc
	group      *errgroup.Group
	stopOnce   sync.Once
}

// Config — конфигурация Worker.
type Config struct {
	Flows      FlowStore
	Executions ExecutionStore
	Variables  flow.VariableStore

	// Publisher — опционально; без него события не транслируются.
	Publisher EventPublisher

	// Conn — опционально; без него worker работает только через polling.
	Conn *mq.Connection

	// Registry — реестр компонентов (если nil — DefaultRegistry()).
	Registry *components.Registry

	// Timeout — ограничение на одно выполнение (0 — без ограничения).
	Timeout time.Duration

	PollInterval time.Duration // интервал polling (default: 10s)
	BatchSize    int           // executions за один poll (default: 20)
	Concurrency  int           // параллельных выполнений в poll (default: 4)

	Logger *slog.Logger
}

// New создаёт новый Worker.
func New(cfg Config) *Worker {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	registry := cfg.Registry
	if registry == nil {
		registry = components.DefaultRegistry()
	}

	return &Worker{
		flows:        cfg.Flows,
		executions:   cfg.Executions,
		variables:    cfg.Variables,
		publisher:    cfg.Publisher,
		conn:         cfg.Conn,
		registry:     registry,
		timeout:      cfg.Timeout,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		concurrency:  concurrency,
		logger:       logger,
	}
}

// Start запускает consumer и polling в фоне.
func (w *Worker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.logger.Info("starting worker",
		"poll_interval", w.pollInterval,
		"batch_size", w.batchSize,
		"concurrency", w.concurrency,
		"timeout", w.timeout,
	)

	g, ctx := errgroup.WithContext(ctx)
	w.group = g

	if w.conn != nil {
		consumer := mq.NewConsumer(w.conn, w.logger, mq.ConsumerConfig{
			Queue:    mq.QueueExecutionsPending,
			Handler:  w.handleExecutionPending,
			Prefetch: w.concurrency,
		})
		g.Go(func() error {
			err := consumer.Start(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		w.pollLoop(ctx)
		return nil
	})

	w.logger.Info("worker started")
	return nil
}

// Stop останавливает Worker и ждёт завершения текущих выполнений.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		w.logger.Info("stopping worker...")

		if w.cancelFunc != nil {
			w.cancelFunc()
		}
		if w.group != nil {
			if err := w.group.Wait(); err != nil {
				w.logger.Error("worker stopped with error", "error", err)
			}
		}

		w.logger.Info("worker stopped")
	})
}

func (w *Worker) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	// Первый poll сразу: подхватываем executions, созданные пока worker был выключен
	w.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

// poll забирает пачку pending executions и выполняет их параллельно.
func (w *Worker) poll(ctx context.Context) {
	pending, err := w.executions.ListPending(ctx, w.batchSize)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error("failed to list pending executions", "error", err)
		}
		return
	}
	if len(pending) == 0 {
		return
	}

	w.logger.Debug("poll found pending executions", "count", len(pending))

	var g errgroup.Group
	g.SetLimit(w.concurrency)
	for _, exec := range pending {
		g.Go(func() error {
			err := w.processExecution(ctx, exec.ID)
			if err != nil && !errors.Is(err, ErrExecutionNotPending) {
				w.logger.Error("failed to process execution from poll",
					"execution_id", exec.ID,
					"error", err,
				)
			}
			return nil
		})
	}
	g.Wait()
}
