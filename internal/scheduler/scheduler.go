package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Langweave/internal/domain"
	"github.com/shaiso/Langweave/internal/repo"
)

// Default configuration values.
const (
	defaultBatchSize = 100
	DefaultInterval  = time.Second
)

// ScheduleStore — хранилище расписаний (repo.ScheduleRepo).
type ScheduleStore interface {
	ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Schedule, error)
	Update(ctx context.Context, schedule *domain.Schedule) error
}

// FlowStore — чтение flows (repo.FlowRepo).
type FlowStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Flow, error)
}

// ExecutionStore — создание executions (repo.ExecutionRepo).
type ExecutionStore interface {
	Create(ctx context.Context, exec *domain.Execution) error
}

// Publisher уведомляет worker'ов о новом execution (mq.Publisher).
type Publisher interface {
	PublishExecutionPending(ctx context.Context, executionID uuid.UUID) error
}

// Locker — распределённая блокировка лидера (repo.AdvisoryLock).
type Locker interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
}

// Scheduler создаёт executions по расписаниям, у которых подошло время.
type Scheduler struct {
	schedules  ScheduleStore
	flows      FlowStore
	executions ExecutionStore
	publisher  Publisher
	logger     *slog.Logger
	batchSize  int
	now        func() time.Time
}

// Config — конфигурация Scheduler.
type Config struct {
	Schedules  ScheduleStore
	Flows      FlowStore
	Executions ExecutionStore
	Publisher  Publisher // опционально: без него worker найдёт execution через polling
	Logger     *slog.Logger
	BatchSize  int // количество schedules за один тик (default: 100)
}

// New создаёт новый Scheduler.
func New(cfg Config) *Scheduler {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		schedules:  cfg.Schedules,
		flows:      cfg.Flows,
		executions: cfg.Executions,
		publisher:  cfg.Publisher,
		logger:     logger,
		batchSize:  batchSize,
		now:        time.Now,
	}
}

// Run вызывает Tick каждые interval, пока ctx не отменён.
// Тик выполняется, только если удалось взять блокировку лидера;
// nil locker означает единственный экземпляр.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration, locker Locker) error {
	if interval <= 0 {
		interval = DefaultInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var leader bool
	defer func() {
		if leader && locker != nil {
			if err := locker.Unlock(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("failed to release leader lock", "error", err)
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		if locker != nil && !leader {
			ok, err := locker.TryLock(ctx)
			if err != nil {
				s.logger.Warn("leader lock failed", "error", err)
				continue
			}
			if !ok {
				continue
			}
			leader = true
			s.logger.Info("acquired scheduler leadership")
		}

		if err := s.Tick(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("scheduler tick failed", "error", err)
		}
	}
}

// Tick выполняет один тик планировщика.
//
//  1. Находит due schedules (enabled, next_due_at <= now)
//  2. Для каждого создаёт pending execution с контекстом расписания
//  3. Сдвигает next_due_at
//  4. Публикует execution.pending
//
// Ошибка одного schedule не блокирует обработку остальных.
func (s *Scheduler) Tick(ctx context.Context) error {
	now := s.now()

	schedules, err := s.schedules.ListDue(ctx, now, s.batchSize)
	if err != nil {
		return fmt.Errorf("list due schedules: %w", err)
	}
	if len(schedules) == 0 {
		return nil
	}

	var created int
	for i := range schedules {
		sched := &schedules[i]

		ok, err := s.processSchedule(ctx, sched, now)
		if err != nil {
			s.logger.Error("failed to process schedule",
				"schedule_id", sched.ID,
				"schedule_name", sched.Name,
				"error", err,
			)
			continue
		}
		if ok {
			created++
		}
	}

	s.logger.Info("scheduler tick completed",
		"due", len(schedules),
		"executions_created", created,
	)
	return nil
}

// processSchedule обрабатывает один schedule.
// Возвращает true, если execution был создан.
func (s *Scheduler) processSchedule(ctx context.Context, sched *domain.Schedule, now time.Time) (bool, error) {
	// Следующее время считаем до создания execution: сломанное расписание
	// выключается, а не запускается на каждом тике.
	var nextDue time.Time
	err := Validate(sched)
	if err == nil {
		nextDue, err = CalculateNextDue(sched, now)
	}
	if err != nil {
		sched.Enabled = false
		sched.UpdatedAt = now
		s.logger.Warn("invalid schedule, disabling", "schedule_id", sched.ID, "error", err)
		return false, s.schedules.Update(ctx, sched)
	}

	fl, err := s.flows.GetByID(ctx, sched.FlowID)
	if errors.Is(err, repo.ErrNotFound) {
		s.logger.Warn("flow not found for schedule, disabling",
			"schedule_id", sched.ID,
			"flow_id", sched.FlowID,
		)
		sched.Enabled = false
		sched.UpdatedAt = now
		return false, s.schedules.Update(ctx, sched)
	}
	if err != nil {
		return false, fmt.Errorf("get flow: %w", err)
	}

	exec := domain.NewExecution(fl.ID, sched.UserID)
	exec.FlowVersion = fl.Version
	exec.Context = sched.Context
	exec.CreatedAt = now

	if err := s.executions.Create(ctx, exec); err != nil {
		return false, fmt.Errorf("create execution: %w", err)
	}

	s.logger.Info("created execution from schedule",
		"execution_id", exec.ID,
		"schedule_id", sched.ID,
		"flow_id", fl.ID,
		"next_due_at", nextDue,
	)

	sched.RecordRun(exec.ID, nextDue)
	if err := s.schedules.Update(ctx, sched); err != nil {
		return true, fmt.Errorf("update schedule: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishExecutionPending(ctx, exec.ID); err != nil {
			// execution уже в БД, worker заберёт его через polling
			s.logger.Warn("failed to publish execution.pending",
				"execution_id", exec.ID,
				"error", err,
			)
		}
	}

	return true, nil
}

// IntervalFromEnv читает SCHEDULER_INTERVAL ("5s", "1m").
func IntervalFromEnv() time.Duration {
	d, err := time.ParseDuration(os.Getenv("SCHEDULER_INTERVAL"))
	if err != nil || d <= 0 {
		return DefaultInterval
	}
	return d
}
