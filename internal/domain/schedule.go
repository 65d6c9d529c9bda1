package domain

import (
	"time"

	"github.com/google/uuid"
)

// Schedule — расписание автоматического запуска flow.
//
// Schedule позволяет запускать flow:
// - По cron-выражению: "0 9 * * *" (каждый день в 9:00)
// - По интервалу: каждые N секунд
//
// Scheduler проверяет next_due_at и ставит execution в очередь,
// когда время подошло.
type Schedule struct {
	// ID — уникальный идентификатор schedule.
	ID uuid.UUID `json:"id"`

	// FlowID — ссылка на flow, который нужно запускать.
	FlowID uuid.UUID `json:"flow_id"`

	// UserID — владелец расписания (от его имени создаются executions).
	UserID uuid.UUID `json:"user_id"`

	// Name — имя расписания для удобства.
	Name string `json:"name,omitempty"`

	// CronExpr — cron-выражение.
	// Формат: "минуты часы дни месяцы дни_недели"
	// Если задан CronExpr, IntervalSec игнорируется.
	CronExpr string `json:"cron_expr,omitempty"`

	// IntervalSec — интервал в секундах между запусками.
	IntervalSec int `json:"interval_sec,omitempty"`

	// Timezone — часовой пояс для вычисления времени (по умолчанию "UTC").
	Timezone string `json:"timezone"`

	// Enabled — флаг активности расписания.
	Enabled bool `json:"enabled"`

	// Context — переопределения контекста для каждого запуска.
	Context map[string]any `json:"context,omitempty"`

	// NextDueAt — время следующего запуска.
	NextDueAt *time.Time `json:"next_due_at,omitempty"`

	// LastRunAt — время последнего запуска.
	LastRunAt *time.Time `json:"last_run_at,omitempty"`

	// LastExecutionID — ID последнего созданного execution.
	LastExecutionID *uuid.UUID `json:"last_execution_id,omitempty"`

	// CreatedAt — время создания schedule.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего обновления.
	UpdatedAt time.Time `json:"updated_at"`
}

// IsCron возвращает true, если расписание использует cron-выражение.
func (s *Schedule) IsCron() bool {
	return s.CronExpr != ""
}

// IsInterval возвращает true, если расписание использует интервал.
func (s *Schedule) IsInterval() bool {
	return s.CronExpr == "" && s.IntervalSec > 0
}

// IsDue проверяет, пора ли запускать.
func (s *Schedule) IsDue(now time.Time) bool {
	if !s.Enabled || s.NextDueAt == nil {
		return false
	}
	return !now.Before(*s.NextDueAt)
}

// RecordRun записывает информацию о запуске.
func (s *Schedule) RecordRun(executionID uuid.UUID, nextDue time.Time) {
	now := time.Now()
	s.LastRunAt = &now
	s.LastExecutionID = &executionID
	s.NextDueAt = &nextDue
	s.UpdatedAt = now
}
