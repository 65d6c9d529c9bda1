package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Langweave/internal/domain"
)

// ScheduleRepo — репозиторий для работы с schedules.
type ScheduleRepo struct {
	pool *pgxpool.Pool
}

// NewScheduleRepo создаёт новый ScheduleRepo.
func NewScheduleRepo(pool *pgxpool.Pool) *ScheduleRepo {
	return &ScheduleRepo{pool: pool}
}

const scheduleColumns = `id, flow_id, user_id, name, cron_expr, interval_sec, timezone, enabled,
	context, next_due_at, last_run_at, last_execution_id, created_at, updated_at`

// Create создаёт новый schedule.
func (r *ScheduleRepo) Create(ctx context.Context, schedule *domain.Schedule) error {
	contextJSON, err := json.Marshal(schedule.Context)
	if err != nil {
		return fmt.Errorf("marshal context: %w", err)
	}

	query := `
		INSERT INTO schedules (id, flow_id, user_id, name, cron_expr, interval_sec, timezone,
		                       enabled, context, next_due_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = r.pool.Exec(ctx, query,
		schedule.ID,
		schedule.FlowID,
		schedule.UserID,
		nullString(schedule.Name),
		nullString(schedule.CronExpr),
		nullInt(schedule.IntervalSec),
		schedule.Timezone,
		schedule.Enabled,
		contextJSON,
		schedule.NextDueAt,
		schedule.CreatedAt,
		schedule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}
	return nil
}

// GetByID возвращает schedule по ID.
func (r *ScheduleRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE id = $1`
	return scanSchedule(r.pool.QueryRow(ctx, query, id))
}

// List возвращает список schedules с фильтрацией.
func (r *ScheduleRepo) List(ctx context.Context, filter ScheduleFilter) ([]domain.Schedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM schedules
		WHERE ($1::uuid IS NULL OR user_id = $1)
		  AND ($2::uuid IS NULL OR flow_id = $2)
		  AND ($3::boolean IS NULL OR enabled = $3)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5
	`
	return r.list(ctx, query,
		nullUUID(filter.UserID),
		nullUUID(filter.FlowID),
		filter.Enabled,
		filter.Page.limit(),
		filter.Page.Offset,
	)
}

// ListDue возвращает schedules, готовые к выполнению.
func (r *ScheduleRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Schedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM schedules
		WHERE enabled = true
		  AND next_due_at IS NOT NULL
		  AND next_due_at <= $1
		ORDER BY next_due_at ASC
		LIMIT $2
	`
	return r.list(ctx, query, now, limit)
}

// Update обновляет schedule.
func (r *ScheduleRepo) Update(ctx context.Context, schedule *domain.Schedule) error {
	contextJSON, err := json.Marshal(schedule.Context)
	if err != nil {
		return fmt.Errorf("marshal context: %w", err)
	}

	query := `
		UPDATE schedules
		SET name = $2, cron_expr = $3, interval_sec = $4, timezone = $5,
		    enabled = $6, context = $7, next_due_at = $8, last_run_at = $9,
		    last_execution_id = $10, updated_at = $11
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		schedule.ID,
		nullString(schedule.Name),
		nullString(schedule.CronExpr),
		nullInt(schedule.IntervalSec),
		schedule.Timezone,
		schedule.Enabled,
		contextJSON,
		schedule.NextDueAt,
		schedule.LastRunAt,
		schedule.LastExecutionID,
		schedule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete удаляет schedule.
func (r *ScheduleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetEnabled включает/выключает schedule.
func (r *ScheduleRepo) SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE schedules SET enabled = $2, updated_at = NOW() WHERE id = $1
	`, id, enabled)
	if err != nil {
		return fmt.Errorf("set enabled: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Helpers ---

// ScheduleFilter — параметры фильтрации schedules.
type ScheduleFilter struct {
	UserID  *uuid.UUID
	FlowID  *uuid.UUID
	Enabled *bool
	Page
}

func (r *ScheduleRepo) list(ctx context.Context, query string, args ...any) ([]domain.Schedule, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var schedules []domain.Schedule
	for rows.Next() {
		schedule, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, *schedule)
	}
	return schedules, rows.Err()
}

func scanSchedule(row pgx.Row) (*domain.Schedule, error) {
	var s domain.Schedule
	var name, cronExpr *string
	var intervalSec *int
	var contextJSON []byte

	err := row.Scan(
		&s.ID,
		&s.FlowID,
		&s.UserID,
		&name,
		&cronExpr,
		&intervalSec,
		&s.Timezone,
		&s.Enabled,
		&contextJSON,
		&s.NextDueAt,
		&s.LastRunAt,
		&s.LastExecutionID,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan schedule: %w", err)
	}

	if name != nil {
		s.Name = *name
	}
	if cronExpr != nil {
		s.CronExpr = *cronExpr
	}
	if intervalSec != nil {
		s.IntervalSec = *intervalSec
	}
	if contextJSON != nil {
		if err := json.Unmarshal(contextJSON, &s.Context); err != nil {
			return nil, fmt.Errorf("unmarshal context: %w", err)
		}
	}

	return &s, nil
}
