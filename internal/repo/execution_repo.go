package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Langweave/internal/domain"
)

// ExecutionRepo — репозиторий для работы с executions.
type ExecutionRepo struct {
	pool *pgxpool.Pool
}

// NewExecutionRepo создаёт новый ExecutionRepo.
func NewExecutionRepo(pool *pgxpool.Pool) *ExecutionRepo {
	return &ExecutionRepo{pool: pool}
}

const executionColumns = `id, flow_id, user_id, flow_version, status, error, context, results,
	started_at, finished_at, created_at`

// Create создаёт новый execution.
func (r *ExecutionRepo) Create(ctx context.Context, exec *domain.Execution) error {
	contextJSON, err := json.Marshal(exec.Context)
	if err != nil {
		return fmt.Errorf("marshal context: %w", err)
	}
	resultsJSON, err := json.Marshal(exec.Results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	query := `
		INSERT INTO executions (id, flow_id, user_id, flow_version, status, error, context, results,
		                        started_at, finished_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = r.pool.Exec(ctx, query,
		exec.ID,
		exec.FlowID,
		exec.UserID,
		exec.FlowVersion,
		exec.Status,
		nullString(exec.Error),
		contextJSON,
		resultsJSON,
		exec.StartedAt,
		exec.FinishedAt,
		exec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert execution: %w", err)
	}
	return nil
}

// GetByID возвращает execution по ID.
func (r *ExecutionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Execution, error) {
	query := `SELECT ` + executionColumns + ` FROM executions WHERE id = $1`
	return scanExecution(r.pool.QueryRow(ctx, query, id))
}

// ListByFlow возвращает executions flow, новые первыми.
func (r *ExecutionRepo) ListByFlow(ctx context.Context, flowID uuid.UUID, page Page) ([]domain.Execution, error) {
	query := `
		SELECT ` + executionColumns + `
		FROM executions
		WHERE flow_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	return r.list(ctx, query, flowID, page.limit(), page.Offset)
}

// ListPending возвращает executions в статусе pending, старые первыми.
// Используется worker'ом как fallback, если сообщение из очереди потерялось.
func (r *ExecutionRepo) ListPending(ctx context.Context, limit int) ([]domain.Execution, error) {
	query := `
		SELECT ` + executionColumns + `
		FROM executions
		WHERE status = 'pending'
		ORDER BY created_at ASC
		LIMIT $1
	`
	return r.list(ctx, query, limit)
}

// Claim атомарно переводит execution из pending в running.
// Возвращает ErrInvalidState, если execution уже взят другим worker'ом.
func (r *ExecutionRepo) Claim(ctx context.Context, id uuid.UUID) (*domain.Execution, error) {
	query := `
		UPDATE executions
		SET status = 'running', started_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + executionColumns

	exec, err := scanExecution(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, ErrNotFound) {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, ErrInvalidState
	}
	return exec, err
}

// Update сохраняет статус, ошибку и результаты execution.
func (r *ExecutionRepo) Update(ctx context.Context, exec *domain.Execution) error {
	resultsJSON, err := json.Marshal(exec.Results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	query := `
		UPDATE executions
		SET status = $2, error = $3, results = $4, started_at = $5, finished_at = $6
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		exec.ID,
		exec.Status,
		nullString(exec.Error),
		resultsJSON,
		exec.StartedAt,
		exec.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("update execution: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Helpers ---

func (r *ExecutionRepo) list(ctx context.Context, query string, args ...any) ([]domain.Execution, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	defer rows.Close()

	var executions []domain.Execution
	for rows.Next() {
		exec, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		executions = append(executions, *exec)
	}
	return executions, rows.Err()
}

func scanExecution(row pgx.Row) (*domain.Execution, error) {
	var exec domain.Execution
	var execError *string
	var contextJSON, resultsJSON []byte

	err := row.Scan(
		&exec.ID,
		&exec.FlowID,
		&exec.UserID,
		&exec.FlowVersion,
		&exec.Status,
		&execError,
		&contextJSON,
		&resultsJSON,
		&exec.StartedAt,
		&exec.FinishedAt,
		&exec.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan execution: %w", err)
	}

	if execError != nil {
		exec.Error = *execError
	}
	if contextJSON != nil {
		if err := json.Unmarshal(contextJSON, &exec.Context); err != nil {
			return nil, fmt.Errorf("unmarshal context: %w", err)
		}
	}
	if resultsJSON != nil {
		if err := json.Unmarshal(resultsJSON, &exec.Results); err != nil {
			return nil, fmt.Errorf("unmarshal results: %w", err)
		}
	}
	if exec.Results == nil {
		exec.Results = make(map[string]map[string]any)
	}

	return &exec, nil
}
