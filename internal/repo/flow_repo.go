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

// FlowRepo — репозиторий для работы с flows.
type FlowRepo struct {
	pool *pgxpool.Pool
}

// NewFlowRepo создаёт новый FlowRepo.
func NewFlowRepo(pool *pgxpool.Pool) *FlowRepo {
	return &FlowRepo{pool: pool}
}

const flowColumns = `id, name, description, data, user_id, project_id, version, created_at, updated_at`

// Create создаёт новый flow с версией 1.
func (r *FlowRepo) Create(ctx context.Context, flow *domain.Flow) error {
	dataJSON, err := json.Marshal(flow.Data)
	if err != nil {
		return fmt.Errorf("marshal flow data: %w", err)
	}

	if flow.Version == 0 {
		flow.Version = 1
	}

	query := `
		INSERT INTO flows (id, name, description, data, user_id, project_id, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = r.pool.Exec(ctx, query,
		flow.ID,
		flow.Name,
		nullString(flow.Description),
		dataJSON,
		flow.UserID,
		nullUUID(flow.ProjectID),
		flow.Version,
		flow.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert flow: %w", err)
	}
	return nil
}

// GetByID возвращает flow по ID.
func (r *FlowRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Flow, error) {
	query := `SELECT ` + flowColumns + ` FROM flows WHERE id = $1`
	return scanFlow(r.pool.QueryRow(ctx, query, id))
}

// GetForUser возвращает flow, только если он принадлежит пользователю.
func (r *FlowRepo) GetForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Flow, error) {
	query := `SELECT ` + flowColumns + ` FROM flows WHERE id = $1 AND user_id = $2`
	return scanFlow(r.pool.QueryRow(ctx, query, id, userID))
}

// List возвращает flows пользователя.
func (r *FlowRepo) List(ctx context.Context, filter FlowFilter) ([]domain.Flow, error) {
	query := `
		SELECT ` + flowColumns + `
		FROM flows
		WHERE user_id = $1
		  AND ($2::uuid IS NULL OR project_id = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query,
		filter.UserID,
		nullUUID(filter.ProjectID),
		filter.Page.limit(),
		filter.Page.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list flows: %w", err)
	}
	defer rows.Close()

	var flows []domain.Flow
	for rows.Next() {
		flow, err := scanFlow(rows)
		if err != nil {
			return nil, err
		}
		flows = append(flows, *flow)
	}
	return flows, rows.Err()
}

// Update обновляет flow и увеличивает его версию.
// Новые version и updated_at записываются в flow.
func (r *FlowRepo) Update(ctx context.Context, flow *domain.Flow) error {
	dataJSON, err := json.Marshal(flow.Data)
	if err != nil {
		return fmt.Errorf("marshal flow data: %w", err)
	}

	query := `
		UPDATE flows
		SET name = $2, description = $3, data = $4, project_id = $5,
		    version = version + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING version, updated_at
	`
	err = r.pool.QueryRow(ctx, query,
		flow.ID,
		flow.Name,
		nullString(flow.Description),
		dataJSON,
		nullUUID(flow.ProjectID),
	).Scan(&flow.Version, &flow.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update flow: %w", err)
	}
	return nil
}

// Delete удаляет flow (каскадно удалит executions и schedules).
func (r *FlowRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM flows WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete flow: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Helpers ---

// FlowFilter — параметры фильтрации flows.
type FlowFilter struct {
	UserID    uuid.UUID
	ProjectID *uuid.UUID
	Page
}

// scanFlow сканирует строку в Flow. Подходит и для pgx.Row, и для pgx.Rows.
func scanFlow(row pgx.Row) (*domain.Flow, error) {
	var flow domain.Flow
	var description *string
	var dataJSON []byte

	err := row.Scan(
		&flow.ID,
		&flow.Name,
		&description,
		&dataJSON,
		&flow.UserID,
		&flow.ProjectID,
		&flow.Version,
		&flow.CreatedAt,
		&flow.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan flow: %w", err)
	}

	if description != nil {
		flow.Description = *description
	}
	if dataJSON != nil {
		if err := json.Unmarshal(dataJSON, &flow.Data); err != nil {
			return nil, fmt.Errorf("unmarshal flow data: %w", err)
		}
	}

	return &flow, nil
}
