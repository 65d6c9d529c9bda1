package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Langweave/internal/domain"
	"github.com/shaiso/Langweave/internal/secrets"
)

// VariableRepo — репозиторий для работы с variables.
//
// Значения секретов шифруются перед записью и расшифровываются
// при чтении: вызывающая сторона всегда работает с открытым текстом.
type VariableRepo struct {
	pool   *pgxpool.Pool
	cipher *secrets.Cipher
}

// NewVariableRepo создаёт новый VariableRepo.
func NewVariableRepo(pool *pgxpool.Pool, cipher *secrets.Cipher) *VariableRepo {
	return &VariableRepo{pool: pool, cipher: cipher}
}

const variableColumns = `id, name, value, type, is_secret, description, scope, project_id, user_id,
	created_at, updated_at`

// Create создаёт новую переменную.
// Возвращает ErrAlreadyExists, если переменная с таким именем уже есть в этой области.
func (r *VariableRepo) Create(ctx context.Context, v *domain.Variable) error {
	value, err := r.seal(v)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO variables (id, name, value, type, is_secret, description, scope, project_id, user_id,
		                       created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = r.pool.Exec(ctx, query,
		v.ID,
		v.Name,
		value,
		v.Type,
		v.IsSecret,
		nullString(v.Description),
		v.Scope,
		nullUUID(v.ProjectID),
		v.UserID,
		v.CreatedAt,
		v.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: variable %s", ErrAlreadyExists, v.Name)
	}
	if err != nil {
		return fmt.Errorf("insert variable: %w", err)
	}
	return nil
}

// GetByID возвращает переменную по ID.
func (r *VariableRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Variable, error) {
	query := `SELECT ` + variableColumns + ` FROM variables WHERE id = $1`
	return r.scanVariable(r.pool.QueryRow(ctx, query, id))
}

// Get возвращает переменную по имени в заданной области видимости.
func (r *VariableRepo) Get(ctx context.Context, userID uuid.UUID, name string, scope domain.VariableScope, projectID *uuid.UUID) (*domain.Variable, error) {
	query := `
		SELECT ` + variableColumns + `
		FROM variables
		WHERE user_id = $1 AND name = $2 AND scope = $3
		  AND project_id IS NOT DISTINCT FROM $4
	`
	return r.scanVariable(r.pool.QueryRow(ctx, query, userID, name, scope, nullUUID(projectID)))
}

// ListVisible возвращает переменные, видимые в проекте:
// global и user всегда, project только для указанного проекта.
func (r *VariableRepo) ListVisible(ctx context.Context, userID uuid.UUID, projectID *uuid.UUID) ([]domain.Variable, error) {
	query := `
		SELECT ` + variableColumns + `
		FROM variables
		WHERE user_id = $1
		  AND (scope <> 'project' OR project_id = $2)
		ORDER BY name
	`
	return r.list(ctx, query, userID, nullUUID(projectID))
}

// List возвращает все переменные пользователя.
func (r *VariableRepo) List(ctx context.Context, userID uuid.UUID) ([]domain.Variable, error) {
	query := `
		SELECT ` + variableColumns + `
		FROM variables
		WHERE user_id = $1
		ORDER BY scope, name
	`
	return r.list(ctx, query, userID)
}

// Update обновляет переменную.
func (r *VariableRepo) Update(ctx context.Context, v *domain.Variable) error {
	value, err := r.seal(v)
	if err != nil {
		return err
	}

	query := `
		UPDATE variables
		SET name = $2, value = $3, type = $4, is_secret = $5, description = $6,
		    scope = $7, project_id = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err = r.pool.QueryRow(ctx, query,
		v.ID,
		v.Name,
		value,
		v.Type,
		v.IsSecret,
		nullString(v.Description),
		v.Scope,
		nullUUID(v.ProjectID),
	).Scan(&v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: variable %s", ErrAlreadyExists, v.Name)
	}
	if err != nil {
		return fmt.Errorf("update variable: %w", err)
	}
	return nil
}

// Delete удаляет переменную.
func (r *VariableRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM variables WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete variable: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Helpers ---

// seal возвращает значение для записи в БД.
func (r *VariableRepo) seal(v *domain.Variable) (string, error) {
	if !v.IsSecret {
		return v.Value, nil
	}
	value, err := r.cipher.Encrypt(v.Value)
	if err != nil {
		return "", fmt.Errorf("encrypt variable %s: %w", v.Name, err)
	}
	return value, nil
}

func (r *VariableRepo) list(ctx context.Context, query string, args ...any) ([]domain.Variable, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list variables: %w", err)
	}
	defer rows.Close()

	var vars []domain.Variable
	for rows.Next() {
		v, err := r.scanVariable(rows)
		if err != nil {
			return nil, err
		}
		vars = append(vars, *v)
	}
	return vars, rows.Err()
}

func (r *VariableRepo) scanVariable(row pgx.Row) (*domain.Variable, error) {
	var v domain.Variable
	var description *string

	err := row.Scan(
		&v.ID,
		&v.Name,
		&v.Value,
		&v.Type,
		&v.IsSecret,
		&description,
		&v.Scope,
		&v.ProjectID,
		&v.UserID,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan variable: %w", err)
	}

	if description != nil {
		v.Description = *description
	}
	if v.IsSecret {
		plain, err := r.cipher.Decrypt(v.Value)
		if err != nil {
			return nil, fmt.Errorf("decrypt variable %s: %w", v.Name, err)
		}
		v.Value = plain
	}

	return &v, nil
}
