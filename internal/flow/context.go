package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/google/uuid"
	"github.com/shaiso/Langweave/internal/domain"
)

// Ключи метаданных запуска в контексте выполнения.
const (
	ContextUserID    = "user_id"
	ContextFlowID    = "flow_id"
	ContextProjectID = "project_id"
)

// VariableStore — источник переменных пользователя.
//
// Значения секретов возвращаются расшифрованными:
// шифрование целиком на стороне хранилища.
type VariableStore interface {
	// Get возвращает переменную по имени в заданной области видимости.
	Get(ctx context.Context, userID uuid.UUID, name string, scope domain.VariableScope, projectID *uuid.UUID) (*domain.Variable, error)

	// ListVisible возвращает все переменные, видимые пользователю
	// в проекте (global, project, user).
	ListVisible(ctx context.Context, userID uuid.UUID, projectID *uuid.UUID) ([]domain.Variable, error)
}

// Base — метаданные запуска.
type Base struct {
	UserID    uuid.UUID
	FlowID    uuid.UUID
	ProjectID *uuid.UUID
}

// BuildContext собирает контекст выполнения.
//
// Приоритет (последний побеждает):
//  1. user_id, flow_id (и project_id, если задан)
//  2. переменные: global, затем project, затем user
//  3. overrides вызывающей стороны
//
// store может быть nil: тогда переменные не загружаются.
func BuildContext(ctx context.Context, base Base, store VariableStore, overrides map[string]any) (map[string]any, error) {
	result := map[string]any{
		ContextUserID: base.UserID.String(),
		ContextFlowID: base.FlowID.String(),
	}
	if base.ProjectID != nil {
		result[ContextProjectID] = base.ProjectID.String()
	}

	if store != nil {
		vars, err := store.ListVisible(ctx, base.UserID, base.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("load variables: %w", err)
		}

		// Стабильная сортировка: внутри одной области сохраняется порядок хранилища
		slices.SortStableFunc(vars, func(a, b domain.Variable) int {
			return a.Scope.Rank() - b.Scope.Rank()
		})
		for _, v := range vars {
			result[v.Name] = VariableValue(v)
		}
	}

	maps.Copy(result, overrides)
	return result, nil
}

// VariableValue приводит значение переменной к её типу.
// Значение, которое не удаётся разобрать, остаётся строкой.
func VariableValue(v domain.Variable) any {
	switch v.Type {
	case "number":
		if f, err := strconv.ParseFloat(v.Value, 64); err == nil {
			return f
		}
	case "boolean":
		if b, err := strconv.ParseBool(v.Value); err == nil {
			return b
		}
	case "json":
		var parsed any
		if err := json.Unmarshal([]byte(v.Value), &parsed); err == nil {
			return parsed
		}
	}
	return v.Value
}
