package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Langweave/internal/domain"
	"github.com/shaiso/Langweave/internal/repo"
)

// maxBodyBytes — предел размера тела запроса.
const maxBodyBytes = 4 << 20

// Flow DTOs

// CreateFlowRequest — запрос на создание flow.
type CreateFlowRequest struct {
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	Data        domain.FlowDefinition `json:"data"`
	ProjectID   *uuid.UUID            `json:"project_id,omitempty"`
}

// UpdateFlowRequest — запрос на обновление flow. Пустые поля не меняются.
type UpdateFlowRequest struct {
	Name        *string                `json:"name,omitempty"`
	Description *string                `json:"description,omitempty"`
	Data        *domain.FlowDefinition `json:"data,omitempty"`
	ProjectID   *uuid.UUID             `json:"project_id,omitempty"`
}

// Execution DTOs

// RunRequest — запрос на выполнение flow.
type RunRequest struct {
	// Context — переопределения контекста выполнения.
	Context map[string]any `json:"context,omitempty"`
}

// RunResponse — результат синхронного выполнения.
type RunResponse struct {
	ExecutionID uuid.UUID                 `json:"execution_id"`
	Status      domain.ExecutionStatus    `json:"status"`
	Results     map[string]map[string]any `json:"results"`
}

// StreamRequest — сообщение клиента в websocket /flows/{id}/stream.
type StreamRequest struct {
	Type    string         `json:"type"`
	Context map[string]any `json:"context,omitempty"`
}

// streamRequestExecute — единственный поддерживаемый тип сообщения.
const streamRequestExecute = "execute"

// Variable DTOs

// CreateVariableRequest — запрос на создание переменной.
type CreateVariableRequest struct {
	Name        string               `json:"name"`
	Value       string               `json:"value"`
	Type        string               `json:"type,omitempty"`
	IsSecret    bool                 `json:"is_secret"`
	Description string               `json:"description,omitempty"`
	Scope       domain.VariableScope `json:"scope,omitempty"`
	ProjectID   *uuid.UUID           `json:"project_id,omitempty"`
}

// UpdateVariableRequest — запрос на обновление переменной.
type UpdateVariableRequest struct {
	Name        *string `json:"name,omitempty"`
	Value       *string `json:"value,omitempty"`
	Type        *string `json:"type,omitempty"`
	IsSecret    *bool   `json:"is_secret,omitempty"`
	Description *string `json:"description,omitempty"`
}

// variableTypes — допустимые типы значения переменной.
var variableTypes = map[string]bool{
	"string":  true,
	"number":  true,
	"boolean": true,
	"json":    true,
}

// Schedule DTOs

// CreateScheduleRequest — запрос на создание schedule.
type CreateScheduleRequest struct {
	Name        string         `json:"name"`
	CronExpr    string         `json:"cron_expr,omitempty"`
	IntervalSec int            `json:"interval_sec,omitempty"`
	Timezone    string         `json:"timezone,omitempty"`
	Enabled     *bool          `json:"enabled,omitempty"`
	Context     map[string]any `json:"context,omitempty"`
}

// SetEnabledRequest — запрос на включение/выключение.
type SetEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// ScheduleResponse — ответ с schedule.
type ScheduleResponse struct {
	ID              uuid.UUID      `json:"id"`
	FlowID          uuid.UUID      `json:"flow_id"`
	Name            string         `json:"name,omitempty"`
	CronExpr        string         `json:"cron_expr,omitempty"`
	IntervalSec     int            `json:"interval_sec,omitempty"`
	Timezone        string         `json:"timezone"`
	Enabled         bool           `json:"enabled"`
	Context         map[string]any `json:"context,omitempty"`
	NextDueAt       *time.Time     `json:"next_due_at,omitempty"`
	LastRunAt       *time.Time     `json:"last_run_at,omitempty"`
	LastExecutionID *uuid.UUID     `json:"last_execution_id,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// ScheduleFromDomain конвертирует domain.Schedule в ScheduleResponse.
func ScheduleFromDomain(s *domain.Schedule) ScheduleResponse {
	return ScheduleResponse{
		ID:              s.ID,
		FlowID:          s.FlowID,
		Name:            s.Name,
		CronExpr:        s.CronExpr,
		IntervalSec:     s.IntervalSec,
		Timezone:        s.Timezone,
		Enabled:         s.Enabled,
		Context:         s.Context,
		NextDueAt:       s.NextDueAt,
		LastRunAt:       s.LastRunAt,
		LastExecutionID: s.LastExecutionID,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

// --- Helpers ---

// decodeJSON читает тело запроса в dst. Неизвестные поля допускаются.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		BadRequest(w, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// pathID разбирает UUID из пути.
func pathID(w http.ResponseWriter, r *http.Request, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid "+what+" id")
		return uuid.Nil, false
	}
	return id, true
}

// queryUUID разбирает необязательный UUID из query.
func queryUUID(r *http.Request, name string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// pageFrom читает limit и offset. Некорректные значения игнорируются.
func pageFrom(r *http.Request) repo.Page {
	q := r.URL.Query()
	return repo.Page{
		Limit:  parseInt(q.Get("limit"), 0),
		Offset: max(parseInt(q.Get("offset"), 0), 0),
	}
}

func parseInt(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
