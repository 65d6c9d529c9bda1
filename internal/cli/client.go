package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// defaultTimeout — таймаут HTTP запросов к API.
const defaultTimeout = 30 * time.Second

// headerUserID — заголовок с ID пользователя, который требует API.
const headerUserID = "X-User-ID"

// --- Response types (дублируются из api, CLI не импортирует internal/api) ---

// FlowResponse — flow из API.
type FlowResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
	ProjectID   string          `json:"project_id,omitempty"`
	Version     int             `json:"version"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at,omitempty"`
}

// ExecutionResponse — execution из API.
type ExecutionResponse struct {
	ID          string                    `json:"id"`
	FlowID      string                    `json:"flow_id"`
	FlowVersion int                       `json:"flow_version,omitempty"`
	Status      string                    `json:"status"`
	Error       string                    `json:"error,omitempty"`
	Context     map[string]any            `json:"context,omitempty"`
	Results     map[string]map[string]any `json:"results,omitempty"`
	StartedAt   string                    `json:"started_at,omitempty"`
	FinishedAt  string                    `json:"finished_at,omitempty"`
	CreatedAt   string                    `json:"created_at"`
}

// RunResult — результат синхронного выполнения.
type RunResult struct {
	ExecutionID string                    `json:"execution_id"`
	Status      string                    `json:"status"`
	Results     map[string]map[string]any `json:"results"`
}

// ScheduleResponse — schedule из API.
type ScheduleResponse struct {
	ID              string         `json:"id"`
	FlowID          string         `json:"flow_id"`
	Name            string         `json:"name,omitempty"`
	CronExpr        string         `json:"cron_expr,omitempty"`
	IntervalSec     int            `json:"interval_sec,omitempty"`
	Timezone        string         `json:"timezone"`
	Enabled         bool           `json:"enabled"`
	Context         map[string]any `json:"context,omitempty"`
	NextDueAt       string         `json:"next_due_at,omitempty"`
	LastRunAt       string         `json:"last_run_at,omitempty"`
	LastExecutionID string         `json:"last_execution_id,omitempty"`
	CreatedAt       string         `json:"created_at"`
}

// --- Request types ---

// CreateFlowRequest — создание flow.
type CreateFlowRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Data        json.RawMessage `json:"data"`
}

// RunRequest — запуск flow.
type RunRequest struct {
	Context map[string]any `json:"context,omitempty"`
}

// CreateScheduleRequest — создание schedule.
type CreateScheduleRequest struct {
	Name        string         `json:"name"`
	CronExpr    string         `json:"cron_expr,omitempty"`
	IntervalSec int            `json:"interval_sec,omitempty"`
	Timezone    string         `json:"timezone,omitempty"`
	Enabled     *bool          `json:"enabled,omitempty"`
	Context     map[string]any `json:"context,omitempty"`
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// APIError — ошибка, которую вернул API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("API error: HTTP %d", e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// --- Client ---

// Client — HTTP-клиент для Langweave API.
type Client struct {
	baseURL    string
	userID     string
	httpClient *http.Client
}

// NewClient создаёт клиент для API от имени пользователя userID.
func NewClient(baseURL, userID string) *Client {
	return &Client{
		baseURL: baseURL,
		userID:  userID,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// SetTimeout меняет таймаут запросов. Нужен для синхронного выполнения,
// которое может идти дольше defaultTimeout.
func (c *Client) SetTimeout(d time.Duration) {
	c.httpClient.Timeout = d
}

// --- Flows ---

// ListFlows возвращает flows пользователя.
func (c *Client) ListFlows(limit int) ([]FlowResponse, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var flows []FlowResponse
	err := c.list("/api/v1/flows", params, &flows)
	return flows, err
}

// CreateFlow создаёт flow.
func (c *Client) CreateFlow(req CreateFlowRequest) (*FlowResponse, error) {
	var flow FlowResponse
	err := c.post("/api/v1/flows", req, &flow)
	return &flow, err
}

// GetFlow возвращает flow по ID.
func (c *Client) GetFlow(id string) (*FlowResponse, error) {
	var flow FlowResponse
	err := c.get("/api/v1/flows/"+id, &flow)
	return &flow, err
}

// DeleteFlow удаляет flow.
func (c *Client) DeleteFlow(id string) error {
	return c.delete("/api/v1/flows/" + id)
}

// --- Executions ---

// RunFlow выполняет flow синхронно.
func (c *Client) RunFlow(flowID string, req RunRequest) (*RunResult, error) {
	var result RunResult
	err := c.post("/api/v1/flows/"+flowID+"/run", req, &result)
	return &result, err
}

// CreateExecution ставит выполнение flow в очередь.
func (c *Client) CreateExecution(flowID string, req RunRequest) (*ExecutionResponse, error) {
	var exec ExecutionResponse
	err := c.post("/api/v1/flows/"+flowID+"/executions", req, &exec)
	return &exec, err
}

// ListExecutions возвращает executions flow.
func (c *Client) ListExecutions(flowID string, limit int) ([]ExecutionResponse, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var execs []ExecutionResponse
	err := c.list("/api/v1/flows/"+flowID+"/executions", params, &execs)
	return execs, err
}

// GetExecution возвращает execution по ID.
func (c *Client) GetExecution(id string) (*ExecutionResponse, error) {
	var exec ExecutionResponse
	err := c.get("/api/v1/executions/"+id, &exec)
	return &exec, err
}

// --- Schedules ---

// ListSchedules возвращает schedules. Если flowID не пустой — фильтрует.
func (c *Client) ListSchedules(flowID string) ([]ScheduleResponse, error) {
	params := url.Values{}
	if flowID != "" {
		params.Set("flow_id", flowID)
	}

	var schedules []ScheduleResponse
	err := c.list("/api/v1/schedules", params, &schedules)
	return schedules, err
}

// CreateSchedule создаёт schedule для flow.
func (c *Client) CreateSchedule(flowID string, req CreateScheduleRequest) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	err := c.post("/api/v1/flows/"+flowID+"/schedules", req, &schedule)
	return &schedule, err
}

// DeleteSchedule удаляет schedule.
func (c *Client) DeleteSchedule(id string) error {
	return c.delete("/api/v1/schedules/" + id)
}

// SetScheduleEnabled включает или выключает schedule.
func (c *Client) SetScheduleEnabled(id string, enabled bool) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	body := map[string]bool{"enabled": enabled}
	err := c.put("/api/v1/schedules/"+id+"/enabled", body, &schedule)
	return &schedule, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) put(path string, body any, result any) error {
	return c.doData(http.MethodPut, path, body, result)
}

func (c *Client) delete(path string) error {
	resp, err := c.do(http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.checkError(resp)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userID != "" {
		req.Header.Set(headerUserID, c.userID)
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return &APIError{Status: resp.StatusCode}
	}

	return &APIError{
		Status:  resp.StatusCode,
		Code:    er.Error.Code,
		Message: er.Error.Message,
	}
}
