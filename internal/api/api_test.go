package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/Langweave/internal/components"
	"github.com/shaiso/Langweave/internal/domain"
	"github.com/shaiso/Langweave/internal/mq"
	"github.com/shaiso/Langweave/internal/repo"
)

// --- Fakes ---

type fakeFlows struct {
	mu    sync.Mutex
	items map[uuid.UUID]*domain.Flow
}

func (s *fakeFlows) Create(_ context.Context, f *domain.Flow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *f
	s.items[f.ID] = &cp
	return nil
}

func (s *fakeFlows) GetForUser(_ context.Context, id, userID uuid.UUID) (*domain.Flow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.items[id]
	if !ok || f.UserID != userID {
		return nil, repo.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (s *fakeFlows) List(_ context.Context, filter repo.FlowFilter) ([]domain.Flow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Flow
	for _, f := range s.items {
		if f.UserID == filter.UserID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (s *fakeFlows) Update(_ context.Context, f *domain.Flow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[f.ID]; !ok {
		return repo.ErrNotFound
	}
	f.Version++
	cp := *f
	s.items[f.ID] = &cp
	return nil
}

func (s *fakeFlows) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return repo.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

type fakeExecutions struct {
	mu    sync.Mutex
	items map[uuid.UUID]*domain.Execution
}

func (s *fakeExecutions) Create(_ context.Context, exec *domain.Execution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *exec
	s.items[exec.ID] = &cp
	return nil
}

func (s *fakeExecutions) GetByID(_ context.Context, id uuid.UUID) (*domain.Execution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *fakeExecutions) ListByFlow(_ context.Context, flowID uuid.UUID, _ repo.Page) ([]domain.Execution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Execution
	for _, e := range s.items {
		if e.FlowID == flowID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (s *fakeExecutions) Update(_ context.Context, exec *domain.Execution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[exec.ID]; !ok {
		return repo.ErrNotFound
	}
	cp := *exec
	s.items[exec.ID] = &cp
	return nil
}

func (s *fakeExecutions) get(id uuid.UUID) (domain.Execution, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[id]
	if !ok {
		return domain.Execution{}, false
	}
	return *e, true
}

func (s *fakeExecutions) only(t *testing.T) domain.Execution {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.Len(t, s.items, 1)
	for _, e := range s.items {
		return *e
	}
	return domain.Execution{}
}

type fakeVariables struct {
	mu    sync.Mutex
	items map[uuid.UUID]*domain.Variable
}

func (s *fakeVariables) Get(_ context.Context, userID uuid.UUID, name string, scope domain.VariableScope, projectID *uuid.UUID) (*domain.Variable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.items {
		if v.UserID == userID && v.Name == name && v.Scope == scope && sameProject(v.ProjectID, projectID) {
			cp := *v
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (s *fakeVariables) ListVisible(_ context.Context, userID uuid.UUID, projectID *uuid.UUID) ([]domain.Variable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Variable
	for _, v := range s.items {
		if v.UserID == userID && (v.Scope != domain.VariableScopeProject || sameProject(v.ProjectID, projectID)) {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (s *fakeVariables) Create(_ context.Context, v *domain.Variable) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.items {
		if existing.UserID == v.UserID && existing.Name == v.Name && existing.Scope == v.Scope &&
			sameProject(existing.ProjectID, v.ProjectID) {
			return fmt.Errorf("%w: variable %s", repo.ErrAlreadyExists, v.Name)
		}
	}
	cp := *v
	s.items[v.ID] = &cp
	return nil
}

func (s *fakeVariables) GetByID(_ context.Context, id uuid.UUID) (*domain.Variable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (s *fakeVariables) List(_ context.Context, userID uuid.UUID) ([]domain.Variable, error) {
	return s.ListVisible(context.Background(), userID, nil)
}

func (s *fakeVariables) Update(_ context.Context, v *domain.Variable) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *v
	s.items[v.ID] = &cp
	return nil
}

func (s *fakeVariables) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

func sameProject(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

type fakeSchedules struct {
	mu    sync.Mutex
	items map[uuid.UUID]*domain.Schedule
}

func (s *fakeSchedules) Create(_ context.Context, sched *domain.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sched
	s.items[sched.ID] = &cp
	return nil
}

func (s *fakeSchedules) GetByID(_ context.Context, id uuid.UUID) (*domain.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sched, ok := s.items[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *sched
	return &cp, nil
}

func (s *fakeSchedules) List(_ context.Context, filter repo.ScheduleFilter) ([]domain.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Schedule
	for _, sched := range s.items {
		if filter.UserID != nil && sched.UserID != *filter.UserID {
			continue
		}
		if filter.FlowID != nil && sched.FlowID != *filter.FlowID {
			continue
		}
		if filter.Enabled != nil && sched.Enabled != *filter.Enabled {
			continue
		}
		out = append(out, *sched)
	}
	return out, nil
}

func (s *fakeSchedules) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

func (s *fakeSchedules) SetEnabled(_ context.Context, id uuid.UUID, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sched, ok := s.items[id]
	if !ok {
		return repo.ErrNotFound
	}
	sched.Enabled = enabled
	return nil
}

type fakePublisher struct {
	mu  sync.Mutex
	ids []uuid.UUID
}

func (p *fakePublisher) PublishExecutionPending(_ context.Context, id uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ids = append(p.ids, id)
	return nil
}

type fakeSubscriber struct {
	events []mq.ExecutionEventPayload
}

func (s *fakeSubscriber) SubscribeEvents(_ context.Context, id uuid.UUID, fn func(mq.ExecutionEventPayload) bool) error {
	for _, e := range s.events {
		e.ExecutionID = id
		if !fn(e) {
			return nil
		}
	}
	return nil
}

// --- Helpers ---

type fixture struct {
	mux        *http.ServeMux
	flows      *fakeFlows
	executions *fakeExecutions
	variables  *fakeVariables
	schedules  *fakeSchedules
	publisher  *fakePublisher
	user       uuid.UUID
}

func newFixture(t *testing.T, events EventSubscriber) *fixture {
	t.Helper()

	f := &fixture{
		mux:        http.NewServeMux(),
		flows:      &fakeFlows{items: map[uuid.UUID]*domain.Flow{}},
		executions: &fakeExecutions{items: map[uuid.UUID]*domain.Execution{}},
		variables:  &fakeVariables{items: map[uuid.UUID]*domain.Variable{}},
		schedules:  &fakeSchedules{items: map[uuid.UUID]*domain.Schedule{}},
		publisher:  &fakePublisher{},
		user:       uuid.New(),
	}

	h := NewHandler(Config{
		Flows:      f.flows,
		Executions: f.executions,
		Variables:  f.variables,
		Schedules:  f.schedules,
		Publisher:  f.publisher,
		Events:     events,
		Timeout:    5 * time.Second,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	h.RegisterRoutes(f.mux)
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return f.doAs(t, f.user, method, path, body)
}

func (f *fixture) doAs(t *testing.T, user uuid.UUID, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if user != uuid.Nil {
		req.Header.Set(HeaderUserID, user.String())
	}
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

// echoDefinition: text_input("hello") → text_output.
func echoDefinition() domain.FlowDefinition {
	return domain.FlowDefinition{
		Nodes: []domain.NodeDef{
			{ID: "in", Type: components.TypeTextInput, Data: domain.NodeData{Inputs: map[string]any{"value": "hello"}}},
			{ID: "out", Type: components.TypeTextOutput},
		},
		Edges: []domain.EdgeDef{
			{ID: "e1", Source: "in", Target: "out", SourceHandle: "text", TargetHandle: "text"},
		},
	}
}

func (f *fixture) storeFlow(t *testing.T, def domain.FlowDefinition) *domain.Flow {
	t.Helper()
	fl := &domain.Flow{
		ID:        uuid.New(),
		Name:      "echo",
		Data:      def,
		UserID:    f.user,
		Version:   2,
		CreatedAt: time.Now(),
	}
	require.NoError(t, f.flows.Create(context.Background(), fl))
	return fl
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var resp struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp.Data
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp.Error
}

// --- Tests ---

func TestRequireUser(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.doAs(t, uuid.Nil, http.MethodGet, "/api/v1/flows", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/flows", nil)
	req.Header.Set(HeaderUserID, "not-a-uuid")
	rec = httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/flows?user_id="+f.user.String(), nil)
	rec = httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListComponents(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.doAs(t, uuid.Nil, http.MethodGet, "/api/v1/components", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	all := decodeData[[]components.Schema](t, rec)
	assert.Len(t, all, components.DefaultRegistry().Count())

	rec = f.doAs(t, uuid.Nil, http.MethodGet, "/api/v1/components?category=Logic", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	logic := decodeData[[]components.Schema](t, rec)
	names := make([]string, len(logic))
	for i, s := range logic {
		names[i] = s.Name
	}
	assert.ElementsMatch(t, []string{components.TypeConditional, components.TypeLoop, components.TypeDelay}, names)

	rec = f.doAs(t, uuid.Nil, http.MethodGet, "/api/v1/components?category=Nope", nil)
	assert.Empty(t, decodeData[[]components.Schema](t, rec))

	rec = f.doAs(t, uuid.Nil, http.MethodGet, "/api/v1/components/categories", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decodeData[map[string][]components.Schema](t, rec), "Language Models")
}

func TestCreateFlow(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/api/v1/flows", CreateFlowRequest{Name: "echo", Data: echoDefinition()})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeData[domain.Flow](t, rec)
	assert.Equal(t, 1, created.Version)
	assert.Equal(t, f.user, created.UserID)

	rec = f.do(t, http.MethodGet, "/api/v1/flows/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "echo", decodeData[domain.Flow](t, rec).Name)
}

func TestCreateFlow_Rejects(t *testing.T) {
	f := newFixture(t, nil)

	cyclic := echoDefinition()
	cyclic.Edges = append(cyclic.Edges, domain.EdgeDef{ID: "e2", Source: "out", Target: "in", SourceHandle: "output", TargetHandle: "value"})

	unknown := echoDefinition()
	unknown.Nodes[1].Type = "no_such_component"

	tests := []struct {
		name   string
		req    CreateFlowRequest
		status int
	}{
		{"missing name", CreateFlowRequest{Data: echoDefinition()}, http.StatusBadRequest},
		{"cycle", CreateFlowRequest{Name: "c", Data: cyclic}, http.StatusUnprocessableEntity},
		{"unknown component", CreateFlowRequest{Name: "u", Data: unknown}, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/api/v1/flows", tt.req)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
	assert.Empty(t, f.flows.items)
}

func TestFlowOwnership(t *testing.T) {
	f := newFixture(t, nil)
	fl := f.storeFlow(t, echoDefinition())

	rec := f.doAs(t, uuid.New(), http.MethodGet, "/api/v1/flows/"+fl.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.doAs(t, uuid.New(), http.MethodDelete, "/api/v1/flows/"+fl.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/flows/garbage", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunFlow(t *testing.T) {
	f := newFixture(t, nil)
	fl := f.storeFlow(t, echoDefinition())

	rec := f.do(t, http.MethodPost, "/api/v1/flows/"+fl.ID.String()+"/run", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeData[RunResponse](t, rec)
	assert.Equal(t, domain.ExecutionStatusCompleted, resp.Status)
	assert.Equal(t, "hello", resp.Results["out"]["output"])

	exec, ok := f.executions.get(resp.ExecutionID)
	require.True(t, ok)
	assert.Equal(t, domain.ExecutionStatusCompleted, exec.Status)
	assert.Equal(t, fl.Version, exec.FlowVersion)
	assert.NotNil(t, exec.FinishedAt)
	assert.Equal(t, "hello", exec.Results["in"]["text"])
}

func TestRunFlow_InvalidStoredFlow(t *testing.T) {
	f := newFixture(t, nil)

	def := echoDefinition()
	def.Nodes[0].Type = "no_such_component"
	fl := f.storeFlow(t, def)

	rec := f.do(t, http.MethodPost, "/api/v1/flows/"+fl.ID.String()+"/run", RunRequest{Context: map[string]any{"k": "v"}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

	detail := decodeError(t, rec)
	assert.Equal(t, ErrCodeValidation, detail.Code)
	require.NotNil(t, detail.ExecutionID)
	assert.Contains(t, detail.Message, "no_such_component")

	exec := f.executions.only(t)
	assert.Equal(t, *detail.ExecutionID, exec.ID)
	assert.Equal(t, domain.ExecutionStatusFailed, exec.Status)
	assert.NotEmpty(t, exec.Error)
	assert.Equal(t, map[string]any{"k": "v"}, exec.Context)
}

func TestCreateExecution(t *testing.T) {
	f := newFixture(t, nil)
	fl := f.storeFlow(t, echoDefinition())

	rec := f.do(t, http.MethodPost, "/api/v1/flows/"+fl.ID.String()+"/executions", RunRequest{Context: map[string]any{"MODE": "async"}})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	exec := decodeData[domain.Execution](t, rec)
	assert.Equal(t, domain.ExecutionStatusPending, exec.Status)
	assert.Equal(t, []uuid.UUID{exec.ID}, f.publisher.ids)

	stored, ok := f.executions.get(exec.ID)
	require.True(t, ok)
	assert.Equal(t, "async", stored.Context["MODE"])
	assert.Equal(t, fl.Version, stored.FlowVersion)

	rec = f.do(t, http.MethodGet, "/api/v1/executions/"+exec.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, exec.ID, decodeData[domain.Execution](t, rec).ID)

	rec = f.doAs(t, uuid.New(), http.MethodGet, "/api/v1/executions/"+exec.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/flows/"+fl.ID.String()+"/executions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeData[[]domain.Execution](t, rec), 1)
}

func TestVariables(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/api/v1/variables", CreateVariableRequest{
		Name:     "OPENAI_API_KEY",
		Value:    "sk-secret",
		IsSecret: true,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeData[domain.Variable](t, rec)
	assert.Empty(t, created.Value)
	assert.Equal(t, domain.VariableScopeUser, created.Scope)
	assert.Equal(t, "string", created.Type)

	stored, err := f.variables.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "sk-secret", stored.Value)

	rec = f.do(t, http.MethodPost, "/api/v1/variables", CreateVariableRequest{Name: "OPENAI_API_KEY", Value: "again"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/variables?name=OPENAI_API_KEY", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.ID, decodeData[domain.Variable](t, rec).ID)

	rec = f.do(t, http.MethodGet, "/api/v1/variables?name=OPENAI_API_KEY&scope=global", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/v1/variables/"+created.ID.String(), map[string]any{"is_secret": false})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sk-secret", decodeData[domain.Variable](t, rec).Value)

	rec = f.doAs(t, uuid.New(), http.MethodDelete, "/api/v1/variables/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/v1/variables/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCreateVariable_Validation(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		name string
		req  CreateVariableRequest
	}{
		{"empty name", CreateVariableRequest{Value: "x"}},
		{"bad name", CreateVariableRequest{Name: "1-bad", Value: "x"}},
		{"bad scope", CreateVariableRequest{Name: "A", Scope: "team"}},
		{"project without id", CreateVariableRequest{Name: "A", Scope: domain.VariableScopeProject}},
		{"bad type", CreateVariableRequest{Name: "A", Type: "date"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/api/v1/variables", tt.req)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestSchedules(t *testing.T) {
	f := newFixture(t, nil)
	fl := f.storeFlow(t, echoDefinition())
	path := "/api/v1/flows/" + fl.ID.String() + "/schedules"

	rec := f.do(t, http.MethodPost, path, CreateScheduleRequest{Name: "every5", CronExpr: "*/5 * * * *"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	sched := decodeData[ScheduleResponse](t, rec)
	assert.Equal(t, "UTC", sched.Timezone)
	assert.True(t, sched.Enabled)
	require.NotNil(t, sched.NextDueAt)
	assert.True(t, sched.NextDueAt.After(time.Now().Add(-time.Second)))

	rec = f.do(t, http.MethodPut, "/api/v1/schedules/"+sched.ID.String()+"/enabled", SetEnabledRequest{Enabled: false})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeData[ScheduleResponse](t, rec).Enabled)

	rec = f.do(t, http.MethodGet, "/api/v1/schedules?enabled=false", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeData[[]ScheduleResponse](t, rec), 1)

	rec = f.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeData[[]ScheduleResponse](t, rec), 1)

	rec = f.doAs(t, uuid.New(), http.MethodDelete, "/api/v1/schedules/"+sched.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/v1/schedules/"+sched.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCreateSchedule_Validation(t *testing.T) {
	f := newFixture(t, nil)
	fl := f.storeFlow(t, echoDefinition())
	path := "/api/v1/flows/" + fl.ID.String() + "/schedules"

	tests := []struct {
		name string
		req  CreateScheduleRequest
	}{
		{"neither", CreateScheduleRequest{Name: "x"}},
		{"both", CreateScheduleRequest{CronExpr: "@hourly", IntervalSec: 60}},
		{"bad cron", CreateScheduleRequest{CronExpr: "every tuesday"}},
		{"negative interval", CreateScheduleRequest{IntervalSec: -5}},
		{"bad timezone", CreateScheduleRequest{IntervalSec: 60, Timezone: "Mars/Olympus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, path, tt.req)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
	assert.Empty(t, f.schedules.items)
}
