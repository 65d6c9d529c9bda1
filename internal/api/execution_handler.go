package api

import (
	"context"
	"net/http"

	"github.com/shaiso/Langweave/internal/domain"
	"github.com/shaiso/Langweave/internal/flow"
)

// RunFlow выполняет flow синхронно и возвращает результаты всех узлов.
// POST /api/v1/flows/{id}/run
//
// Выполнение сохраняется в executions и при успехе, и при ошибке.
func (h *Handler) RunFlow(w http.ResponseWriter, r *http.Request) {
	f, ok := h.loadFlow(w, r)
	if !ok {
		return
	}

	var req RunRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	executor, exec, err := h.startRun(r.Context(), f, req.Context)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	results, runErr := executor.Execute(r.Context())
	h.saveRun(r.Context(), exec, executor)

	if runErr != nil {
		HandleExecutionError(w, h.logger, exec.ID, runErr)
		return
	}

	Success(w, RunResponse{
		ExecutionID: exec.ID,
		Status:      exec.Status,
		Results:     results,
	})
}

// CreateExecution ставит выполнение flow в очередь.
// POST /api/v1/flows/{id}/executions
//
// Возвращает 202 с pending execution; результат — через GET /executions/{id}
// или websocket /executions/{id}/events.
func (h *Handler) CreateExecution(w http.ResponseWriter, r *http.Request) {
	f, ok := h.loadFlow(w, r)
	if !ok {
		return
	}

	var req RunRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	exec := domain.NewExecution(f.ID, userFrom(r))
	exec.FlowVersion = f.Version
	exec.Context = req.Context

	if err := h.executions.Create(r.Context(), exec); HandleRepoError(w, h.logger, err, "") {
		return
	}

	if h.publisher != nil {
		if err := h.publisher.PublishExecutionPending(r.Context(), exec.ID); err != nil {
			// execution уже в БД, worker заберёт его через polling
			h.logger.Warn("failed to publish execution.pending",
				"execution_id", exec.ID,
				"error", err,
			)
		}
	}

	Accepted(w, exec)
}

// ListFlowExecutions возвращает executions flow, новые первыми.
// GET /api/v1/flows/{id}/executions?limit=...&offset=...
func (h *Handler) ListFlowExecutions(w http.ResponseWriter, r *http.Request) {
	f, ok := h.loadFlow(w, r)
	if !ok {
		return
	}

	executions, err := h.executions.ListByFlow(r.Context(), f.ID, pageFrom(r))
	if HandleRepoError(w, h.logger, err, "") {
		return
	}
	if executions == nil {
		executions = []domain.Execution{}
	}

	List(w, executions, len(executions))
}

// GetExecution возвращает execution по ID.
// GET /api/v1/executions/{id}
func (h *Handler) GetExecution(w http.ResponseWriter, r *http.Request) {
	exec, ok := h.loadExecution(w, r)
	if !ok {
		return
	}
	Success(w, exec)
}

// --- Helpers ---

func (h *Handler) loadExecution(w http.ResponseWriter, r *http.Request) (*domain.Execution, bool) {
	id, ok := pathID(w, r, "execution")
	if !ok {
		return nil, false
	}

	exec, err := h.executions.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "execution not found") {
		return nil, false
	}
	if exec.UserID != userFrom(r) {
		NotFound(w, "execution not found")
		return nil, false
	}
	return exec, true
}

// startRun собирает контекст выполнения, создаёт запись execution
// в статусе running и executor для неё.
func (h *Handler) startRun(ctx context.Context, f *domain.Flow, overrides map[string]any) (*flow.Executor, *domain.Execution, error) {
	env, err := flow.BuildContext(ctx, flow.Base{
		UserID:    f.UserID,
		FlowID:    f.ID,
		ProjectID: f.ProjectID,
	}, h.variables, overrides)
	if err != nil {
		return nil, nil, err
	}

	exec := domain.NewExecution(f.ID, f.UserID)
	exec.FlowVersion = f.Version
	exec.Context = overrides
	exec.MarkRunning()

	if err := h.executions.Create(ctx, exec); err != nil {
		return nil, nil, err
	}

	executor := flow.New(f.Data, flow.Config{
		Registry:    h.registry,
		Context:     env,
		ExecutionID: exec.ID,
		FlowID:      f.ID,
		UserID:      f.UserID,
		Timeout:     h.timeout,
		Logger:      h.logger,
	})
	return executor, exec, nil
}

// saveRun переносит итог executor'а в exec и сохраняет его.
// Сохраняет и тогда, когда клиент уже отключился.
func (h *Handler) saveRun(ctx context.Context, exec *domain.Execution, executor *flow.Executor) {
	result := executor.Execution()
	exec.Status = result.Status
	exec.Error = result.Error
	exec.Results = result.Results
	exec.StartedAt = result.StartedAt
	exec.FinishedAt = result.FinishedAt

	if err := h.executions.Update(context.WithoutCancel(ctx), exec); err != nil {
		h.logger.Error("failed to save execution", "execution_id", exec.ID, "error", err)
	}
}
