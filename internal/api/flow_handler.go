package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Langweave/internal/domain"
	"github.com/shaiso/Langweave/internal/flow"
	"github.com/shaiso/Langweave/internal/repo"
)

// ListFlows возвращает flows пользователя.
// GET /api/v1/flows?project_id=...&limit=...&offset=...
func (h *Handler) ListFlows(w http.ResponseWriter, r *http.Request) {
	projectID, err := queryUUID(r, "project_id")
	if err != nil {
		BadRequest(w, "invalid project_id")
		return
	}

	flows, err := h.flows.List(r.Context(), repo.FlowFilter{
		UserID:    userFrom(r),
		ProjectID: projectID,
		Page:      pageFrom(r),
	})
	if HandleRepoError(w, h.logger, err, "") {
		return
	}
	if flows == nil {
		flows = []domain.Flow{}
	}

	List(w, flows, len(flows))
}

// CreateFlow создаёт flow. Определение проверяется так же, как перед выполнением.
// POST /api/v1/flows
func (h *Handler) CreateFlow(w http.ResponseWriter, r *http.Request) {
	var req CreateFlowRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		BadRequest(w, "name is required")
		return
	}
	if err := flow.Check(req.Data, h.registry); err != nil {
		Unprocessable(w, err.Error())
		return
	}

	f := &domain.Flow{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		Data:        req.Data,
		UserID:      userFrom(r),
		ProjectID:   req.ProjectID,
		Version:     1,
		CreatedAt:   time.Now(),
	}

	if err := h.flows.Create(r.Context(), f); HandleRepoError(w, h.logger, err, "") {
		return
	}

	Created(w, f)
}

// GetFlow возвращает flow по ID.
// GET /api/v1/flows/{id}
func (h *Handler) GetFlow(w http.ResponseWriter, r *http.Request) {
	f, ok := h.loadFlow(w, r)
	if !ok {
		return
	}
	Success(w, f)
}

// UpdateFlow обновляет flow; изменение увеличивает версию.
// PUT /api/v1/flows/{id}
func (h *Handler) UpdateFlow(w http.ResponseWriter, r *http.Request) {
	f, ok := h.loadFlow(w, r)
	if !ok {
		return
	}

	var req UpdateFlowRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			BadRequest(w, "name must not be empty")
			return
		}
		f.Name = name
	}
	if req.Description != nil {
		f.Description = *req.Description
	}
	if req.ProjectID != nil {
		f.ProjectID = req.ProjectID
	}
	if req.Data != nil {
		if err := flow.Check(*req.Data, h.registry); err != nil {
			Unprocessable(w, err.Error())
			return
		}
		f.Data = *req.Data
	}

	if err := h.flows.Update(r.Context(), f); HandleRepoError(w, h.logger, err, "flow not found") {
		return
	}

	Success(w, f)
}

// DeleteFlow удаляет flow вместе с его executions и schedules.
// DELETE /api/v1/flows/{id}
func (h *Handler) DeleteFlow(w http.ResponseWriter, r *http.Request) {
	f, ok := h.loadFlow(w, r)
	if !ok {
		return
	}

	if err := h.flows.Delete(r.Context(), f.ID); HandleRepoError(w, h.logger, err, "flow not found") {
		return
	}

	NoContent(w)
}

// loadFlow загружает flow из пути, если он принадлежит пользователю.
// Чужой flow неотличим от несуществующего.
func (h *Handler) loadFlow(w http.ResponseWriter, r *http.Request) (*domain.Flow, bool) {
	id, ok := pathID(w, r, "flow")
	if !ok {
		return nil, false
	}

	f, err := h.flows.GetForUser(r.Context(), id, userFrom(r))
	if HandleRepoError(w, h.logger, err, "flow not found") {
		return nil, false
	}
	return f, true
}
