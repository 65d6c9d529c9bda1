package api

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Langweave/internal/domain"
)

// variableName — допустимое имя переменной: ключ контекста выполнения.
var variableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ListVariables возвращает переменные пользователя. Секреты отдаются без значения.
// GET /api/v1/variables
//
// С параметром name ищет одну переменную:
// GET /api/v1/variables?name=...&scope=...&project_id=...
func (h *Handler) ListVariables(w http.ResponseWriter, r *http.Request) {
	userID := userFrom(r)

	if name := r.URL.Query().Get("name"); name != "" {
		h.lookupVariable(w, r, userID, name)
		return
	}

	vars, err := h.variables.List(r.Context(), userID)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]domain.Variable, len(vars))
	for i, v := range vars {
		result[i] = v.Masked()
	}
	List(w, result, len(result))
}

// CreateVariable создаёт переменную.
// POST /api/v1/variables
func (h *Handler) CreateVariable(w http.ResponseWriter, r *http.Request) {
	var req CreateVariableRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if !variableName.MatchString(req.Name) {
		BadRequest(w, "name must be a valid identifier")
		return
	}

	scope := req.Scope
	if scope == "" {
		scope = domain.VariableScopeUser
	}
	if !scope.IsValid() {
		BadRequest(w, "invalid scope")
		return
	}
	if scope == domain.VariableScopeProject && req.ProjectID == nil {
		BadRequest(w, "project_id is required for project scope")
		return
	}
	if scope != domain.VariableScopeProject {
		req.ProjectID = nil
	}

	typ := req.Type
	if typ == "" {
		typ = "string"
	}
	if !variableTypes[typ] {
		BadRequest(w, "invalid type")
		return
	}

	now := time.Now()
	v := &domain.Variable{
		ID:          uuid.New(),
		Name:        req.Name,
		Value:       req.Value,
		Type:        typ,
		IsSecret:    req.IsSecret,
		Description: req.Description,
		Scope:       scope,
		ProjectID:   req.ProjectID,
		UserID:      userFrom(r),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.variables.Create(r.Context(), v); HandleRepoError(w, h.logger, err, "") {
		return
	}

	Created(w, v.Masked())
}

// GetVariable возвращает переменную по ID.
// GET /api/v1/variables/{id}
func (h *Handler) GetVariable(w http.ResponseWriter, r *http.Request) {
	v, ok := h.loadVariable(w, r)
	if !ok {
		return
	}
	Success(w, v.Masked())
}

// UpdateVariable обновляет переменную. Пустые поля не меняются.
// PUT /api/v1/variables/{id}
func (h *Handler) UpdateVariable(w http.ResponseWriter, r *http.Request) {
	v, ok := h.loadVariable(w, r)
	if !ok {
		return
	}

	var req UpdateVariableRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if !variableName.MatchString(name) {
			BadRequest(w, "name must be a valid identifier")
			return
		}
		v.Name = name
	}
	if req.Type != nil {
		if !variableTypes[*req.Type] {
			BadRequest(w, "invalid type")
			return
		}
		v.Type = *req.Type
	}
	if req.Value != nil {
		v.Value = *req.Value
	}
	if req.IsSecret != nil {
		v.IsSecret = *req.IsSecret
	}
	if req.Description != nil {
		v.Description = *req.Description
	}

	if err := h.variables.Update(r.Context(), v); HandleRepoError(w, h.logger, err, "variable not found") {
		return
	}

	Success(w, v.Masked())
}

// DeleteVariable удаляет переменную.
// DELETE /api/v1/variables/{id}
func (h *Handler) DeleteVariable(w http.ResponseWriter, r *http.Request) {
	v, ok := h.loadVariable(w, r)
	if !ok {
		return
	}

	if err := h.variables.Delete(r.Context(), v.ID); HandleRepoError(w, h.logger, err, "variable not found") {
		return
	}
	NoContent(w)
}

// --- Helpers ---

func (h *Handler) lookupVariable(w http.ResponseWriter, r *http.Request, userID uuid.UUID, name string) {
	scope := domain.VariableScope(r.URL.Query().Get("scope"))
	if scope == "" {
		scope = domain.VariableScopeUser
	}
	if !scope.IsValid() {
		BadRequest(w, "invalid scope")
		return
	}

	projectID, err := queryUUID(r, "project_id")
	if err != nil {
		BadRequest(w, "invalid project_id")
		return
	}

	v, err := h.variables.Get(r.Context(), userID, name, scope, projectID)
	if HandleRepoError(w, h.logger, err, "variable not found") {
		return
	}
	Success(w, v.Masked())
}

func (h *Handler) loadVariable(w http.ResponseWriter, r *http.Request) (*domain.Variable, bool) {
	id, ok := pathID(w, r, "variable")
	if !ok {
		return nil, false
	}

	v, err := h.variables.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "variable not found") {
		return nil, false
	}
	if v.UserID != userFrom(r) {
		NotFound(w, "variable not found")
		return nil, false
	}
	return v, true
}
