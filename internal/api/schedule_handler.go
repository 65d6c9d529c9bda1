package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Langweave/internal/domain"
	"github.com/shaiso/Langweave/internal/repo"
	"github.com/shaiso/Langweave/internal/scheduler"
)

// ListSchedules возвращает schedules пользователя.
// GET /api/v1/schedules?flow_id=...&enabled=...&limit=...&offset=...
func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	userID := userFrom(r)
	filter := repo.ScheduleFilter{UserID: &userID, Page: pageFrom(r)}

	flowID, err := queryUUID(r, "flow_id")
	if err != nil {
		BadRequest(w, "invalid flow_id")
		return
	}
	filter.FlowID = flowID

	if raw := r.URL.Query().Get("enabled"); raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			BadRequest(w, "invalid enabled")
			return
		}
		filter.Enabled = &enabled
	}

	h.listSchedules(w, r, filter)
}

// ListFlowSchedules возвращает schedules одного flow.
// GET /api/v1/flows/{id}/schedules
func (h *Handler) ListFlowSchedules(w http.ResponseWriter, r *http.Request) {
	f, ok := h.loadFlow(w, r)
	if !ok {
		return
	}

	h.listSchedules(w, r, repo.ScheduleFilter{
		UserID: &f.UserID,
		FlowID: &f.ID,
		Page:   pageFrom(r),
	})
}

// CreateSchedule создаёт schedule для flow.
// POST /api/v1/flows/{id}/schedules
func (h *Handler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	f, ok := h.loadFlow(w, r)
	if !ok {
		return
	}

	var req CreateScheduleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	timezone := req.Timezone
	if timezone == "" {
		timezone = "UTC"
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	now := time.Now()
	sched := &domain.Schedule{
		ID:          uuid.New(),
		FlowID:      f.ID,
		UserID:      f.UserID,
		Name:        req.Name,
		CronExpr:    req.CronExpr,
		IntervalSec: req.IntervalSec,
		Timezone:    timezone,
		Enabled:     enabled,
		Context:     req.Context,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := scheduler.Validate(sched); err != nil {
		BadRequest(w, err.Error())
		return
	}

	nextDue, err := scheduler.CalculateInitialNextDue(sched)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}
	sched.NextDueAt = &nextDue

	if err := h.schedules.Create(r.Context(), sched); HandleRepoError(w, h.logger, err, "") {
		return
	}

	h.logger.Info("schedule created",
		"schedule_id", sched.ID,
		"flow_id", f.ID,
		"next_due_at", nextDue,
	)
	Created(w, ScheduleFromDomain(sched))
}

// DeleteSchedule удаляет schedule.
// DELETE /api/v1/schedules/{id}
func (h *Handler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	sched, ok := h.loadSchedule(w, r)
	if !ok {
		return
	}

	if err := h.schedules.Delete(r.Context(), sched.ID); HandleRepoError(w, h.logger, err, "schedule not found") {
		return
	}
	NoContent(w)
}

// SetScheduleEnabled включает или выключает schedule.
// PUT /api/v1/schedules/{id}/enabled
func (h *Handler) SetScheduleEnabled(w http.ResponseWriter, r *http.Request) {
	sched, ok := h.loadSchedule(w, r)
	if !ok {
		return
	}

	var req SetEnabledRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.schedules.SetEnabled(r.Context(), sched.ID, req.Enabled); HandleRepoError(w, h.logger, err, "schedule not found") {
		return
	}
	sched.Enabled = req.Enabled

	Success(w, ScheduleFromDomain(sched))
}

// --- Helpers ---

func (h *Handler) listSchedules(w http.ResponseWriter, r *http.Request, filter repo.ScheduleFilter) {
	schedules, err := h.schedules.List(r.Context(), filter)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]ScheduleResponse, len(schedules))
	for i := range schedules {
		result[i] = ScheduleFromDomain(&schedules[i])
	}
	List(w, result, len(result))
}

func (h *Handler) loadSchedule(w http.ResponseWriter, r *http.Request) (*domain.Schedule, bool) {
	id, ok := pathID(w, r, "schedule")
	if !ok {
		return nil, false
	}

	sched, err := h.schedules.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "schedule not found") {
		return nil, false
	}
	if sched.UserID != userFrom(r) {
		NotFound(w, "schedule not found")
		return nil, false
	}
	return sched, true
}
