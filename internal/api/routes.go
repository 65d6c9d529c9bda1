package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	public := Chain(
		Recovery(h.logger),
		Logging(h.logger),
		Metrics(),
	)
	chain := Chain(public, RequireUser())

	// Components
	mux.Handle("GET /api/v1/components", public(http.HandlerFunc(h.ListComponents)))
	mux.Handle("GET /api/v1/components/categories", public(http.HandlerFunc(h.ListCategories)))

	// Flows
	mux.Handle("GET /api/v1/flows", chain(http.HandlerFunc(h.ListFlows)))
	mux.Handle("POST /api/v1/flows", chain(http.HandlerFunc(h.CreateFlow)))
	mux.Handle("GET /api/v1/flows/{id}", chain(http.HandlerFunc(h.GetFlow)))
	mux.Handle("PUT /api/v1/flows/{id}", chain(http.HandlerFunc(h.UpdateFlow)))
	mux.Handle("DELETE /api/v1/flows/{id}", chain(http.HandlerFunc(h.DeleteFlow)))

	// Executions
	mux.Handle("POST /api/v1/flows/{id}/run", chain(http.HandlerFunc(h.RunFlow)))
	mux.Handle("POST /api/v1/flows/{id}/executions", chain(http.HandlerFunc(h.CreateExecution)))
	mux.Handle("GET /api/v1/flows/{id}/executions", chain(http.HandlerFunc(h.ListFlowExecutions)))
	mux.Handle("GET /api/v1/executions/{id}", chain(http.HandlerFunc(h.GetExecution)))

	// Streaming (websocket)
	mux.Handle("GET /api/v1/flows/{id}/stream", chain(http.HandlerFunc(h.StreamFlow)))
	mux.Handle("GET /api/v1/executions/{id}/events", chain(http.HandlerFunc(h.FollowExecution)))

	// Variables
	mux.Handle("GET /api/v1/variables", chain(http.HandlerFunc(h.ListVariables)))
	mux.Handle("POST /api/v1/variables", chain(http.HandlerFunc(h.CreateVariable)))
	mux.Handle("GET /api/v1/variables/{id}", chain(http.HandlerFunc(h.GetVariable)))
	mux.Handle("PUT /api/v1/variables/{id}", chain(http.HandlerFunc(h.UpdateVariable)))
	mux.Handle("DELETE /api/v1/variables/{id}", chain(http.HandlerFunc(h.DeleteVariable)))

	// Schedules
	mux.Handle("GET /api/v1/schedules", chain(http.HandlerFunc(h.ListSchedules)))
	mux.Handle("GET /api/v1/flows/{id}/schedules", chain(http.HandlerFunc(h.ListFlowSchedules)))
	mux.Handle("POST /api/v1/flows/{id}/schedules", chain(http.HandlerFunc(h.CreateSchedule)))
	mux.Handle("DELETE /api/v1/schedules/{id}", chain(http.HandlerFunc(h.DeleteSchedule)))
	mux.Handle("PUT /api/v1/schedules/{id}/enabled", chain(http.HandlerFunc(h.SetScheduleEnabled)))
}
