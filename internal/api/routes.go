package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	// Workflows
	mux.Handle("GET /api/v1/workflows", chain(http.HandlerFunc(h.ListWorkflows)))
	mux.Handle("POST /api/v1/workflows", chain(http.HandlerFunc(h.CreateWorkflow)))
	mux.Handle("GET /api/v1/workflows/{id}", chain(http.HandlerFunc(h.GetWorkflow)))
	mux.Handle("PUT /api/v1/workflows/{id}", chain(http.HandlerFunc(h.UpdateWorkflow)))
	mux.Handle("DELETE /api/v1/workflows/{id}", chain(http.HandlerFunc(h.DeleteWorkflow)))

	// Runs
	mux.Handle("POST /api/v1/workflows/{id}/runs", chain(http.HandlerFunc(h.CreateRun)))
	mux.Handle("GET /api/v1/workflows/{id}/runs", chain(http.HandlerFunc(h.ListRuns)))
	mux.Handle("GET /api/v1/runs/{id}", chain(http.HandlerFunc(h.GetRun)))
	mux.Handle("GET /api/v1/runs/{id}/ledger", chain(http.HandlerFunc(h.ListRunLedger)))
	mux.Handle("POST /api/v1/runs/{id}/approval", chain(http.HandlerFunc(h.SubmitApproval)))

	// Tools
	mux.Handle("GET /api/v1/tools", chain(http.HandlerFunc(h.ListTools)))
	mux.Handle("POST /api/v1/tools", chain(http.HandlerFunc(h.CreateTool)))
	mux.Handle("GET /api/v1/tools/{id}", chain(http.HandlerFunc(h.GetTool)))
	mux.Handle("PUT /api/v1/tools/{id}", chain(http.HandlerFunc(h.UpdateTool)))
	mux.Handle("DELETE /api/v1/tools/{id}", chain(http.HandlerFunc(h.DeleteTool)))

	// Schedules
	mux.Handle("GET /api/v1/schedules", chain(http.HandlerFunc(h.ListSchedules)))
	mux.Handle("POST /api/v1/workflows/{id}/schedules", chain(http.HandlerFunc(h.CreateSchedule)))
	mux.Handle("GET /api/v1/schedules/{id}", chain(http.HandlerFunc(h.GetSchedule)))
	mux.Handle("PUT /api/v1/schedules/{id}", chain(http.HandlerFunc(h.UpdateSchedule)))
	mux.Handle("DELETE /api/v1/schedules/{id}", chain(http.HandlerFunc(h.DeleteSchedule)))
	mux.Handle("PUT /api/v1/schedules/{id}/enabled", chain(http.HandlerFunc(h.SetScheduleEnabled)))

	// Events (websocket). Logging-обёртка прячет http.Hijacker,
	// нужный для Upgrade, поэтому маршрут идёт только через Recovery.
	mux.Handle("GET /api/v1/workflows/{id}/events", Recovery(h.logger)(http.HandlerFunc(h.WorkflowEvents)))
}
