package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Cogniflow/internal/domain"
	"github.com/shaiso/Cogniflow/internal/scheduler"
)

// ListSchedules возвращает расписания пользователя.
// GET /api/v1/schedules?user_id=...
func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.URL.Query().Get("user_id"))
	if err != nil {
		BadRequest(w, "invalid user_id")
		return
	}

	schedules, err := h.scheduleRepo.List(r.Context(), userID)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]ScheduleResponse, len(schedules))
	for i, s := range schedules {
		result[i] = ScheduleFromDomain(s)
	}

	List(w, result, len(result))
}

// CreateSchedule создаёт расписание для workflow.
// POST /api/v1/workflows/{id}/schedules
func (h *Handler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	workflowID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid workflow id")
		return
	}

	var req CreateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if err := scheduler.ValidateCronExpr(req.CronExpr); err != nil {
		BadRequest(w, err.Error())
		return
	}

	wf, err := h.workflowRepo.GetByID(r.Context(), workflowID)
	if HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}
	if wf.IsDeleted {
		NotFound(w, "workflow not found")
		return
	}

	now := time.Now().UTC()
	schedule := &domain.Schedule{
		ID:         uuid.New(),
		WorkflowID: wf.ID,
		UserID:     wf.UserID,
		CronExpr:   req.CronExpr,
		Input:      req.Input,
		Enabled:    req.Enabled,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := h.scheduleRepo.Create(r.Context(), schedule); err != nil {
		if HandleRepoError(w, h.logger, err, "") {
			return
		}
		InternalError(w, h.logger, err)
		return
	}

	Created(w, ScheduleFromDomain(*schedule))
}

// GetSchedule возвращает расписание по ID.
// GET /api/v1/schedules/{id}
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid schedule id")
		return
	}

	schedule, err := h.scheduleRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "schedule not found") {
		return
	}

	Success(w, ScheduleFromDomain(*schedule))
}

// UpdateSchedule обновляет расписание. Scheduler подхватит изменения
// при следующей синхронизации с базой.
// PUT /api/v1/schedules/{id}
func (h *Handler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid schedule id")
		return
	}

	var req UpdateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	schedule, err := h.scheduleRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "schedule not found") {
		return
	}

	if req.CronExpr != nil {
		if err := scheduler.ValidateCronExpr(*req.CronExpr); err != nil {
			BadRequest(w, err.Error())
			return
		}
		schedule.CronExpr = *req.CronExpr
	}
	if req.Input != nil {
		schedule.Input = *req.Input
	}
	if req.Enabled != nil {
		schedule.Enabled = *req.Enabled
	}
	schedule.UpdatedAt = time.Now().UTC()

	if err := h.scheduleRepo.Update(r.Context(), schedule); err != nil {
		if HandleRepoError(w, h.logger, err, "schedule not found") {
			return
		}
		InternalError(w, h.logger, err)
		return
	}

	Success(w, ScheduleFromDomain(*schedule))
}

// DeleteSchedule удаляет расписание.
// DELETE /api/v1/schedules/{id}
func (h *Handler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid schedule id")
		return
	}

	if err := h.scheduleRepo.Delete(r.Context(), id); err != nil {
		if HandleRepoError(w, h.logger, err, "schedule not found") {
			return
		}
		InternalError(w, h.logger, err)
		return
	}

	NoContent(w)
}

// SetScheduleEnabled включает или выключает расписание.
// PUT /api/v1/schedules/{id}/enabled
func (h *Handler) SetScheduleEnabled(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid schedule id")
		return
	}

	var req SetEnabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if err := h.scheduleRepo.SetEnabled(r.Context(), id, req.Enabled); err != nil {
		if HandleRepoError(w, h.logger, err, "schedule not found") {
			return
		}
		InternalError(w, h.logger, err)
		return
	}

	schedule, err := h.scheduleRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "schedule not found") {
		return
	}

	Success(w, ScheduleFromDomain(*schedule))
}
