package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Cogniflow/internal/domain"
	"github.com/shaiso/Cogniflow/internal/mq"
)

const (
	defaultRunsLimit = 50
	maxRunsLimit     = 200
)

// CreateRun запускает workflow: создаёт run и ставит в очередь
// первый шаг с псевдонимом start_node.
// POST /api/v1/workflows/{id}/runs
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	workflowID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid workflow id")
		return
	}

	var req CreateRunRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			BadRequest(w, "invalid request body")
			return
		}
	}

	wf, err := h.workflowRepo.GetByID(r.Context(), workflowID)
	if HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}
	if wf.IsDeleted {
		NotFound(w, "workflow not found")
		return
	}
	if wf.StartNode() == nil {
		InvalidState(w, "workflow has no start node")
		return
	}

	now := time.Now().UTC()
	run := &domain.Run{
		ID:         uuid.New(),
		WorkflowID: wf.ID,
		UserID:     wf.UserID,
		Input:      req.Input,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := h.runRepo.Create(r.Context(), run); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	err = h.publisher.PublishStepReady(r.Context(), mq.StepJobPayload{
		WorkflowID: wf.ID,
		NodeID:     domain.StartNodeAlias,
		UserID:     run.UserID,
		RunID:      &run.ID,
		Input:      req.Input,
	})
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Created(w, RunFromDomain(*run))
}

// ListRuns возвращает запуски workflow, новые первыми.
// GET /api/v1/workflows/{id}/runs?limit=...&offset=...
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	workflowID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid workflow id")
		return
	}

	limit := defaultRunsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 1 || limit > maxRunsLimit {
			BadRequest(w, "invalid limit")
			return
		}
	}
	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		offset, err = strconv.Atoi(v)
		if err != nil || offset < 0 {
			BadRequest(w, "invalid offset")
			return
		}
	}

	runs, err := h.runRepo.ListByWorkflow(r.Context(), workflowID, limit, offset)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]RunResponse, len(runs))
	for i, run := range runs {
		result[i] = RunFromDomain(run)
	}

	List(w, result, len(result))
}

// GetRun возвращает run по ID.
// GET /api/v1/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	run, err := h.runRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "run not found") {
		return
	}

	Success(w, RunFromDomain(*run))
}

// ListRunLedger возвращает журнал запуска в порядке выполнения.
// GET /api/v1/runs/{id}/ledger
func (h *Handler) ListRunLedger(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	if _, err := h.runRepo.GetByID(r.Context(), id); HandleRepoError(w, h.logger, err, "run not found") {
		return
	}

	entries, err := h.ledgerRepo.ListByRun(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]LedgerEntryResponse, len(entries))
	for i, entry := range entries {
		result[i] = LedgerEntryFromDomain(entry)
	}

	List(w, result, len(result))
}

// SubmitApproval возобновляет приостановленный запуск: находит
// последнюю запись waiting_for_approval и повторно ставит узел
// в очередь с решением человека в input.
// POST /api/v1/runs/{id}/approval
func (h *Handler) SubmitApproval(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	var req ApprovalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.Decision == "" {
		BadRequest(w, "decision is required")
		return
	}

	run, err := h.runRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "run not found") {
		return
	}

	entry, err := h.ledgerRepo.LatestWaitingApproval(r.Context(), id)
	if err != nil {
		InvalidState(w, "run is not waiting for approval")
		return
	}

	input := make(map[string]any, len(entry.Input)+1)
	for k, v := range entry.Input {
		input[k] = v
	}
	input["user_decision"] = req.Decision

	err = h.publisher.PublishStepReady(r.Context(), mq.StepJobPayload{
		WorkflowID: run.WorkflowID,
		NodeID:     entry.NodeID,
		UserID:     run.UserID,
		RunID:      &run.ID,
		Input:      input,
	})
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Success(w, RunFromDomain(*run))
}
