package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Cogniflow/internal/domain"
)

// ListWorkflows возвращает список workflows пользователя.
// GET /api/v1/workflows?user_id=...
func (h *Handler) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.URL.Query().Get("user_id"))
	if err != nil {
		BadRequest(w, "invalid user_id")
		return
	}

	workflows, err := h.workflowRepo.List(r.Context(), userID)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]WorkflowResponse, len(workflows))
	for i := range workflows {
		result[i] = WorkflowFromDomain(&workflows[i])
	}

	List(w, result, len(result))
}

// CreateWorkflow создаёт новый workflow.
// POST /api/v1/workflows
func (h *Handler) CreateWorkflow(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if req.Name == "" {
		BadRequest(w, "name is required")
		return
	}
	if req.UserID == uuid.Nil {
		BadRequest(w, "user_id is required")
		return
	}

	nodes, err := decodeGraph(req.Nodes, req.Edges)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	now := time.Now().UTC()
	wf := &domain.Workflow{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		UserID:      req.UserID,
		Nodes:       nodes,
		Edges:       req.Edges,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.workflowRepo.Create(r.Context(), wf); err != nil {
		if HandleRepoError(w, h.logger, err, "") {
			return
		}
		InternalError(w, h.logger, err)
		return
	}

	Created(w, WorkflowFromDomain(wf))
}

// GetWorkflow возвращает workflow по ID.
// GET /api/v1/workflows/{id}
func (h *Handler) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid workflow id")
		return
	}

	wf, err := h.workflowRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}
	if wf.IsDeleted {
		NotFound(w, "workflow not found")
		return
	}

	Success(w, WorkflowFromDomain(wf))
}

// UpdateWorkflow обновляет workflow. Запущенные runs продолжают
// выполняться уже по новому графу: каждый шаг перечитывает workflow.
// PUT /api/v1/workflows/{id}
func (h *Handler) UpdateWorkflow(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid workflow id")
		return
	}

	var req UpdateWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	wf, err := h.workflowRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}
	if wf.IsDeleted {
		NotFound(w, "workflow not found")
		return
	}

	if req.Name != nil {
		wf.Name = *req.Name
	}
	if req.Description != nil {
		wf.Description = *req.Description
	}
	if req.Nodes != nil {
		edges := wf.Edges
		if req.Edges != nil {
			edges = *req.Edges
		}
		nodes, err := decodeGraph(*req.Nodes, edges)
		if err != nil {
			BadRequest(w, err.Error())
			return
		}
		wf.Nodes = nodes
		wf.Edges = edges
	} else if req.Edges != nil {
		for _, edge := range *req.Edges {
			if wf.Nodes[edge.Source] == nil || wf.Nodes[edge.Target] == nil {
				BadRequest(w, "edge references unknown node")
				return
			}
		}
		wf.Edges = *req.Edges
	}
	wf.UpdatedAt = time.Now().UTC()

	if err := h.workflowRepo.Update(r.Context(), wf); err != nil {
		if HandleRepoError(w, h.logger, err, "workflow not found") {
			return
		}
		InternalError(w, h.logger, err)
		return
	}

	Success(w, WorkflowFromDomain(wf))
}

// DeleteWorkflow мягко удаляет workflow. Уже поставленные в очередь
// шаги будут отброшены executor-ом при проверке IsDeleted.
// DELETE /api/v1/workflows/{id}
func (h *Handler) DeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid workflow id")
		return
	}

	if err := h.workflowRepo.SoftDelete(r.Context(), id, time.Now().UTC()); err != nil {
		if HandleRepoError(w, h.logger, err, "workflow not found") {
			return
		}
		InternalError(w, h.logger, err)
		return
	}

	NoContent(w)
}
