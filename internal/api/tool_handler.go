package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Cogniflow/internal/domain"
)

var allowedToolMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
}

// ListTools возвращает инструменты пользователя.
// GET /api/v1/tools?user_id=...
func (h *Handler) ListTools(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.URL.Query().Get("user_id"))
	if err != nil {
		BadRequest(w, "invalid user_id")
		return
	}

	tools, err := h.toolRepo.List(r.Context(), userID)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]ToolResponse, len(tools))
	for i, t := range tools {
		result[i] = ToolFromDomain(t)
	}

	List(w, result, len(result))
}

// CreateTool создаёт новый инструмент.
// POST /api/v1/tools
func (h *Handler) CreateTool(w http.ResponseWriter, r *http.Request) {
	var req CreateToolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if req.Name == "" {
		BadRequest(w, "name is required")
		return
	}
	if req.APIURL == "" {
		BadRequest(w, "api_url is required")
		return
	}
	if !allowedToolMethods[req.Method] {
		BadRequest(w, "method must be GET, POST, PUT or DELETE")
		return
	}
	if req.UserID == uuid.Nil {
		BadRequest(w, "user_id is required")
		return
	}

	now := time.Now().UTC()
	tool := &domain.Tool{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		APIURL:      req.APIURL,
		Method:      req.Method,
		Headers:     req.Headers,
		Parameters:  req.Parameters,
		UserID:      req.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.toolRepo.Create(r.Context(), tool); err != nil {
		if HandleRepoError(w, h.logger, err, "") {
			return
		}
		InternalError(w, h.logger, err)
		return
	}

	Created(w, ToolFromDomain(*tool))
}

// GetTool возвращает инструмент по ID.
// GET /api/v1/tools/{id}
func (h *Handler) GetTool(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid tool id")
		return
	}

	tool, err := h.toolRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "tool not found") {
		return
	}

	Success(w, ToolFromDomain(*tool))
}

// UpdateTool обновляет инструмент.
// PUT /api/v1/tools/{id}
func (h *Handler) UpdateTool(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid tool id")
		return
	}

	var req UpdateToolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	tool, err := h.toolRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "tool not found") {
		return
	}

	if req.Name != nil {
		tool.Name = *req.Name
	}
	if req.Description != nil {
		tool.Description = *req.Description
	}
	if req.APIURL != nil {
		tool.APIURL = *req.APIURL
	}
	if req.Method != nil {
		if !allowedToolMethods[*req.Method] {
			BadRequest(w, "method must be GET, POST, PUT or DELETE")
			return
		}
		tool.Method = *req.Method
	}
	if req.Headers != nil {
		tool.Headers = *req.Headers
	}
	if req.Parameters != nil {
		tool.Parameters = *req.Parameters
	}
	tool.UpdatedAt = time.Now().UTC()

	if err := h.toolRepo.Update(r.Context(), tool); err != nil {
		if HandleRepoError(w, h.logger, err, "tool not found") {
			return
		}
		InternalError(w, h.logger, err)
		return
	}

	Success(w, ToolFromDomain(*tool))
}

// DeleteTool удаляет инструмент. Узлы agent, ссылающиеся на него,
// при следующем выполнении просто не получат эту функцию.
// DELETE /api/v1/tools/{id}
func (h *Handler) DeleteTool(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid tool id")
		return
	}

	if err := h.toolRepo.Delete(r.Context(), id); err != nil {
		if HandleRepoError(w, h.logger, err, "tool not found") {
			return
		}
		InternalError(w, h.logger, err)
		return
	}

	NoContent(w)
}
