package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Фронтенды живут на других origins; доступ ограничивается выше по стеку.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WorkflowEvents открывает websocket-подписку на живые события workflow.
// Соединение держится до отключения клиента; события приходят в том
// виде, в котором их публикует executor.
// GET /api/v1/workflows/{id}/events
func (h *Handler) WorkflowEvents(w http.ResponseWriter, r *http.Request) {
	workflowID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid workflow id")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам пишет ответ клиенту при отказе.
		h.logger.Warn("websocket upgrade failed", "workflow_id", workflowID, "error", err)
		return
	}

	h.logger.Info("websocket subscriber connected", "workflow_id", workflowID)
	h.hub.Subscribe(workflowID, conn)
	h.logger.Info("websocket subscriber disconnected", "workflow_id", workflowID)
}
