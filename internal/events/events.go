// Package events — события выполнения workflow для live-подписчиков.
//
// События публикуются в topic-обменник RabbitMQ с ключом
// workflow_events.<workflow_id>; relay в процессе API пересылает их
// в websocket-подписки по ID workflow. Публикация best-effort:
// недоставленное событие не влияет на выполнение.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Type — тип события выполнения.
type Type string

// Типы событий.
const (
	// TypeRunStarted — запуск начался (выполнен узел start).
	TypeRunStarted Type = "run_started"

	// TypeRunCompleted — ветка достигла узла end.
	TypeRunCompleted Type = "run_completed"

	// TypeRunError — запуск завершился ошибкой.
	TypeRunError Type = "run_error"

	// TypeNodeStarted — узел взят в работу.
	TypeNodeStarted Type = "node_started"

	// TypeNodeCompleted — узел выполнен успешно.
	TypeNodeCompleted Type = "node_completed"

	// TypeNodeError — узел завершился ошибкой уровня ветки.
	TypeNodeError Type = "node_error"

	// TypeApprovalNeeded — узел user_approval ждёт решения человека.
	TypeApprovalNeeded Type = "approval_needed"
)

// Event — одно событие выполнения.
type Event struct {
	// Type — тип события.
	Type Type `json:"type"`

	// WorkflowID — workflow, к которому относится событие.
	WorkflowID uuid.UUID `json:"workflow_id"`

	// RunID — запуск. Пуст для событий вне запуска.
	RunID *uuid.UUID `json:"run_id,omitempty"`

	// NodeID — узел, породивший событие.
	NodeID string `json:"node_id,omitempty"`

	// NodeType — тип узла.
	NodeType string `json:"node_type,omitempty"`

	// Message — человекочитаемое сообщение (запрос решения и т.п.).
	Message string `json:"message,omitempty"`

	// Error — текст ошибки для событий *_error.
	Error string `json:"error,omitempty"`

	// Output — выход узла для node_completed / run_completed.
	Output map[string]any `json:"output,omitempty"`

	// Timestamp — время события.
	Timestamp time.Time `json:"timestamp"`
}
