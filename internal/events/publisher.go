package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Cogniflow/internal/mq"
)

// Publisher публикует события выполнения в обменник событий.
//
// Все методы Emit* — best-effort: сбой публикации логируется
// и проглатывается, выполнение workflow от него не зависит.
type Publisher struct {
	mq     *mq.Publisher
	logger *slog.Logger
}

// NewPublisher создаёт публикатор событий.
func NewPublisher(publisher *mq.Publisher, logger *slog.Logger) *Publisher {
	return &Publisher{mq: publisher, logger: logger}
}

// Emit публикует событие. Штамп времени проставляется здесь.
func (p *Publisher) Emit(ctx context.Context, ev Event) {
	ev.Timestamp = time.Now().UTC()

	if err := p.mq.PublishWorkflowEvent(ctx, ev.WorkflowID, ev); err != nil {
		p.logger.Warn("failed to publish workflow event",
			"type", ev.Type,
			"workflow_id", ev.WorkflowID,
			"node_id", ev.NodeID,
			"error", err,
		)
	}
}

// EmitRunStarted — запуск начался.
func (p *Publisher) EmitRunStarted(ctx context.Context, workflowID uuid.UUID, runID *uuid.UUID) {
	p.Emit(ctx, Event{Type: TypeRunStarted, WorkflowID: workflowID, RunID: runID})
}

// EmitRunCompleted — ветка достигла узла end.
func (p *Publisher) EmitRunCompleted(ctx context.Context, workflowID uuid.UUID, runID *uuid.UUID, output map[string]any) {
	p.Emit(ctx, Event{Type: TypeRunCompleted, WorkflowID: workflowID, RunID: runID, Output: output})
}

// EmitRunError — запуск завершился ошибкой.
func (p *Publisher) EmitRunError(ctx context.Context, workflowID uuid.UUID, runID *uuid.UUID, errText string) {
	p.Emit(ctx, Event{Type: TypeRunError, WorkflowID: workflowID, RunID: runID, Error: errText})
}

// EmitNodeStarted — узел взят в работу.
func (p *Publisher) EmitNodeStarted(ctx context.Context, workflowID uuid.UUID, runID *uuid.UUID, nodeID, nodeType string) {
	p.Emit(ctx, Event{Type: TypeNodeStarted, WorkflowID: workflowID, RunID: runID, NodeID: nodeID, NodeType: nodeType})
}

// EmitNodeCompleted — узел выполнен успешно.
func (p *Publisher) EmitNodeCompleted(ctx context.Context, workflowID uuid.UUID, runID *uuid.UUID, nodeID, nodeType string, output map[string]any) {
	p.Emit(ctx, Event{Type: TypeNodeCompleted, WorkflowID: workflowID, RunID: runID, NodeID: nodeID, NodeType: nodeType, Output: output})
}

// EmitNodeError — узел завершился ошибкой уровня ветки.
func (p *Publisher) EmitNodeError(ctx context.Context, workflowID uuid.UUID, runID *uuid.UUID, nodeID, nodeType, errText string) {
	p.Emit(ctx, Event{Type: TypeNodeError, WorkflowID: workflowID, RunID: runID, NodeID: nodeID, NodeType: nodeType, Error: errText})
}

// EmitApprovalNeeded — узел user_approval ждёт решения.
func (p *Publisher) EmitApprovalNeeded(ctx context.Context, workflowID uuid.UUID, runID *uuid.UUID, nodeID, message string) {
	p.Emit(ctx, Event{
		Type:       TypeApprovalNeeded,
		WorkflowID: workflowID,
		RunID:      runID,
		NodeID:     nodeID,
		NodeType:   "user_approval",
		Message:    message,
	})
}
