package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Cogniflow/internal/domain"
	"github.com/shaiso/Cogniflow/internal/engine"
	"github.com/shaiso/Cogniflow/internal/mq"
	"github.com/shaiso/Cogniflow/internal/nodes"
	"github.com/shaiso/Cogniflow/internal/repo"
	"github.com/shaiso/Cogniflow/internal/telemetry"
)

// WorkflowStore загружает снимок workflow для шага.
type WorkflowStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Workflow, error)
}

// RunStore создаёт запуски, отмечает их активность и фиксирует
// финальный выход.
type RunStore interface {
	Create(ctx context.Context, run *domain.Run) error
	SetOutput(ctx context.Context, id uuid.UUID, output map[string]any) error
	Touch(ctx context.Context, id uuid.UUID) error
}

// LedgerStore добавляет записи в журнал выполнения.
type LedgerStore interface {
	Append(ctx context.Context, entry *domain.LedgerEntry) error
}

// StepQueue ставит step-задания в очередь.
type StepQueue interface {
	PublishStepReady(ctx context.Context, payload mq.StepJobPayload) error
}

// EventSink публикует события выполнения. Реализации best-effort:
// сбой публикации не должен останавливать шаг.
type EventSink interface {
	EmitRunStarted(ctx context.Context, workflowID uuid.UUID, runID *uuid.UUID)
	EmitRunCompleted(ctx context.Context, workflowID uuid.UUID, runID *uuid.UUID, output map[string]any)
	EmitRunError(ctx context.Context, workflowID uuid.UUID, runID *uuid.UUID, errText string)
	EmitNodeStarted(ctx context.Context, workflowID uuid.UUID, runID *uuid.UUID, nodeID, nodeType string)
	EmitNodeCompleted(ctx context.Context, workflowID uuid.UUID, runID *uuid.UUID, nodeID, nodeType string, output map[string]any)
	EmitNodeError(ctx context.Context, workflowID uuid.UUID, runID *uuid.UUID, nodeID, nodeType, errText string)
	EmitApprovalNeeded(ctx context.Context, workflowID uuid.UUID, runID *uuid.UUID, nodeID, message string)
}

// Executor выполняет один шаг workflow.
//
// Обработчики узлов чистые: вся инфраструктура шага — журнал,
// события, постановка преемников — сосредоточена здесь.
type Executor struct {
	workflows WorkflowStore
	runs      RunStore
	ledger    LedgerStore
	queue     StepQueue
	events    EventSink
	registry  *nodes.Registry
	logger    *slog.Logger
}

// ExecutorConfig — зависимости Executor.
type ExecutorConfig struct {
	Workflows WorkflowStore
	Runs      RunStore
	Ledger    LedgerStore
	Queue     StepQueue
	Events    EventSink
	Registry  *nodes.Registry
	Logger    *slog.Logger
}

// NewExecutor создаёт новый Executor.
func NewExecutor(cfg ExecutorConfig) *Executor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		workflows: cfg.Workflows,
		runs:      cfg.Runs,
		ledger:    cfg.Ledger,
		queue:     cfg.Queue,
		events:    cfg.Events,
		registry:  cfg.Registry,
		logger:    logger,
	}
}

// ExecuteStep выполняет один шаг по заданию из очереди.
//
// Возвращаемая ошибка означает инфраструктурный сбой: задание
// должно вернуться в очередь. Ошибки уровня ветки записываются
// в журнал со статусом failed и ошибкой не являются.
// Ошибки ErrWorkflowNotFound, ErrNodeNotFound и ErrWorkflowDeleted
// помечают устаревшее задание — его нужно подтвердить и отбросить.
func (e *Executor) ExecuteStep(ctx context.Context, payload mq.StepJobPayload) error {
	wf, err := e.workflows.GetByID(ctx, payload.WorkflowID)
	if errors.Is(err, repo.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrWorkflowNotFound, payload.WorkflowID)
	}
	if err != nil {
		return fmt.Errorf("get workflow: %w", err)
	}
	if wf.IsDeleted {
		return fmt.Errorf("%w: %s", domain.ErrWorkflowDeleted, wf.ID)
	}

	node := wf.Node(payload.NodeID)
	if node == nil {
		return fmt.Errorf("%w: %q in workflow %s", ErrNodeNotFound, payload.NodeID, wf.ID)
	}

	logger := e.logger.With(
		"workflow_id", wf.ID,
		"node_id", node.ID,
		"node_type", node.Type,
	)
	if payload.RunID != nil {
		logger = logger.With("run_id", *payload.RunID)
	}

	// Запуск начинается с start-узла. Задание без run_id на входном
	// узле — триггер верхнего уровня: Run создаётся здесь, ровно один
	// раз на запуск.
	if node.Type == domain.NodeTypeStart {
		if payload.RunID == nil {
			run, err := e.createRun(ctx, wf, payload)
			if err != nil {
				return err
			}
			payload.RunID = &run.ID
			logger = logger.With("run_id", run.ID)
		}
		e.events.EmitRunStarted(ctx, wf.ID, payload.RunID)
	}

	e.events.EmitNodeStarted(ctx, wf.ID, payload.RunID, node.ID, string(node.Type))

	// end-узел терминален: обработчика у него нет
	if node.Type == domain.NodeTypeEnd {
		return e.finishRun(ctx, logger, payload, wf, node)
	}

	handler, err := e.registry.Get(node.Type)
	if err != nil {
		// Неизвестный тип отклоняется при загрузке графа; сюда
		// попадает только рассинхронизация реестра с доменом
		return fmt.Errorf("node %s: %w", node.ID, err)
	}

	ec := engine.NewExecutionContext(wf, payload.RunID, payload.UserID, payload.Input)

	logger.Info("step started")
	started := time.Now()

	result, err := handler.Execute(ctx, node, ec)
	telemetry.StepDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		e.events.EmitNodeError(ctx, wf.ID, payload.RunID, node.ID, string(node.Type), err.Error())
		return fmt.Errorf("execute node %s: %w", node.ID, err)
	}

	telemetry.StepsTotal.WithLabelValues(string(node.Type), string(result.Status)).Inc()

	if err := e.journal(ctx, logger, payload, wf, node, result.Status, result.JournalOutput(), result.ToolCalls); err != nil {
		return err
	}

	switch {
	case result.Paused:
		e.events.EmitApprovalNeeded(ctx, wf.ID, payload.RunID, node.ID, result.ApprovalMessage)
		logger.Info("step paused, waiting for approval")

	case result.Status == domain.LedgerStatusFailed:
		errText, _ := result.Output["error"].(string)
		e.events.EmitNodeError(ctx, wf.ID, payload.RunID, node.ID, string(node.Type), errText)
		e.events.EmitRunError(ctx, wf.ID, payload.RunID, errText)
		logger.Warn("step failed", "error", errText)

	default:
		e.events.EmitNodeCompleted(ctx, wf.ID, payload.RunID, node.ID, string(node.Type), result.Output)
	}

	for _, successor := range result.Successors {
		job := mq.StepJobPayload{
			WorkflowID: wf.ID,
			NodeID:     successor,
			UserID:     payload.UserID,
			RunID:      payload.RunID,
			Input:      result.Output,
		}
		if err := e.queue.PublishStepReady(ctx, job); err != nil {
			return fmt.Errorf("enqueue node %s: %w", successor, err)
		}
	}

	logger.Info("step completed",
		"status", result.Status,
		"successors", len(result.Successors),
	)
	return nil
}

// createRun создаёт запись Run для триггера верхнего уровня.
// Виртуальные шаги сюда не попадают: они выполняются внутри
// cognitive-узла и в очередь не ставятся.
func (e *Executor) createRun(ctx context.Context, wf *domain.Workflow, payload mq.StepJobPayload) (*domain.Run, error) {
	now := time.Now().UTC()
	run := &domain.Run{
		ID:         uuid.New(),
		WorkflowID: wf.ID,
		UserID:     payload.UserID,
		Input:      payload.Input,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := e.runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	return run, nil
}

// finishRun обрабатывает терминальный end-узел: вход шага становится
// финальным выходом запуска. Выход пишется до журнала, чтобы повтор
// задания после сбоя перезаписал его идемпотентно.
func (e *Executor) finishRun(ctx context.Context, logger *slog.Logger, payload mq.StepJobPayload, wf *domain.Workflow, node *domain.Node) error {
	telemetry.StepsTotal.WithLabelValues(string(node.Type), string(domain.LedgerStatusCompleted)).Inc()

	if payload.RunID != nil {
		if err := e.runs.SetOutput(ctx, *payload.RunID, payload.Input); err != nil {
			return fmt.Errorf("set run output: %w", err)
		}
	}

	if err := e.journal(ctx, logger, payload, wf, node, domain.LedgerStatusCompleted, payload.Input, nil); err != nil {
		return err
	}

	e.events.EmitNodeCompleted(ctx, wf.ID, payload.RunID, node.ID, string(node.Type), payload.Input)
	e.events.EmitRunCompleted(ctx, wf.ID, payload.RunID, payload.Input)

	logger.Info("run branch completed")
	return nil
}

// journal добавляет запись шага в журнал выполнения.
// Шаги без RunID (выполнение вне запуска) в журнал не попадают.
func (e *Executor) journal(ctx context.Context, logger *slog.Logger, payload mq.StepJobPayload, wf *domain.Workflow, node *domain.Node, status domain.LedgerStatus, output map[string]any, toolCalls []domain.ToolCallRecord) error {
	if payload.RunID == nil {
		return nil
	}

	entry := &domain.LedgerEntry{
		ID:         uuid.New(),
		RunID:      *payload.RunID,
		WorkflowID: wf.ID,
		NodeID:     node.ID,
		NodeType:   node.Type,
		Status:     status,
		Input:      payload.Input,
		Output:     output,
		ToolCalls:  toolCalls,
		CreatedAt:  time.Now().UTC(),
	}
	if err := e.ledger.Append(ctx, entry); err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}

	if err := e.runs.Touch(ctx, *payload.RunID); err != nil {
		logger.Warn("failed to touch run", "error", err)
	}
	return nil
}
