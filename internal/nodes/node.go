package nodes

import (
	"context"
	"errors"

	"github.com/shaiso/Cogniflow/internal/domain"
	"github.com/shaiso/Cogniflow/internal/engine"
)

// Ошибки обработчиков узлов.
var (
	// ErrHandlerNotFound — тип узла не найден в реестре.
	ErrHandlerNotFound = errors.New("node handler not found")

	// ErrInvalidConfig — конфигурация узла не того типа.
	ErrInvalidConfig = errors.New("invalid node config")
)

// Handler — обработчик одного типа узла.
//
// Обработчик вычисляет выход узла и его преемников, но не трогает
// ни журнал, ни события, ни очередь: это делает executor по
// возвращённому Result. Ошибка Go из Execute означает
// инфраструктурный сбой — задание вернётся в очередь. Ошибки уровня
// ветки (плохая конфигурация, сбой LLM) выражаются через
// Result.Failure: ветка останавливается, задание подтверждается.
type Handler interface {
	// Type возвращает тип узла, который обрабатывает handler.
	Type() domain.NodeType

	// Execute выполняет узел в заданном контексте.
	Execute(ctx context.Context, node *domain.Node, ec *engine.ExecutionContext) (*Result, error)
}

// Result — результат выполнения узла.
type Result struct {
	// Output — выход узла. Становится входом преемников.
	Output map[string]any

	// Successors — ID узлов, которые нужно поставить в очередь.
	Successors []string

	// Status — статус для записи журнала.
	Status domain.LedgerStatus

	// LedgerOutput — выход для журнала, когда он шире Output
	// (ветки fork, сгенерированный workflow узла cognitive).
	// Nil — в журнал идёт Output.
	LedgerOutput map[string]any

	// Paused — узел приостановил ветку в ожидании решения человека.
	Paused bool

	// ApprovalMessage — сообщение запроса решения при Paused.
	ApprovalMessage string

	// ToolCalls — трассировка вызовов инструментов для журнала.
	ToolCalls []domain.ToolCallRecord
}

// Success создаёт успешный результат.
func Success(output map[string]any, successors []string) *Result {
	return &Result{
		Output:     output,
		Successors: successors,
		Status:     domain.LedgerStatusCompleted,
	}
}

// Failure создаёт результат ошибки уровня ветки: выполнение ветки
// останавливается, остальные ветки запуска продолжаются.
func Failure(input map[string]any, nodeType domain.NodeType, err error) *Result {
	return &Result{
		Output: map[string]any{
			"error":   err.Error(),
			"success": false,
			"reason":  "workflow execution failed in " + string(nodeType) + " node",
		},
		Status: domain.LedgerStatusFailed,
	}
}

// JournalOutput возвращает выход для записи журнала.
func (r *Result) JournalOutput() map[string]any {
	if r.LedgerOutput != nil {
		return r.LedgerOutput
	}
	return r.Output
}

// mergeInput копирует input и накладывает поверх extra.
func mergeInput(input map[string]any, extra map[string]any) map[string]any {
	merged := make(map[string]any, len(input)+len(extra))
	for k, v := range input {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}
