package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/shaiso/Cogniflow/internal/domain"
	"github.com/shaiso/Cogniflow/internal/engine"
)

// DefaultApprovalMessage — сообщение запроса решения по умолчанию.
const DefaultApprovalMessage = "Do you want to continue with this workflow?"

// положительные варианты решения (без учёта регистра)
var affirmativeDecisions = map[string]struct{}{
	"yes":      {},
	"approve":  {},
	"approved": {},
	"true":     {},
}

// ApprovalHandler — обработчик узла user_approval.
//
// Выполняется в две фазы. Без ключа user_decision во входе узел
// приостанавливает ветку: нулевые преемники, статус журнала
// waiting_for_approval, событие запроса решения. Повторная постановка
// узла в очередь с user_decision во входе возобновляет ветку по
// ребру "yes" или "no".
type ApprovalHandler struct{}

// NewApprovalHandler создаёт обработчик user_approval.
func NewApprovalHandler() *ApprovalHandler {
	return &ApprovalHandler{}
}

// Type возвращает тип узла.
func (h *ApprovalHandler) Type() domain.NodeType {
	return domain.NodeTypeUserApproval
}

// Execute выполняет узел user_approval.
func (h *ApprovalHandler) Execute(ctx context.Context, node *domain.Node, ec *engine.ExecutionContext) (*Result, error) {
	cfg, ok := node.Config.(domain.ApprovalConfig)
	if !ok {
		return nil, fmt.Errorf("%w: node %s is not user_approval", ErrInvalidConfig, node.ID)
	}

	message := cfg.Message
	if message == "" {
		message = DefaultApprovalMessage
	}

	decision, present := ec.Input["user_decision"]
	if !present || decision == nil {
		// Фаза паузы: решения нет, ветка останавливается до решения
		// человека.
		output := mergeInput(ec.Input, map[string]any{
			"status":  string(domain.LedgerStatusWaitingApproval),
			"message": message,
		})
		return &Result{
			Output: output,
			Status: domain.LedgerStatusWaitingApproval,
			LedgerOutput: map[string]any{
				"status":  string(domain.LedgerStatusWaitingApproval),
				"message": message,
			},
			Paused:          true,
			ApprovalMessage: message,
		}, nil
	}

	// Фаза возобновления: нормализуем решение до yes/no.
	normalized := NormalizeDecision(decision)
	output := mergeInput(ec.Input, map[string]any{
		"user_decision": normalized,
		"approved":      normalized == "yes",
		"status":        "completed",
	})

	next := engine.NextNodes(ec.Workflow, node.ID, normalized)
	return Success(output, next), nil
}

// NormalizeDecision приводит решение пользователя к "yes" или "no".
// Положительными считаются yes, approve, approved и true в любом
// регистре; всё остальное — "no".
func NormalizeDecision(decision any) string {
	s := strings.ToLower(strings.TrimSpace(engine.Stringify(decision)))
	if _, ok := affirmativeDecisions[s]; ok {
		return "yes"
	}
	return "no"
}
