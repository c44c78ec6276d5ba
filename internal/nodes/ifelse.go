package nodes

import (
	"context"
	"fmt"

	"github.com/shaiso/Cogniflow/internal/domain"
	"github.com/shaiso/Cogniflow/internal/engine"
)

// IfElseHandler — обработчик узла if_else.
//
// Разрешает шаблонные подстановки в операндах, сравнивает значения
// и направляет выполнение по ребру "true" или "false".
type IfElseHandler struct{}

// NewIfElseHandler создаёт обработчик if_else.
func NewIfElseHandler() *IfElseHandler {
	return &IfElseHandler{}
}

// Type возвращает тип узла.
func (h *IfElseHandler) Type() domain.NodeType {
	return domain.NodeTypeIfElse
}

// Execute выполняет узел if_else.
func (h *IfElseHandler) Execute(ctx context.Context, node *domain.Node, ec *engine.ExecutionContext) (*Result, error) {
	cfg, ok := node.Config.(domain.IfElseConfig)
	if !ok {
		return nil, fmt.Errorf("%w: node %s is not if_else", ErrInvalidConfig, node.ID)
	}

	data := ec.Data()

	lhsValue, err := engine.ResolveVariable(cfg.LHS, data)
	if err != nil {
		return Failure(ec.Input, node.Type, err), nil
	}
	rhsValue, err := engine.ResolveVariable(cfg.RHS, data)
	if err != nil {
		return Failure(ec.Input, node.Type, err), nil
	}

	condition, err := engine.EvaluateCondition(lhsValue, rhsValue, cfg.Operator)
	if err != nil {
		return Failure(ec.Input, node.Type, err), nil
	}

	output := mergeInput(ec.Input, map[string]any{
		"condition": condition,
		"lhs_value": lhsValue,
		"rhs_value": rhsValue,
		"operator":  cfg.Operator,
	})

	next := engine.NextNodes(ec.Workflow, node.ID, condition)
	return Success(output, next), nil
}
