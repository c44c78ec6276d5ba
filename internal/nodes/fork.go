package nodes

import (
	"context"

	"github.com/shaiso/Cogniflow/internal/domain"
	"github.com/shaiso/Cogniflow/internal/engine"
)

// ForkHandler — обработчик узла fork.
//
// Активирует все исходящие рёбра: каждая ветка получает копию входа
// и выполняется независимо. В журнал дополнительно пишутся список
// веток и их количество.
type ForkHandler struct{}

// NewForkHandler создаёт обработчик fork.
func NewForkHandler() *ForkHandler {
	return &ForkHandler{}
}

// Type возвращает тип узла.
func (h *ForkHandler) Type() domain.NodeType {
	return domain.NodeTypeFork
}

// Execute выполняет узел fork.
func (h *ForkHandler) Execute(ctx context.Context, node *domain.Node, ec *engine.ExecutionContext) (*Result, error) {
	output := mergeInput(ec.Input, nil)
	next := engine.NextNodes(ec.Workflow, node.ID, nil)

	result := Success(output, next)
	result.LedgerOutput = mergeInput(output, map[string]any{
		"branches":     next,
		"branch_count": len(next),
	})
	return result, nil
}
