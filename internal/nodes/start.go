package nodes

import (
	"context"

	"github.com/shaiso/Cogniflow/internal/domain"
	"github.com/shaiso/Cogniflow/internal/engine"
)

// StartHandler — обработчик узла start.
//
// Передаёт вход запуска дальше без изменений и активирует
// все исходящие рёбра.
type StartHandler struct{}

// NewStartHandler создаёт обработчик start.
func NewStartHandler() *StartHandler {
	return &StartHandler{}
}

// Type возвращает тип узла.
func (h *StartHandler) Type() domain.NodeType {
	return domain.NodeTypeStart
}

// Execute выполняет узел start.
func (h *StartHandler) Execute(ctx context.Context, node *domain.Node, ec *engine.ExecutionContext) (*Result, error) {
	next := engine.NextNodes(ec.Workflow, node.ID, nil)
	return Success(ec.Input, next), nil
}
