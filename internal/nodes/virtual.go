package nodes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/shaiso/Cogniflow/internal/domain"
	"github.com/shaiso/Cogniflow/internal/engine"
)

// VirtualRunner — последовательный исполнитель виртуальных workflow.
//
// В отличие от основного движка, где каждый узел — отдельное задание
// очереди, виртуальный workflow выполняется целиком внутри одного
// шага узла cognitive: узел за узлом, по первому подходящему ребру.
// Виртуальные шаги не попадают в журнал запуска.
type VirtualRunner struct {
	registry *Registry
	logger   *slog.Logger
}

// NewVirtualRunner создаёт исполнитель виртуальных workflow.
func NewVirtualRunner(registry *Registry, logger *slog.Logger) *VirtualRunner {
	return &VirtualRunner{registry: registry, logger: logger}
}

// Run выполняет виртуальный workflow и возвращает выход последнего узла.
func (r *VirtualRunner) Run(ctx context.Context, vw *engine.VirtualWorkflow, ec *engine.ExecutionContext) (map[string]any, error) {
	if len(vw.Nodes) == 0 {
		return nil, engine.ErrNoEntryNode
	}

	// Вход выбирается детерминированно; неоднозначность не фатальна.
	entries := vw.EntryNodes()
	current := &vw.Nodes[0]
	switch {
	case len(entries) == 0:
		r.logger.Warn("virtual workflow has no entry node, using the first declared",
			slog.String("entry_node", current.ID))
	case len(entries) > 1:
		r.logger.Warn("virtual workflow has multiple entry nodes, using the first",
			slog.Int("entry_count", len(entries)),
			slog.String("entry_node", entries[0].ID))
		current = entries[0]
	default:
		current = entries[0]
	}

	input := mergeInput(ec.Input, nil)
	output := input

	for step := 0; current != nil; step++ {
		if step >= engine.MaxVirtualSteps {
			return nil, engine.ErrStepLimitExceeded
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		node, err := buildVirtualNode(current)
		if err != nil {
			return nil, err
		}

		r.logger.Debug("virtual workflow step",
			slog.Int("step", step+1),
			slog.String("node_id", node.ID),
			slog.String("node_type", string(node.Type)))

		handler, err := r.registry.Get(node.Type)
		if err != nil {
			return nil, err
		}

		// RunID принудительно nil: виртуальные шаги не журналируются.
		stepCtx := engine.NewExecutionContext(virtualSnapshot(ec.Workflow, node), nil, ec.UserID, input)
		result, err := handler.Execute(ctx, node, stepCtx)
		if err != nil {
			return nil, err
		}

		output = result.Output
		outcome := virtualOutcome(node.Type, output)

		next := vw.NextVirtualNode(current.ID, outcome)
		if next == nil {
			break
		}
		current = next
		input = output
	}

	return output, nil
}

// virtualOutcome определяет исход ветвящегося узла по его выходу.
// Отсутствие поля трактуется как отрицательный исход: сбойный узел
// уходит по ветке false/fail.
func virtualOutcome(nodeType domain.NodeType, output map[string]any) any {
	switch nodeType {
	case domain.NodeTypeIfElse:
		condition, _ := output["condition"].(bool)
		return condition
	case domain.NodeTypeGuardrails:
		if result, ok := output["guardrail_result"].(string); ok && result != "" {
			return result
		}
		return "fail"
	default:
		return nil
	}
}

// buildVirtualNode превращает сгенерированный узел в доменный.
func buildVirtualNode(vn *engine.VirtualNode) (*domain.Node, error) {
	nodeType := vn.Type()

	config := make(map[string]any, len(vn.Data))
	for k, v := range vn.Data {
		if k == "type" {
			continue
		}
		config[k] = v
	}
	raw, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("marshal virtual node config %s: %w", vn.ID, err)
	}

	decoded, err := domain.DecodeNodeConfig(nodeType, raw)
	if err != nil {
		return nil, fmt.Errorf("virtual node %s: %w", vn.ID, err)
	}

	return &domain.Node{ID: vn.ID, Type: nodeType, Config: decoded}, nil
}

// virtualSnapshot — одноузловой снимок workflow для обработчика.
// Рёбер нет: преемников внутри виртуального workflow выбирает runner.
func virtualSnapshot(parent *domain.Workflow, node *domain.Node) *domain.Workflow {
	return &domain.Workflow{
		ID:     parent.ID,
		Name:   parent.Name,
		UserID: parent.UserID,
		Nodes:  map[string]*domain.Node{node.ID: node},
	}
}
