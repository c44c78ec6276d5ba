package engine

import (
	"encoding/json"
	"fmt"

	"github.com/shaiso/Cogniflow/internal/domain"
)

// Лимиты виртуальных workflow.
const (
	// MaxVirtualNodes — максимум узлов в сгенерированном workflow.
	MaxVirtualNodes = 20

	// MaxVirtualSteps — жёсткий предел шагов последовательного
	// выполнения. Защита от зацикливания, пропущенного валидацией.
	MaxVirtualSteps = 50
)

// virtualNodeTypes — типы узлов, разрешённые в виртуальных workflow.
var virtualNodeTypes = map[domain.NodeType]struct{}{
	domain.NodeTypeAgent:      {},
	domain.NodeTypeIfElse:     {},
	domain.NodeTypeGuardrails: {},
}

// VirtualWorkflow — под-workflow, сгенерированный LLM в узле cognitive.
//
// Виртуальный workflow существует только в памяти на время шага:
// он не сохраняется в БД, его узлы не попадают в журнал запуска.
type VirtualWorkflow struct {
	// Nodes — узлы в порядке генерации.
	Nodes []VirtualNode `json:"nodes"`

	// Edges — рёбра в порядке генерации.
	Edges []VirtualEdge `json:"edges"`

	// Reasoning — обоснование структуры, данное моделью.
	Reasoning string `json:"reasoning,omitempty"`
}

// VirtualNode — узел виртуального workflow.
// Тип узла лежит внутри Data под ключом "type".
type VirtualNode struct {
	// ID — идентификатор узла (UUID, сгенерированный моделью).
	ID string `json:"id"`

	// Name — человекочитаемое имя узла.
	Name string `json:"name,omitempty"`

	// Data — конфигурация узла, включая поле "type".
	Data map[string]any `json:"data"`
}

// Type возвращает тип узла из Data.
func (n *VirtualNode) Type() domain.NodeType {
	t, _ := n.Data["type"].(string)
	return domain.NodeType(t)
}

// VirtualEdge — ребро виртуального workflow.
type VirtualEdge struct {
	Source       string  `json:"source"`
	Target       string  `json:"target"`
	SourceHandle *string `json:"source_handle,omitempty"`
	TargetHandle *string `json:"target_handle,omitempty"`
}

// ParseVirtualWorkflow разбирает JSON сгенерированного workflow.
// Отсутствие ключей nodes или edges — ошибка, даже если второй есть.
func ParseVirtualWorkflow(raw []byte) (*VirtualWorkflow, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("parse virtual workflow: %w", err)
	}
	if _, ok := probe["nodes"]; !ok {
		return nil, ErrMissingNodes
	}
	if _, ok := probe["edges"]; !ok {
		return nil, ErrMissingEdges
	}

	var vw VirtualWorkflow
	if err := json.Unmarshal(raw, &vw); err != nil {
		return nil, fmt.Errorf("parse virtual workflow: %w", err)
	}
	return &vw, nil
}

// Validate проверяет структуру виртуального workflow перед выполнением:
// лимит узлов, обязательные поля, разрешённые типы, существование
// концов рёбер и ацикличность.
func (vw *VirtualWorkflow) Validate() error {
	if len(vw.Nodes) == 0 {
		return ErrMissingNodes
	}
	if len(vw.Nodes) > MaxVirtualNodes {
		return fmt.Errorf("%w: %d (max %d)", ErrTooManyNodes, len(vw.Nodes), MaxVirtualNodes)
	}

	nodeIDs := make(map[string]struct{}, len(vw.Nodes))
	for i := range vw.Nodes {
		node := &vw.Nodes[i]
		if node.ID == "" {
			return ErrEmptyNodeID
		}
		if node.Data == nil {
			return NewValidationError(node.ID, "data", "node has no config data", ErrMissingNodeData)
		}
		nodeType := node.Type()
		if nodeType == "" {
			return NewValidationError(node.ID, "data.type", "node has no type", ErrDisallowedNodeType)
		}
		if _, ok := virtualNodeTypes[nodeType]; !ok {
			return NewValidationError(node.ID, "data.type",
				fmt.Sprintf("type %q is not allowed in a virtual workflow", nodeType), ErrDisallowedNodeType)
		}
		nodeIDs[node.ID] = struct{}{}
	}

	for _, edge := range vw.Edges {
		if _, ok := nodeIDs[edge.Source]; !ok {
			return fmt.Errorf("%w: source %q", ErrUnknownEdgeEndpoint, edge.Source)
		}
		if _, ok := nodeIDs[edge.Target]; !ok {
			return fmt.Errorf("%w: target %q", ErrUnknownEdgeEndpoint, edge.Target)
		}
	}

	return vw.checkAcyclic()
}

// checkAcyclic ищет цикл обходом в глубину со стеком рекурсии.
// В ошибке указывается узел, на котором цикл обнаружен.
func (vw *VirtualWorkflow) checkAcyclic() error {
	adj := make(map[string][]string, len(vw.Nodes))
	for _, edge := range vw.Edges {
		adj[edge.Source] = append(adj[edge.Source], edge.Target)
	}

	visited := make(map[string]bool, len(vw.Nodes))
	onStack := make(map[string]bool, len(vw.Nodes))

	var visit func(id string) (string, bool)
	visit = func(id string) (string, bool) {
		visited[id] = true
		onStack[id] = true
		for _, next := range adj[id] {
			if !visited[next] {
				if at, found := visit(next); found {
					return at, true
				}
			} else if onStack[next] {
				return next, true
			}
		}
		onStack[id] = false
		return "", false
	}

	for i := range vw.Nodes {
		id := vw.Nodes[i].ID
		if !visited[id] {
			if at, found := visit(id); found {
				return fmt.Errorf("%w: detected at node %q", ErrCyclicWorkflow, at)
			}
		}
	}
	return nil
}

// EntryNodes возвращает узлы без входящих рёбер в порядке объявления.
func (vw *VirtualWorkflow) EntryNodes() []*VirtualNode {
	hasIncoming := make(map[string]struct{}, len(vw.Edges))
	for _, edge := range vw.Edges {
		hasIncoming[edge.Target] = struct{}{}
	}

	var entries []*VirtualNode
	for i := range vw.Nodes {
		if _, ok := hasIncoming[vw.Nodes[i].ID]; !ok {
			entries = append(entries, &vw.Nodes[i])
		}
	}
	return entries
}

// Node возвращает узел по ID или nil.
func (vw *VirtualWorkflow) Node(id string) *VirtualNode {
	for i := range vw.Nodes {
		if vw.Nodes[i].ID == id {
			return &vw.Nodes[i]
		}
	}
	return nil
}

// NextVirtualNode возвращает первого преемника узла по исходу.
// Исход nil означает любое ребро; заданный исход требует совпадения
// нормализованного source_handle. Nil — преемников нет.
func (vw *VirtualWorkflow) NextVirtualNode(nodeID string, outcome any) *VirtualNode {
	var norm *string
	if outcome != nil {
		n := NormalizeOutcome(outcome)
		norm = &n
	}

	for _, edge := range vw.Edges {
		if edge.Source != nodeID {
			continue
		}
		if norm == nil {
			return vw.Node(edge.Target)
		}
		if edge.SourceHandle != nil && NormalizeOutcome(*edge.SourceHandle) == *norm {
			return vw.Node(edge.Target)
		}
	}
	return nil
}
