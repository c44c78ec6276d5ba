package domain

import (
	"time"

	"github.com/google/uuid"
)

// StartNodeAlias — псевдоним, с которым внешний триггер ставит в очередь
// первый шаг. Раскрывается в реальный start-узел при загрузке workflow.
const StartNodeAlias = "start_node"

// Workflow — определение рабочего процесса.
//
// Workflow — это направленный граф из типизированных узлов (Node)
// и рёбер (Edge). Каждый запуск (Run) выполняет снимок графа
// по одному узлу за шаг через внешнюю очередь заданий.
type Workflow struct {
	// ID — уникальный идентификатор workflow.
	ID uuid.UUID `json:"id"`

	// Name — имя workflow.
	Name string `json:"name"`

	// Description — описание назначения workflow.
	Description string `json:"description,omitempty"`

	// UserID — владелец workflow.
	UserID uuid.UUID `json:"user_id"`

	// Nodes — узлы графа (nodeID → Node).
	Nodes map[string]*Node `json:"nodes"`

	// Edges — рёбра графа в порядке объявления.
	// Порядок значим: маршрутизация сохраняет его при выборе преемников.
	Edges []Edge `json:"edges"`

	// IsDeleted — флаг мягкого удаления.
	// Удалённые workflows не выполняются: executor проверяет флаг
	// перед каждым шагом.
	IsDeleted bool `json:"is_deleted"`

	// DeletedAt — время мягкого удаления.
	DeletedAt *time.Time `json:"deleted_at,omitempty"`

	// CreatedAt — время создания workflow.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего изменения.
	UpdatedAt time.Time `json:"updated_at"`
}

// Node возвращает узел по ID с раскрытием псевдонима start_node.
// Возвращает nil, если узел не найден.
func (w *Workflow) Node(nodeID string) *Node {
	if nodeID == StartNodeAlias {
		return w.StartNode()
	}
	return w.Nodes[nodeID]
}

// StartNode возвращает узел типа start.
// Возвращает nil, если start-узла нет.
func (w *Workflow) StartNode() *Node {
	for _, node := range w.Nodes {
		if node.Type == NodeTypeStart {
			return node
		}
	}
	return nil
}

// Node — узел графа workflow.
//
// Узел неизменяем в рамках одного запуска: executor работает
// со снимком графа, загруженным в начале шага.
type Node struct {
	// ID — идентификатор узла в рамках workflow.
	ID string `json:"id"`

	// Type — тип узла.
	Type NodeType `json:"type"`

	// Config — типизированная конфигурация узла.
	// Конкретный тип определяется Type (см. DecodeNodeConfig).
	Config NodeConfig `json:"config"`
}

// Edge — ребро графа workflow.
type Edge struct {
	// Source — ID узла-источника.
	Source string `json:"source"`

	// Target — ID узла-приёмника.
	Target string `json:"target"`

	// SourceHandle — метка исходящей ветки узла-источника.
	// Например: "true"/"false" для if_else, "pass"/"fail" для guardrails,
	// "yes"/"no" для user_approval. Nil — безусловное ребро.
	SourceHandle *string `json:"source_handle,omitempty"`

	// TargetHandle — метка входа узла-приёмника.
	// Маршрутизацией не используется, сохраняется для отображения.
	TargetHandle *string `json:"target_handle,omitempty"`
}
