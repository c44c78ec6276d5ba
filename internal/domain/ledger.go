package domain

import (
	"time"

	"github.com/google/uuid"
)

// LedgerStatus — статус записи журнала выполнения.
type LedgerStatus string

// Статусы записей журнала.
const (
	// LedgerStatusCompleted — узел выполнен успешно.
	LedgerStatusCompleted LedgerStatus = "completed"

	// LedgerStatusFailed — узел завершился ошибкой уровня ветки.
	LedgerStatusFailed LedgerStatus = "failed"

	// LedgerStatusWaitingApproval — узел user_approval ждёт решения человека.
	LedgerStatusWaitingApproval LedgerStatus = "waiting_for_approval"
)

// LedgerEntry — запись журнала выполнения (append-only).
//
// Журнал — единственный источник правды об истории запуска:
// по одной записи на выполненный узел, в порядке выполнения.
// Записи никогда не изменяются и не удаляются; повторное прохождение
// узла (например, после fork) добавляет новую запись.
type LedgerEntry struct {
	// ID — уникальный идентификатор записи.
	ID uuid.UUID `json:"id"`

	// RunID — запуск, к которому относится запись.
	RunID uuid.UUID `json:"run_id"`

	// WorkflowID — ID workflow.
	WorkflowID uuid.UUID `json:"workflow_id"`

	// NodeID — ID выполненного узла.
	NodeID string `json:"node_id"`

	// NodeType — тип выполненного узла.
	NodeType NodeType `json:"node_type"`

	// Status — статус выполнения узла.
	Status LedgerStatus `json:"status"`

	// Input — входные данные узла.
	Input map[string]any `json:"input,omitempty"`

	// Output — результат выполнения узла.
	Output map[string]any `json:"output,omitempty"`

	// ToolCalls — трассировка вызовов инструментов (для узлов agent).
	ToolCalls []ToolCallRecord `json:"tool_calls,omitempty"`

	// CreatedAt — время создания записи.
	CreatedAt time.Time `json:"created_at"`
}

// ToolCallRecord — один вызов инструмента в рамках выполнения узла agent.
type ToolCallRecord struct {
	// ToolName — имя вызванного инструмента.
	ToolName string `json:"tool_name"`

	// Arguments — аргументы вызова, как их передала модель.
	Arguments map[string]any `json:"arguments,omitempty"`

	// Result — текстовый результат вызова, возвращённый модели.
	Result string `json:"result,omitempty"`

	// Error — текст ошибки вызова, если инструмент завершился неудачно.
	Error string `json:"error,omitempty"`

	// CalledAt — время вызова.
	CalledAt time.Time `json:"called_at"`
}
