// Package llm — клиент чат-модели для узлов agent, guardrails и cognitive.
//
// Пакет скрывает конкретного провайдера за интерфейсом Completer:
// обработчики узлов собирают сообщения и описания инструментов,
// а адаптер транслирует их в API провайдера.
package llm

import "context"

// Роли сообщений чата.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message — одно сообщение диалога с моделью.
type Message struct {
	// Role — роль отправителя: system, user, assistant, tool.
	Role string `json:"role"`

	// Content — текст сообщения.
	Content string `json:"content"`

	// ToolCallID — ID вызова инструмента, на который отвечает
	// сообщение роли tool.
	ToolCallID string `json:"tool_call_id,omitempty"`

	// ToolCalls — вызовы инструментов, запрошенные ассистентом.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// ToolSpec — описание инструмента, передаваемое модели.
type ToolSpec struct {
	// Name — имя функции.
	Name string `json:"name"`

	// Description — описание назначения для модели.
	Description string `json:"description,omitempty"`

	// Parameters — JSON-схема параметров функции.
	Parameters map[string]any `json:"parameters,omitempty"`
}

// ToolCall — запрошенный моделью вызов инструмента.
type ToolCall struct {
	// ID — идентификатор вызова, нужен для ответного сообщения tool.
	ID string `json:"id"`

	// Name — имя вызываемой функции.
	Name string `json:"name"`

	// Arguments — аргументы вызова, сырой JSON.
	Arguments string `json:"arguments"`
}

// Request — запрос завершения чата.
type Request struct {
	// Model — имя модели. Пустая строка — модель по умолчанию.
	Model string

	// Messages — история диалога.
	Messages []Message

	// Tools — инструменты, доступные модели.
	Tools []ToolSpec
}

// Completion — ответ модели.
type Completion struct {
	// Content — текст ответа ассистента.
	Content string

	// ToolCalls — вызовы инструментов, если модель их запросила.
	ToolCalls []ToolCall
}

// Completer — клиент чат-модели.
type Completer interface {
	// Complete выполняет один запрос завершения чата.
	Complete(ctx context.Context, req Request) (*Completion, error)
}

// SystemMessage создаёт сообщение роли system.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage создаёт сообщение роли user.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// ToolMessage создаёт ответ инструмента на вызов toolCallID.
func ToolMessage(toolCallID, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: toolCallID}
}
