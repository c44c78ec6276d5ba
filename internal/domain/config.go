package domain

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// NodeConfig — маркерный интерфейс типизированных конфигураций узлов.
// Конкретный тип конфигурации определяется типом узла.
type NodeConfig interface {
	nodeConfig()
}

// StartConfig — конфигурация узла start. Полей нет.
type StartConfig struct{}

// EndConfig — конфигурация узла end. Полей нет.
type EndConfig struct{}

// IfElseConfig — конфигурация узла if_else.
//
// LHS и RHS могут содержать шаблонные подстановки вида {{input.field}}.
// Если обе стороны приводимы к числу, сравнение числовое,
// иначе — лексикографическое.
type IfElseConfig struct {
	// LHS — левый операнд сравнения.
	LHS string `json:"lhs"`

	// RHS — правый операнд сравнения.
	RHS string `json:"rhs"`

	// Operator — оператор сравнения: =, !=, <, >, <=, >=.
	Operator string `json:"operator"`
}

// ForkConfig — конфигурация узла fork. Полей нет.
type ForkConfig struct{}

// AgentConfig — конфигурация узла agent.
type AgentConfig struct {
	// SystemPrompt — системный промпт. Поддерживает шаблоны {{...}}.
	SystemPrompt string `json:"system_prompt"`

	// UserPrompt — пользовательский промпт. Поддерживает шаблоны {{...}}.
	UserPrompt string `json:"user_prompt"`

	// Model — имя модели LLM. Пустая строка — модель по умолчанию.
	Model string `json:"model,omitempty"`

	// Tools — ID инструментов, доступных модели.
	Tools []uuid.UUID `json:"tools,omitempty"`

	// StructuredOutput — требовать от модели ответ строго в JSON.
	StructuredOutput bool `json:"structured_output,omitempty"`

	// StructuredOutputSchema — описание ожидаемой JSON-схемы ответа,
	// добавляется к системному промпту при StructuredOutput.
	StructuredOutputSchema string `json:"structured_output_schema,omitempty"`
}

// GuardrailsConfig — конфигурация узла guardrails.
type GuardrailsConfig struct {
	// Guardrail — текстовое правило проверки. Поддерживает шаблоны {{...}}.
	Guardrail string `json:"guardrail"`
}

// ApprovalConfig — конфигурация узла user_approval.
type ApprovalConfig struct {
	// Message — сообщение, показываемое пользователю при запросе решения.
	Message string `json:"message,omitempty"`
}

// CognitiveConfig — конфигурация узла cognitive.
type CognitiveConfig struct {
	// Instruction — текстовая инструкция, из которой генерируется
	// виртуальный под-workflow. Поддерживает шаблоны {{...}}.
	Instruction string `json:"instruction"`
}

func (StartConfig) nodeConfig()      {}
func (EndConfig) nodeConfig()        {}
func (IfElseConfig) nodeConfig()     {}
func (ForkConfig) nodeConfig()       {}
func (AgentConfig) nodeConfig()      {}
func (GuardrailsConfig) nodeConfig() {}
func (ApprovalConfig) nodeConfig()   {}
func (CognitiveConfig) nodeConfig()  {}

// DecodeNodeConfig разбирает сырой JSON конфигурации в типизированную
// структуру по типу узла. Неизвестный тип узла — ошибка: граф с такими
// узлами отклоняется при загрузке, а не в момент выполнения.
func DecodeNodeConfig(nodeType NodeType, raw json.RawMessage) (NodeConfig, error) {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	switch nodeType {
	case NodeTypeStart:
		return StartConfig{}, nil
	case NodeTypeEnd:
		return EndConfig{}, nil
	case NodeTypeIfElse:
		var cfg IfElseConfig
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("decode if_else config: %w", err)
		}
		return cfg, nil
	case NodeTypeFork:
		return ForkConfig{}, nil
	case NodeTypeAgent:
		var cfg AgentConfig
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("decode agent config: %w", err)
		}
		return cfg, nil
	case NodeTypeGuardrails:
		var cfg GuardrailsConfig
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("decode guardrails config: %w", err)
		}
		return cfg, nil
	case NodeTypeUserApproval:
		var cfg ApprovalConfig
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("decode user_approval config: %w", err)
		}
		return cfg, nil
	case NodeTypeCognitive:
		var cfg CognitiveConfig
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("decode cognitive config: %w", err)
		}
		return cfg, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownNodeType, nodeType)
	}
}
