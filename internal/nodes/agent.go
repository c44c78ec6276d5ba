package nodes

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Cogniflow/internal/domain"
	"github.com/shaiso/Cogniflow/internal/engine"
	"github.com/shaiso/Cogniflow/internal/llm"
	"github.com/shaiso/Cogniflow/internal/tools"
)

// ToolSource — доступ к инструментам по ID.
// Несуществующий инструмент — (nil, nil): узел agent его пропускает.
type ToolSource interface {
	GetTool(ctx context.Context, id uuid.UUID) (*domain.Tool, error)
}

// AgentHandler — обработчик узла agent.
//
// Собирает промпты с подстановками, отдаёт модели описания
// инструментов, выполняет запрошенные вызовы и возвращает модели их
// результаты вторым запросом. При structured_output ответ разбирается
// как JSON и вливается в выход; неразборчивый ответ деградирует
// в {message, parse_error} без остановки ветки.
type AgentHandler struct {
	completer llm.Completer
	source    ToolSource
	invoker   *tools.Invoker
}

// NewAgentHandler создаёт обработчик agent.
func NewAgentHandler(completer llm.Completer, source ToolSource, invoker *tools.Invoker) *AgentHandler {
	return &AgentHandler{
		completer: completer,
		source:    source,
		invoker:   invoker,
	}
}

// Type возвращает тип узла.
func (h *AgentHandler) Type() domain.NodeType {
	return domain.NodeTypeAgent
}

// Execute выполняет узел agent.
func (h *AgentHandler) Execute(ctx context.Context, node *domain.Node, ec *engine.ExecutionContext) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg, ok := node.Config.(domain.AgentConfig)
	if !ok {
		return nil, fmt.Errorf("%w: node %s is not agent", ErrInvalidConfig, node.ID)
	}

	data := ec.Data()
	systemPrompt, err := engine.SubstituteText(cfg.SystemPrompt, data)
	if err != nil {
		return Failure(ec.Input, node.Type, err), nil
	}
	userPrompt, err := engine.SubstituteText(cfg.UserPrompt, data)
	if err != nil {
		return Failure(ec.Input, node.Type, err), nil
	}

	if cfg.StructuredOutput && cfg.StructuredOutputSchema != "" {
		systemPrompt += "\n\nOutput format (**ONLY JSON**):\n```json\n" + cfg.StructuredOutputSchema + "\n```"
	}

	specs, toolsByName, err := h.loadTools(ctx, cfg.Tools)
	if err != nil {
		return nil, err
	}

	messages := []llm.Message{
		llm.SystemMessage(systemPrompt),
		llm.UserMessage(userPrompt),
	}

	completion, err := h.completer.Complete(ctx, llm.Request{
		Model:    cfg.Model,
		Messages: messages,
		Tools:    specs,
	})
	if err != nil {
		return Failure(ec.Input, node.Type, err), nil
	}

	var trace []domain.ToolCallRecord
	finalContent := completion.Content

	if len(completion.ToolCalls) > 0 {
		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   completion.Content,
			ToolCalls: completion.ToolCalls,
		})

		for _, call := range completion.ToolCalls {
			response, record := h.executeToolCall(ctx, call, toolsByName)
			trace = append(trace, record)
			messages = append(messages, llm.ToolMessage(call.ID, response))
		}

		// Второй запрос: модель видит результаты инструментов
		// и формирует итоговый ответ.
		completion, err = h.completer.Complete(ctx, llm.Request{
			Model:    cfg.Model,
			Messages: messages,
			Tools:    specs,
		})
		if err != nil {
			return Failure(ec.Input, node.Type, err), nil
		}
		finalContent = completion.Content
	}

	output := h.buildOutput(ec.Input, cfg, finalContent)
	next := engine.NextNodes(ec.Workflow, node.ID, nil)

	result := Success(output, next)
	result.ToolCalls = trace
	return result, nil
}

// loadTools загружает инструменты узла и строит их схемы для модели.
func (h *AgentHandler) loadTools(ctx context.Context, ids []uuid.UUID) ([]llm.ToolSpec, map[string]*domain.Tool, error) {
	if len(ids) == 0 || h.source == nil {
		return nil, nil, nil
	}

	var specs []llm.ToolSpec
	byName := make(map[string]*domain.Tool)
	for _, id := range ids {
		tool, err := h.source.GetTool(ctx, id)
		if err != nil {
			return nil, nil, fmt.Errorf("load tool %s: %w", id, err)
		}
		if tool == nil {
			continue
		}
		specs = append(specs, tools.ToolSpec(tool))
		byName[tool.Name] = tool
	}
	return specs, byName, nil
}

// executeToolCall выполняет один вызов инструмента и формирует запись
// трассировки. Любая неудача превращается в текст, который видит модель.
func (h *AgentHandler) executeToolCall(ctx context.Context, call llm.ToolCall, byName map[string]*domain.Tool) (string, domain.ToolCallRecord) {
	record := domain.ToolCallRecord{
		ToolName: call.Name,
		CalledAt: time.Now().UTC(),
	}

	var arguments map[string]any
	if err := json.Unmarshal([]byte(call.Arguments), &arguments); err != nil {
		response := fmt.Sprintf("Error: invalid tool arguments: %v", err)
		record.Error = response
		return response, record
	}
	record.Arguments = arguments

	tool, ok := byName[call.Name]
	if !ok {
		response := fmt.Sprintf("Error: Tool %s not found", call.Name)
		record.Error = response
		return response, record
	}

	response := h.invoker.Invoke(ctx, tool, arguments)
	record.Result = response
	return response, record
}

// buildOutput формирует выход узла из итогового ответа модели.
func (h *AgentHandler) buildOutput(input map[string]any, cfg domain.AgentConfig, content string) map[string]any {
	if cfg.StructuredOutput {
		parsed, err := llm.ParseJSONResponse(content)
		if err != nil {
			return mergeInput(input, map[string]any{
				"message":     content,
				"parse_error": err.Error(),
			})
		}
		return mergeInput(input, parsed)
	}
	return mergeInput(input, map[string]any{"message": content})
}
