package nodes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shaiso/Cogniflow/internal/domain"
	"github.com/shaiso/Cogniflow/internal/engine"
	"github.com/shaiso/Cogniflow/internal/llm"
)

// cognitiveSystemPrompt — системный промпт генерации workflow.
// Схемы узлов повторяют доменные конфигурации; source handles обязаны
// покрывать все ветки.
const cognitiveSystemPrompt = `# Role
You are a professional workflow manager. Your job is to assemble a directed graph (nodes + edges) that executes a coherent flow.

# Objective
Given:
1) input_object
2) a list of available node templates (with names, types, and use-cases)

Produce a valid workflow JSON with instantiated nodes (new UUIDv4 ids) and edges that define execution order and branching.

The last nodes response would automatically be the output for the workflow

# Node Types & Schemas (exact keys)

## Agent Node
{
  "type": "agent",
  "description": "<what the agent does>",
  "user_prompt": "<user prompt>",
  "system_prompt": "<system prompt>",
  "structured_output": <boolean>,
  "structured_output_schema": "<JSON schema string when structured_output=true, else empty string>"
}
Source handles: None

## Guardrails
{
  "type": "guardrails",
  "guardrail": "<check to perform>",
  "description": "<what is being validated>"
}
Source handles: "pass", "fail"

## If/Else
{
  "type": "if_else",
  "lhs": "<string>",
  "rhs": "<string>",
  "operator": "<= | >= | < | > | = | !=",
  "description": "<what is being compared>"
}
Source handles: "true", "false"

# Source Handle Rules (must cover all branches)
- Guardrails: both "pass" and "fail" must be wired.
- If/Else: both "true" and "false" must be wired.
- Agent Node: None

# Output Format (strict)
Return ONLY:
{
  "nodes": [
    {
      "id": "<uuid-v4>",
      "name": "<node name>",
      "data": { ...node schema... }
    }
  ],
  "edges": [
    {
      "source": "<uuid-v4>",
      "target": "<uuid-v4>",
      "source_handle": "<handle string or null>",
      "target_handle": null
    }
  ],
  "reasoning": "<str, reasoning for the workflow decision>"
}`

// CognitiveHandler — обработчик узла cognitive.
//
// Генерирует виртуальный workflow из текстовой инструкции, проверяет
// его структуру и выполняет последовательно внутри текущего шага.
// Выход последнего виртуального узла становится выходом узла cognitive.
type CognitiveHandler struct {
	completer llm.Completer
	runner    *VirtualRunner
}

// NewCognitiveHandler создаёт обработчик cognitive.
func NewCognitiveHandler(completer llm.Completer, runner *VirtualRunner) *CognitiveHandler {
	return &CognitiveHandler{completer: completer, runner: runner}
}

// Type возвращает тип узла.
func (h *CognitiveHandler) Type() domain.NodeType {
	return domain.NodeTypeCognitive
}

// Execute выполняет узел cognitive.
func (h *CognitiveHandler) Execute(ctx context.Context, node *domain.Node, ec *engine.ExecutionContext) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg, ok := node.Config.(domain.CognitiveConfig)
	if !ok {
		return nil, fmt.Errorf("%w: node %s is not cognitive", ErrInvalidConfig, node.ID)
	}
	if cfg.Instruction == "" {
		return Failure(ec.Input, node.Type, errors.New("cognitive node requires an instruction")), nil
	}

	instruction, err := engine.SubstituteText(cfg.Instruction, ec.Data())
	if err != nil {
		return Failure(ec.Input, node.Type, err), nil
	}

	vw, err := h.generateWorkflow(ctx, instruction, ec.Input)
	if err != nil {
		return Failure(ec.Input, node.Type, err), nil
	}

	finalOutput, err := h.runner.Run(ctx, vw, ec)
	if err != nil {
		return Failure(ec.Input, node.Type, err), nil
	}

	output := mergeInput(finalOutput, map[string]any{
		"cognitive_reasoning": vw.Reasoning,
		"generated_workflow": map[string]any{
			"node_count": len(vw.Nodes),
			"edge_count": len(vw.Edges),
		},
	})

	next := engine.NextNodes(ec.Workflow, node.ID, nil)

	result := Success(output, next)
	// Сгенерированный граф сохраняется целиком в журнале для разбора.
	result.LedgerOutput = mergeInput(output, map[string]any{
		"virtual_workflow": vw,
	})
	return result, nil
}

// generateWorkflow запрашивает у модели виртуальный workflow
// и проверяет его структуру.
func (h *CognitiveHandler) generateWorkflow(ctx context.Context, instruction string, input map[string]any) (*engine.VirtualWorkflow, error) {
	inputJSON, err := json.MarshalIndent(input, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal input: %w", err)
	}

	userPrompt := fmt.Sprintf("Instruction: %s\n\nInput data available:\n```json\n%s\n```\n\nGenerate a workflow to accomplish this task.",
		instruction, inputJSON)

	completion, err := h.completer.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			llm.SystemMessage(cognitiveSystemPrompt),
			llm.UserMessage(userPrompt),
		},
	})
	if err != nil {
		return nil, err
	}

	raw := llm.StripCodeFences(completion.Content)
	vw, err := engine.ParseVirtualWorkflow([]byte(raw))
	if err != nil {
		return nil, err
	}
	if err := vw.Validate(); err != nil {
		return nil, fmt.Errorf("generated workflow is invalid: %w", err)
	}
	return vw, nil
}
