package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/shaiso/Cogniflow/internal/domain"
	"github.com/shaiso/Cogniflow/internal/engine"
	"github.com/shaiso/Cogniflow/internal/llm"
)

// guardrailsSystemPrompt — системный промпт проверки guardrail.
// Модель обязана вернуть строго двухполевой JSON.
const guardrailsSystemPrompt = `You are a professional guardrail engineer. You are given a guardrail and a user prompt. You need to check if the user prompt satisfies the guardrail.

Output format (**ONLY JSON**):
` + "```json" + `
{
    "guardrail_result": "fail|pass",
    "reason": "Reason for guardrail fail or pass"
}` + "```"

// GuardrailsHandler — обработчик узла guardrails.
//
// Отдаёт правило и данные модели, разбирает бинарный вердикт
// и направляет выполнение по ребру "pass" или "fail".
type GuardrailsHandler struct {
	completer llm.Completer
}

// NewGuardrailsHandler создаёт обработчик guardrails.
func NewGuardrailsHandler(completer llm.Completer) *GuardrailsHandler {
	return &GuardrailsHandler{completer: completer}
}

// Type возвращает тип узла.
func (h *GuardrailsHandler) Type() domain.NodeType {
	return domain.NodeTypeGuardrails
}

// Execute выполняет узел guardrails.
func (h *GuardrailsHandler) Execute(ctx context.Context, node *domain.Node, ec *engine.ExecutionContext) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg, ok := node.Config.(domain.GuardrailsConfig)
	if !ok {
		return nil, fmt.Errorf("%w: node %s is not guardrails", ErrInvalidConfig, node.ID)
	}

	userPrompt, err := engine.SubstituteText(cfg.Guardrail, ec.Data())
	if err != nil {
		return Failure(ec.Input, node.Type, err), nil
	}

	completion, err := h.completer.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			llm.SystemMessage(guardrailsSystemPrompt),
			llm.UserMessage(userPrompt),
		},
	})
	if err != nil {
		return Failure(ec.Input, node.Type, err), nil
	}

	verdict, err := llm.ParseJSONResponse(completion.Content)
	if err != nil {
		return Failure(ec.Input, node.Type, err), nil
	}

	result, _ := verdict["guardrail_result"].(string)
	result = strings.ToLower(result)

	output := mergeInput(ec.Input, map[string]any{
		"guardrail_result": result,
		"guardrail_reason": verdict["reason"],
	})

	next := engine.NextNodes(ec.Workflow, node.ID, result)
	return Success(output, next), nil
}
