package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
)

// OpenAIConfig — настройки клиента OpenAI-совместимого API.
type OpenAIConfig struct {
	// APIKey — ключ API.
	APIKey string

	// BaseURL — базовый URL API. Пустая строка — API OpenAI.
	// Позволяет ходить в совместимые шлюзы моделей.
	BaseURL string

	// DefaultModel — модель по умолчанию, когда узел не задал свою.
	DefaultModel string
}

// OpenAIClient — Completer поверх OpenAI-совместимого chat API.
type OpenAIClient struct {
	client       openai.Client
	defaultModel string
}

// NewOpenAIClient создаёт клиент чат-модели.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm: empty API key")
	}
	if cfg.DefaultModel == "" {
		return nil, errors.New("llm: default model not set")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIClient{
		client:       openai.NewClient(opts...),
		defaultModel: cfg.DefaultModel,
	}, nil
}

// Complete реализует Completer.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (*Completion, error) {
	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(model),
		Messages: convertMessages(req.Messages),
	}
	if len(req.Tools) > 0 {
		params.Tools = convertTools(req.Tools)
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("chat completion request: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, errors.New("llm: empty model response")
	}

	message := completion.Choices[0].Message
	out := &Completion{Content: message.Content}
	for _, tc := range message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out, nil
}

func convertMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			result = append(result, openai.SystemMessage(m.Content))
		case RoleUser:
			result = append(result, openai.UserMessage(m.Content))
		case RoleTool:
			result = append(result, openai.ToolMessage(m.Content, m.ToolCallID))
		case RoleAssistant:
			result = append(result, convertAssistantMessage(m))
		}
	}
	return result
}

func convertAssistantMessage(m Message) openai.ChatCompletionMessageParamUnion {
	assistant := openai.ChatCompletionAssistantMessageParam{
		Content: openai.ChatCompletionAssistantMessageParamContentUnion{
			OfString: openai.String(m.Content),
		},
	}
	for _, tc := range m.ToolCalls {
		assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
			OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
				ID: tc.ID,
				Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			},
		})
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant}
}

func convertTools(tools []ToolSpec) []openai.ChatCompletionToolUnionParam {
	result := make([]openai.ChatCompletionToolUnionParam, 0, len(tools))
	for _, t := range tools {
		def := shared.FunctionDefinitionParam{
			Name:        t.Name,
			Description: openai.String(t.Description),
		}
		if t.Parameters != nil {
			def.Parameters = shared.FunctionParameters(t.Parameters)
		}
		result = append(result, openai.ChatCompletionFunctionTool(def))
	}
	return result
}
