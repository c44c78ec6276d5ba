// Package tools — выполнение HTTP-инструментов, вызываемых моделью
// из узлов agent.
//
// Инструмент — это описание HTTP-эндпоинта (domain.Tool). Вызов
// транслируется в запрос: GET/DELETE несут аргументы в query string,
// POST/PUT — в JSON-теле. Результат всегда возвращается строкой,
// пригодной для сообщения роли tool: ошибка вызова — тоже строка,
// модель видит её и может отреагировать.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shaiso/Cogniflow/internal/domain"
	"github.com/shaiso/Cogniflow/internal/engine"
	"github.com/shaiso/Cogniflow/internal/llm"
)

const defaultInvokeTimeout = 30 * time.Second

// Invoker выполняет HTTP-вызовы инструментов.
type Invoker struct {
	client  *http.Client
	timeout time.Duration
}

// NewInvoker создаёт Invoker с таймаутом по умолчанию.
func NewInvoker() *Invoker {
	return &Invoker{
		client:  &http.Client{},
		timeout: defaultInvokeTimeout,
	}
}

// Invoke выполняет вызов инструмента с аргументами модели.
//
// Возвращаемая строка всегда предназначена модели: при успехе это
// тело ответа (JSON, если разбирается), при неудаче — текст ошибки.
// Ошибку Go метод не возвращает: сбой инструмента не валит шаг.
func (inv *Invoker) Invoke(ctx context.Context, tool *domain.Tool, arguments map[string]any) string {
	ctx, cancel := context.WithTimeout(ctx, inv.timeout)
	defer cancel()

	method := tool.Method
	if method == "" {
		method = http.MethodGet
	}

	var req *http.Request
	var err error
	switch method {
	case http.MethodGet, http.MethodDelete:
		req, err = inv.buildQueryRequest(ctx, method, tool.APIURL, arguments)
	case http.MethodPost, http.MethodPut:
		req, err = inv.buildBodyRequest(ctx, method, tool.APIURL, arguments)
	default:
		return fmt.Sprintf("Error: unsupported HTTP method %s", method)
	}
	if err != nil {
		return fmt.Sprintf("Error executing tool: %v", err)
	}

	for key, value := range tool.Headers {
		req.Header.Set(key, value)
	}

	resp, err := inv.client.Do(req)
	if err != nil {
		return fmt.Sprintf("Error executing tool: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Sprintf("Error executing tool: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Sprintf("Error: API returned status code %d: %s", resp.StatusCode, string(body))
	}

	// Нормализуем JSON-ответы: компактная сериализация без мусора.
	var parsed any
	if err := json.Unmarshal(body, &parsed); err == nil {
		if compact, err := json.Marshal(parsed); err == nil {
			return string(compact)
		}
	}
	return string(body)
}

// buildQueryRequest кладёт аргументы в query string (GET/DELETE).
func (inv *Invoker) buildQueryRequest(ctx context.Context, method, rawURL string, arguments map[string]any) (*http.Request, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse tool url: %w", err)
	}

	query := parsed.Query()
	for key, value := range arguments {
		query.Set(key, engine.Stringify(value))
	}
	parsed.RawQuery = query.Encode()

	return http.NewRequestWithContext(ctx, method, parsed.String(), nil)
}

// buildBodyRequest кладёт аргументы в JSON-тело (POST/PUT).
func (inv *Invoker) buildBodyRequest(ctx context.Context, method, rawURL string, arguments map[string]any) (*http.Request, error) {
	body, err := json.Marshal(arguments)
	if err != nil {
		return nil, fmt.Errorf("marshal arguments: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// ToolSpec конвертирует инструмент в function-схему для модели.
// Все параметры строковые и обязательные.
func ToolSpec(tool *domain.Tool) llm.ToolSpec {
	properties := make(map[string]any, len(tool.Parameters))
	required := make([]string, 0, len(tool.Parameters))
	for _, param := range tool.Parameters {
		properties[param.Name] = map[string]any{
			"type":        "string",
			"description": param.Description,
		}
		required = append(required, param.Name)
	}

	return llm.ToolSpec{
		Name:        tool.Name,
		Description: tool.Description,
		Parameters: map[string]any{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}
