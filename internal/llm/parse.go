package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseJSONResponse разбирает JSON-ответ модели, возможно обёрнутый
// в markdown-блок ```json ... ```.
func ParseJSONResponse(content string) (map[string]any, error) {
	cleaned := StripCodeFences(content)

	var result map[string]any
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, fmt.Errorf("parse JSON from model response: %w", err)
	}
	return result, nil
}

// StripCodeFences удаляет обрамление ```json / ``` вокруг содержимого.
func StripCodeFences(content string) string {
	cleaned := strings.TrimSpace(content)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}
