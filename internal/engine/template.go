package engine

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Шаблонные подстановки вида {{input.field}} / {{output.node.field}}.
var placeholderPattern = regexp.MustCompile(`\{\{[^}]+\}\}`)

// ResolveVariable извлекает значение по шаблонной ссылке.
//
// Если строка (после обрезки пробелов) начинается с {{path}},
// возвращается сырое значение по пути — с сохранением типа.
// Строка без подстановки возвращается как есть.
//
//	ResolveVariable("{{input.count}}", data) → 42 (число, не строка)
//	ResolveVariable("hello", data)           → "hello"
func ResolveVariable(s string, data map[string]any) (any, error) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "{{") {
		return s, nil
	}
	end := strings.Index(trimmed, "}}")
	if end < 0 {
		return s, nil
	}
	path := strings.TrimSpace(trimmed[2:end])
	return resolvePath(path, data)
}

// SubstituteText заменяет все подстановки {{...}} в тексте
// строковыми представлениями их значений.
// Неразрешимая подстановка — ошибка, а не тихий пропуск.
func SubstituteText(text string, data map[string]any) (string, error) {
	matches := placeholderPattern.FindAllString(text, -1)
	result := text
	for _, match := range matches {
		path := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(match, "{{"), "}}"))
		value, err := resolvePath(path, data)
		if err != nil {
			return "", fmt.Errorf("substitute %s: %w", match, err)
		}
		result = strings.ReplaceAll(result, match, Stringify(value))
	}
	return result, nil
}

// resolvePath проходит по точечному пути от корня input/output.
func resolvePath(path string, data map[string]any) (any, error) {
	parts := strings.Split(path, ".")
	root := parts[0]
	if root != "input" && root != "output" {
		return nil, fmt.Errorf("%w: %q", ErrUnknownContextRoot, root)
	}

	value, ok := data[root]
	if !ok || value == nil {
		return nil, fmt.Errorf("%w: %q is empty", ErrTemplateResolve, root)
	}

	for _, part := range parts[1:] {
		m, ok := value.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not an object at path %q", ErrTemplateResolve, part, path)
		}
		value, ok = m[part]
		if !ok {
			return nil, fmt.Errorf("%w: key %q not found at path %q", ErrTemplateResolve, part, path)
		}
	}
	return value, nil
}

// Stringify приводит значение подстановки к строке.
// Строки — без изменений, составные значения — компактный JSON.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}
