package engine

import (
	"strings"

	"github.com/shaiso/Cogniflow/internal/domain"
)

// NextNodes возвращает ID преемников узла в порядке объявления рёбер.
//
// Правила маршрутизации:
//   - outcome == nil: все исходящие рёбра независимо от source_handle;
//   - outcome задан: только рёбра, чей source_handle после нормализации
//     совпадает с исходом. Рёбра без handle при заданном исходе
//     не выбираются.
//
// Дубликаты целей убираются с сохранением порядка первого вхождения.
func NextNodes(wf *domain.Workflow, nodeID string, outcome any) []string {
	var norm *string
	if outcome != nil {
		n := NormalizeOutcome(outcome)
		norm = &n
	}

	var next []string
	seen := make(map[string]struct{})
	for _, edge := range wf.Edges {
		if edge.Source != nodeID {
			continue
		}
		if norm != nil {
			if edge.SourceHandle == nil {
				continue
			}
			if NormalizeOutcome(*edge.SourceHandle) != *norm {
				continue
			}
		}
		if _, ok := seen[edge.Target]; ok {
			continue
		}
		seen[edge.Target] = struct{}{}
		next = append(next, edge.Target)
	}
	return next
}

// NormalizeOutcome приводит исход узла к сравнимой метке ребра:
// булево значение — к "true"/"false", строка — к нижнему регистру
// без краевых пробелов.
func NormalizeOutcome(outcome any) string {
	switch v := outcome.(type) {
	case bool:
		if v {
			return "true"
		}
		return "false"
	case string:
		return strings.ToLower(strings.TrimSpace(v))
	default:
		return strings.ToLower(strings.TrimSpace(Stringify(v)))
	}
}
