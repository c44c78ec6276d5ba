package engine

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// EvaluateCondition сравнивает два значения оператором if_else.
//
// Если обе стороны приводимы к числу, сравнение числовое;
// иначе обе стороны сравниваются как строки (лексикографически).
// Поддерживаемые операторы: =, !=, <, >, <=, >=.
func EvaluateCondition(lhs, rhs any, operator string) (bool, error) {
	lhsNum, lhsOK := toFloat(lhs)
	rhsNum, rhsOK := toFloat(rhs)

	if lhsOK && rhsOK {
		return compareFloats(lhsNum, rhsNum, operator)
	}
	return compareStrings(Stringify(lhs), Stringify(rhs), operator)
}

func compareFloats(lhs, rhs float64, operator string) (bool, error) {
	switch operator {
	case "=":
		return lhs == rhs, nil
	case "!=":
		return lhs != rhs, nil
	case "<":
		return lhs < rhs, nil
	case ">":
		return lhs > rhs, nil
	case "<=":
		return lhs <= rhs, nil
	case ">=":
		return lhs >= rhs, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnsupportedOperator, operator)
	}
}

func compareStrings(lhs, rhs, operator string) (bool, error) {
	switch operator {
	case "=":
		return lhs == rhs, nil
	case "!=":
		return lhs != rhs, nil
	case "<":
		return lhs < rhs, nil
	case ">":
		return lhs > rhs, nil
	case "<=":
		return lhs <= rhs, nil
	case ">=":
		return lhs >= rhs, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnsupportedOperator, operator)
	}
}

// toFloat пытается привести значение к float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	case bool:
		// Булевы значения числами не считаем: true/false сравниваются
		// как строки.
		return 0, false
	default:
		return 0, false
	}
}
