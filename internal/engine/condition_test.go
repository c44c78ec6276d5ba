package engine

import (
	"errors"
	"testing"
)

func TestEvaluateConditionNumeric(t *testing.T) {
	tests := []struct {
		name     string
		lhs, rhs any
		operator string
		want     bool
	}{
		{"numeric equality", float64(5), float64(5), "=", true},
		{"numeric inequality", float64(5), float64(6), "!=", true},
		{"less than", float64(3), float64(5), "<", true},
		{"greater than", float64(5), float64(3), ">", true},
		{"less or equal", float64(5), float64(5), "<=", true},
		{"greater or equal", float64(4), float64(5), ">=", false},
		{"numeric strings compare as numbers", "10", "9", ">", true},
		{"mixed string and number", "10", float64(10), "=", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EvaluateCondition(tt.lhs, tt.rhs, tt.operator)
			if err != nil {
				t.Fatalf("EvaluateCondition: %v", err)
			}
			if got != tt.want {
				t.Errorf("EvaluateCondition(%v %s %v) = %v, want %v",
					tt.lhs, tt.operator, tt.rhs, got, tt.want)
			}
		})
	}
}

func TestEvaluateConditionLexical(t *testing.T) {
	// "10" < "9" лексикографически, но 10 > 9 численно.
	// Нечисловая сторона переводит сравнение в строковый режим.
	got, err := EvaluateCondition("10", "abc", "<")
	if err != nil {
		t.Fatalf("EvaluateCondition: %v", err)
	}
	if !got {
		t.Error(`EvaluateCondition("10" < "abc") = false, want true (lexicographic)`)
	}

	got, err = EvaluateCondition("apple", "banana", "<")
	if err != nil {
		t.Fatalf("EvaluateCondition: %v", err)
	}
	if !got {
		t.Error(`EvaluateCondition("apple" < "banana") = false, want true`)
	}
}

func TestEvaluateConditionUnsupportedOperator(t *testing.T) {
	_, err := EvaluateCondition("a", "b", "~")
	if !errors.Is(err, ErrUnsupportedOperator) {
		t.Errorf("err = %v, want ErrUnsupportedOperator", err)
	}
}
