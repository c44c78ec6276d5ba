package engine

import (
	"errors"
	"testing"
)

func templateData() map[string]any {
	return map[string]any{
		"input": map[string]any{
			"name":  "alice",
			"count": float64(42),
			"nested": map[string]any{
				"flag": true,
			},
		},
		"output": map[string]any{
			"message": "done",
		},
	}
}

func TestResolveVariableRawValue(t *testing.T) {
	data := templateData()

	got, err := ResolveVariable("{{input.count}}", data)
	if err != nil {
		t.Fatalf("ResolveVariable: %v", err)
	}
	if got != float64(42) {
		t.Errorf("ResolveVariable = %v (%T), want 42 (float64)", got, got)
	}
}

func TestResolveVariablePlainString(t *testing.T) {
	got, err := ResolveVariable("hello", templateData())
	if err != nil {
		t.Fatalf("ResolveVariable: %v", err)
	}
	if got != "hello" {
		t.Errorf("ResolveVariable = %v, want hello", got)
	}
}

func TestResolveVariableNestedPath(t *testing.T) {
	got, err := ResolveVariable("{{input.nested.flag}}", templateData())
	if err != nil {
		t.Fatalf("ResolveVariable: %v", err)
	}
	if got != true {
		t.Errorf("ResolveVariable = %v, want true", got)
	}
}

func TestResolveVariableMissingKey(t *testing.T) {
	_, err := ResolveVariable("{{input.missing}}", templateData())
	if !errors.Is(err, ErrTemplateResolve) {
		t.Errorf("err = %v, want ErrTemplateResolve", err)
	}
}

func TestResolveVariableUnknownRoot(t *testing.T) {
	_, err := ResolveVariable("{{env.HOME}}", templateData())
	if !errors.Is(err, ErrUnknownContextRoot) {
		t.Errorf("err = %v, want ErrUnknownContextRoot", err)
	}
}

func TestSubstituteText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"single substitution", "hello {{input.name}}", "hello alice"},
		{"multiple substitutions", "{{input.name}}: {{output.message}}", "alice: done"},
		{"number to string", "count={{input.count}}", "count=42"},
		{"bool to string", "flag={{input.nested.flag}}", "flag=true"},
		{"no placeholders", "plain text", "plain text"},
		{"repeated placeholder", "{{input.name}} {{input.name}}", "alice alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SubstituteText(tt.text, templateData())
			if err != nil {
				t.Fatalf("SubstituteText: %v", err)
			}
			if got != tt.want {
				t.Errorf("SubstituteText = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSubstituteTextMissingKeyFails(t *testing.T) {
	_, err := SubstituteText("value: {{input.unknown}}", templateData())
	if !errors.Is(err, ErrTemplateResolve) {
		t.Errorf("err = %v, want ErrTemplateResolve", err)
	}
}

func TestStringify(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"s", "s"},
		{float64(3.5), "3.5"},
		{float64(7), "7"},
		{true, "true"},
		{nil, ""},
		{map[string]any{"k": "v"}, `{"k":"v"}`},
	}

	for _, tt := range tests {
		if got := Stringify(tt.in); got != tt.want {
			t.Errorf("Stringify(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
