package llm

import "testing"

func TestParseJSONResponse(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantKey string
		wantVal any
		wantErr bool
	}{
		{
			name:    "plain JSON",
			content: `{"guardrail_result": "pass"}`,
			wantKey: "guardrail_result",
			wantVal: "pass",
		},
		{
			name:    "json code fence",
			content: "```json\n{\"guardrail_result\": \"fail\"}\n```",
			wantKey: "guardrail_result",
			wantVal: "fail",
		},
		{
			name:    "code fence without language",
			content: "```\n{\"message\": \"ok\"}\n```",
			wantKey: "message",
			wantVal: "ok",
		},
		{
			name:    "not JSON",
			content: "just some text",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseJSONResponse(tt.content)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected a parse error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseJSONResponse: %v", err)
			}
			if got[tt.wantKey] != tt.wantVal {
				t.Errorf("got[%q] = %v, want %v", tt.wantKey, got[tt.wantKey], tt.wantVal)
			}
		})
	}
}

func TestStripCodeFences(t *testing.T) {
	got := StripCodeFences("  ```json\n{\"a\":1}\n```  ")
	if got != `{"a":1}` {
		t.Errorf("StripCodeFences = %q", got)
	}
}
