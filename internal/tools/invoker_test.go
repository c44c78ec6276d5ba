package tools

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shaiso/Cogniflow/internal/domain"
)

func TestInvokeGetSendsQueryParams(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	tool := &domain.Tool{APIURL: srv.URL, Method: http.MethodGet}
	result := NewInvoker().Invoke(context.Background(), tool, map[string]any{"city": "moscow"})

	if !strings.Contains(gotQuery, "city=moscow") {
		t.Errorf("query = %q, want city=moscow", gotQuery)
	}
	if result != `{"ok":true}` {
		t.Errorf("result = %q", result)
	}
}

func TestInvokePostSendsJSONBody(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotBody)
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		w.Write([]byte("done"))
	}))
	defer srv.Close()

	tool := &domain.Tool{APIURL: srv.URL, Method: http.MethodPost}
	result := NewInvoker().Invoke(context.Background(), tool, map[string]any{"value": "42"})

	if gotBody["value"] != "42" {
		t.Errorf("body = %v", gotBody)
	}
	if result != "done" {
		t.Errorf("result = %q", result)
	}
}

func TestInvokeSendsHeaders(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	tool := &domain.Tool{
		APIURL:  srv.URL,
		Method:  http.MethodGet,
		Headers: map[string]string{"Authorization": "Bearer token"},
	}
	NewInvoker().Invoke(context.Background(), tool, nil)

	if gotAuth != "Bearer token" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestInvokeNon2xxReturnsErrorText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	tool := &domain.Tool{APIURL: srv.URL, Method: http.MethodGet}
	result := NewInvoker().Invoke(context.Background(), tool, nil)

	if !strings.Contains(result, "status code 500") {
		t.Errorf("result = %q, want error text with status code", result)
	}
}

func TestInvokeUnsupportedMethod(t *testing.T) {
	tool := &domain.Tool{APIURL: "http://localhost", Method: "PATCH"}
	result := NewInvoker().Invoke(context.Background(), tool, nil)

	if !strings.Contains(result, "unsupported HTTP method") {
		t.Errorf("result = %q", result)
	}
}

func TestToolSpec(t *testing.T) {
	tool := &domain.Tool{
		Name:        "get_weather",
		Description: "Get current weather",
		Parameters: []domain.ToolParameter{
			{Name: "city", Description: "City name"},
		},
	}

	spec := ToolSpec(tool)
	if spec.Name != "get_weather" {
		t.Errorf("Name = %q", spec.Name)
	}

	props, ok := spec.Parameters["properties"].(map[string]any)
	if !ok {
		t.Fatalf("missing properties: %v", spec.Parameters)
	}
	if _, ok := props["city"]; !ok {
		t.Errorf("missing city parameter: %v", props)
	}

	required, ok := spec.Parameters["required"].([]string)
	if !ok || len(required) != 1 || required[0] != "city" {
		t.Errorf("required = %v", spec.Parameters["required"])
	}
}
