package nodes

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/shaiso/Cogniflow/internal/domain"
	"github.com/shaiso/Cogniflow/internal/engine"
	"github.com/shaiso/Cogniflow/internal/llm"
	"github.com/shaiso/Cogniflow/internal/tools"
)

// fakeCompleter отдаёт заранее заготовленные ответы по порядку.
type fakeCompleter struct {
	responses []*llm.Completion
	err       error
	requests  []llm.Request
}

func (f *fakeCompleter) Complete(ctx context.Context, req llm.Request) (*llm.Completion, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.responses) == 0 {
		return nil, errors.New("fakeCompleter: no responses left")
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

// fakeToolSource хранит инструменты в памяти.
type fakeToolSource struct {
	tools map[uuid.UUID]*domain.Tool
}

func (f *fakeToolSource) GetTool(ctx context.Context, id uuid.UUID) (*domain.Tool, error) {
	return f.tools[id], nil
}

func strPtr(s string) *string { return &s }

func execContext(wf *domain.Workflow, input map[string]any) *engine.ExecutionContext {
	runID := uuid.New()
	return engine.NewExecutionContext(wf, &runID, uuid.New(), input)
}

func branchWorkflow(source string, handles map[string]string) *domain.Workflow {
	wf := &domain.Workflow{
		ID:    uuid.New(),
		Nodes: map[string]*domain.Node{},
	}
	wf.Nodes[source] = &domain.Node{ID: source, Type: domain.NodeTypeIfElse, Config: domain.IfElseConfig{}}
	for target, handle := range handles {
		wf.Nodes[target] = &domain.Node{ID: target, Type: domain.NodeTypeEnd, Config: domain.EndConfig{}}
		edge := domain.Edge{Source: source, Target: target}
		if handle != "" {
			edge.SourceHandle = strPtr(handle)
		}
		wf.Edges = append(wf.Edges, edge)
	}
	return wf
}

func TestStartHandlerPassesInputThrough(t *testing.T) {
	wf := branchWorkflow("s", map[string]string{"a": ""})
	wf.Nodes["s"].Type = domain.NodeTypeStart
	wf.Nodes["s"].Config = domain.StartConfig{}

	input := map[string]any{"key": "value"}
	result, err := NewStartHandler().Execute(context.Background(), wf.Nodes["s"], execContext(wf, input))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if !reflect.DeepEqual(result.Output, input) {
		t.Errorf("Output = %v, want %v", result.Output, input)
	}
	if !reflect.DeepEqual(result.Successors, []string{"a"}) {
		t.Errorf("Successors = %v, want [a]", result.Successors)
	}
}

func TestIfElseHandlerRoutesTrue(t *testing.T) {
	wf := branchWorkflow("cmp", map[string]string{"t": "true", "f": "false"})
	wf.Nodes["cmp"].Config = domain.IfElseConfig{LHS: "{{input.count}}", RHS: "5", Operator: ">"}

	ec := execContext(wf, map[string]any{"count": float64(10)})
	result, err := NewIfElseHandler().Execute(context.Background(), wf.Nodes["cmp"], ec)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if !reflect.DeepEqual(result.Successors, []string{"t"}) {
		t.Errorf("Successors = %v, want [t]", result.Successors)
	}
	if result.Output["condition"] != true {
		t.Errorf("condition = %v, want true", result.Output["condition"])
	}
	if result.Output["lhs_value"] != float64(10) {
		t.Errorf("lhs_value = %v", result.Output["lhs_value"])
	}
	if result.Output["operator"] != ">" {
		t.Errorf("operator = %v", result.Output["operator"])
	}
	// Вход копируется в выход
	if result.Output["count"] != float64(10) {
		t.Errorf("expected count to be copied to output: %v", result.Output)
	}
}

func TestIfElseHandlerNumericNotLexical(t *testing.T) {
	// "10" > "9" численно, хотя лексикографически меньше.
	wf := branchWorkflow("cmp", map[string]string{"t": "true", "f": "false"})
	wf.Nodes["cmp"].Config = domain.IfElseConfig{LHS: "10", RHS: "9", Operator: ">"}

	result, err := NewIfElseHandler().Execute(context.Background(), wf.Nodes["cmp"], execContext(wf, nil))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !reflect.DeepEqual(result.Successors, []string{"t"}) {
		t.Errorf("Successors = %v, want [t]", result.Successors)
	}
}

func TestIfElseHandlerMissingVariableFailsBranch(t *testing.T) {
	wf := branchWorkflow("cmp", map[string]string{"t": "true", "f": "false"})
	wf.Nodes["cmp"].Config = domain.IfElseConfig{LHS: "{{input.missing}}", RHS: "1", Operator: "="}

	result, err := NewIfElseHandler().Execute(context.Background(), wf.Nodes["cmp"], execContext(wf, nil))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.Status != domain.LedgerStatusFailed {
		t.Errorf("Status = %v, want failed", result.Status)
	}
	if len(result.Successors) != 0 {
		t.Errorf("Successors = %v, want empty", result.Successors)
	}
	if result.Output["success"] != false {
		t.Errorf("success = %v, want false", result.Output["success"])
	}
	if _, ok := result.Output["error"]; !ok {
		t.Error("missing error field in output")
	}
}

func TestForkHandlerActivatesAllEdges(t *testing.T) {
	wf := branchWorkflow("fork", map[string]string{})
	wf.Nodes["fork"].Type = domain.NodeTypeFork
	wf.Nodes["fork"].Config = domain.ForkConfig{}
	for _, target := range []string{"b1", "b2", "b3"} {
		wf.Nodes[target] = &domain.Node{ID: target, Type: domain.NodeTypeEnd, Config: domain.EndConfig{}}
		wf.Edges = append(wf.Edges, domain.Edge{Source: "fork", Target: target})
	}

	input := map[string]any{"data": "x"}
	result, err := NewForkHandler().Execute(context.Background(), wf.Nodes["fork"], execContext(wf, input))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if len(result.Successors) != 3 {
		t.Errorf("Successors = %v, want 3 branches", result.Successors)
	}
	ledger := result.JournalOutput()
	if ledger["branch_count"] != 3 {
		t.Errorf("branch_count = %v, want 3", ledger["branch_count"])
	}
	if _, ok := ledger["branches"]; !ok {
		t.Error("missing branches field in journal output")
	}
}

func TestApprovalHandlerPausesWithoutDecision(t *testing.T) {
	wf := branchWorkflow("ap", map[string]string{"y": "yes", "n": "no"})
	wf.Nodes["ap"].Type = domain.NodeTypeUserApproval
	wf.Nodes["ap"].Config = domain.ApprovalConfig{Message: "Proceed with the report?"}

	result, err := NewApprovalHandler().Execute(context.Background(), wf.Nodes["ap"], execContext(wf, map[string]any{"k": "v"}))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if !result.Paused {
		t.Error("Paused = false, want true")
	}
	if len(result.Successors) != 0 {
		t.Errorf("Successors = %v, want empty", result.Successors)
	}
	if result.Status != domain.LedgerStatusWaitingApproval {
		t.Errorf("Status = %v, want waiting_for_approval", result.Status)
	}
	if result.ApprovalMessage != "Proceed with the report?" {
		t.Errorf("ApprovalMessage = %q", result.ApprovalMessage)
	}
}

func TestApprovalHandlerResume(t *testing.T) {
	tests := []struct {
		decision  any
		want      string
		successor string
	}{
		{"yes", "yes", "y"},
		{"Approve", "yes", "y"},
		{"APPROVED", "yes", "y"},
		{"true", "yes", "y"},
		{"no", "no", "n"},
		{"reject", "no", "n"},
		{"anything else", "no", "n"},
	}

	for _, tt := range tests {
		wf := branchWorkflow("ap", map[string]string{"y": "yes", "n": "no"})
		wf.Nodes["ap"].Type = domain.NodeTypeUserApproval
		wf.Nodes["ap"].Config = domain.ApprovalConfig{}

		ec := execContext(wf, map[string]any{"user_decision": tt.decision})
		result, err := NewApprovalHandler().Execute(context.Background(), wf.Nodes["ap"], ec)
		if err != nil {
			t.Fatalf("Execute(%v): %v", tt.decision, err)
		}

		if result.Output["user_decision"] != tt.want {
			t.Errorf("decision %v = %v, want %v", tt.decision, result.Output["user_decision"], tt.want)
		}
		if result.Output["approved"] != (tt.want == "yes") {
			t.Errorf("approved = %v", result.Output["approved"])
		}
		if len(result.Successors) != 1 || result.Successors[0] != tt.successor {
			t.Errorf("Successors = %v, want [%s]", result.Successors, tt.successor)
		}
	}
}

func TestGuardrailsHandlerPass(t *testing.T) {
	wf := branchWorkflow("g", map[string]string{"p": "pass", "f": "fail"})
	wf.Nodes["g"].Type = domain.NodeTypeGuardrails
	wf.Nodes["g"].Config = domain.GuardrailsConfig{Guardrail: "Text is polite: {{input.text}}"}

	completer := &fakeCompleter{responses: []*llm.Completion{
		{Content: "```json\n{\"guardrail_result\": \"PASS\", \"reason\": \"polite\"}\n```"},
	}}

	ec := execContext(wf, map[string]any{"text": "hello there"})
	result, err := NewGuardrailsHandler(completer).Execute(context.Background(), wf.Nodes["g"], ec)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.Output["guardrail_result"] != "pass" {
		t.Errorf("guardrail_result = %v, want pass", result.Output["guardrail_result"])
	}
	if !reflect.DeepEqual(result.Successors, []string{"p"}) {
		t.Errorf("Successors = %v, want [p]", result.Successors)
	}
	// Подстановка дошла до модели
	if !strings.Contains(completer.requests[0].Messages[1].Content, "hello there") {
		t.Errorf("user prompt = %q", completer.requests[0].Messages[1].Content)
	}
}

func TestGuardrailsHandlerUnparseableVerdictFailsBranch(t *testing.T) {
	wf := branchWorkflow("g", map[string]string{"p": "pass", "f": "fail"})
	wf.Nodes["g"].Type = domain.NodeTypeGuardrails
	wf.Nodes["g"].Config = domain.GuardrailsConfig{Guardrail: "rule"}

	completer := &fakeCompleter{responses: []*llm.Completion{{Content: "probably pass"}}}

	result, err := NewGuardrailsHandler(completer).Execute(context.Background(), wf.Nodes["g"], execContext(wf, nil))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Status != domain.LedgerStatusFailed {
		t.Errorf("Status = %v, want failed", result.Status)
	}
	if len(result.Successors) != 0 {
		t.Errorf("Successors = %v, want empty", result.Successors)
	}
}

func TestAgentHandlerPlainMessage(t *testing.T) {
	wf := branchWorkflow("a", map[string]string{"next": ""})
	wf.Nodes["a"].Type = domain.NodeTypeAgent
	wf.Nodes["a"].Config = domain.AgentConfig{
		SystemPrompt: "You are an assistant",
		UserPrompt:   "Say hello to {{input.name}}",
	}

	completer := &fakeCompleter{responses: []*llm.Completion{{Content: "Hello, alice!"}}}
	handler := NewAgentHandler(completer, nil, tools.NewInvoker())

	ec := execContext(wf, map[string]any{"name": "alice"})
	result, err := handler.Execute(context.Background(), wf.Nodes["a"], ec)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.Output["message"] != "Hello, alice!" {
		t.Errorf("message = %v", result.Output["message"])
	}
	if !strings.Contains(completer.requests[0].Messages[1].Content, "alice") {
		t.Errorf("expected substituted guardrail to reach the model: %q", completer.requests[0].Messages[1].Content)
	}
}

func TestAgentHandlerStructuredOutput(t *testing.T) {
	wf := branchWorkflow("a", map[string]string{"next": ""})
	wf.Nodes["a"].Type = domain.NodeTypeAgent
	wf.Nodes["a"].Config = domain.AgentConfig{
		UserPrompt:             "Evaluate",
		StructuredOutput:       true,
		StructuredOutputSchema: `{"score": "number"}`,
	}

	completer := &fakeCompleter{responses: []*llm.Completion{
		{Content: "```json\n{\"score\": 7}\n```"},
	}}
	handler := NewAgentHandler(completer, nil, tools.NewInvoker())

	result, err := handler.Execute(context.Background(), wf.Nodes["a"], execContext(wf, map[string]any{"k": "v"}))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.Output["score"] != float64(7) {
		t.Errorf("score = %v, want 7", result.Output["score"])
	}
	if result.Output["k"] != "v" {
		t.Errorf("expected input merged into output: %v", result.Output)
	}
	// Схема дописана в системный промпт
	if !strings.Contains(completer.requests[0].Messages[0].Content, "Output format (**ONLY JSON**)") {
		t.Errorf("system prompt = %q", completer.requests[0].Messages[0].Content)
	}
}

func TestAgentHandlerStructuredOutputParseFallback(t *testing.T) {
	wf := branchWorkflow("a", map[string]string{"next": ""})
	wf.Nodes["a"].Type = domain.NodeTypeAgent
	wf.Nodes["a"].Config = domain.AgentConfig{UserPrompt: "Evaluate", StructuredOutput: true}

	completer := &fakeCompleter{responses: []*llm.Completion{{Content: "not JSON at all"}}}
	handler := NewAgentHandler(completer, nil, tools.NewInvoker())

	result, err := handler.Execute(context.Background(), wf.Nodes["a"], execContext(wf, nil))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.Status != domain.LedgerStatusCompleted {
		t.Errorf("Status = %v: unparseable JSON must not fail the branch", result.Status)
	}
	if result.Output["message"] != "not JSON at all" {
		t.Errorf("message = %v", result.Output["message"])
	}
	if _, ok := result.Output["parse_error"]; !ok {
		t.Error("missing parse_error field")
	}
}

func TestAgentHandlerToolCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"temp": "-5"}`))
	}))
	defer srv.Close()

	toolID := uuid.New()
	source := &fakeToolSource{tools: map[uuid.UUID]*domain.Tool{
		toolID: {
			ID:     toolID,
			Name:   "get_weather",
			APIURL: srv.URL,
			Method: http.MethodGet,
			Parameters: []domain.ToolParameter{
				{Name: "city", Description: "City name"},
			},
		},
	}}

	wf := branchWorkflow("a", map[string]string{"next": ""})
	wf.Nodes["a"].Type = domain.NodeTypeAgent
	wf.Nodes["a"].Config = domain.AgentConfig{
		UserPrompt: "What is the weather in Moscow?",
		Tools:      []uuid.UUID{toolID},
	}

	completer := &fakeCompleter{responses: []*llm.Completion{
		{ToolCalls: []llm.ToolCall{
			{ID: "call_1", Name: "get_weather", Arguments: `{"city": "moscow"}`},
		}},
		{Content: "It is -5 in Moscow"},
	}}
	handler := NewAgentHandler(completer, source, tools.NewInvoker())

	result, err := handler.Execute(context.Background(), wf.Nodes["a"], execContext(wf, nil))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.Output["message"] != "It is -5 in Moscow" {
		t.Errorf("message = %v", result.Output["message"])
	}
	if len(result.ToolCalls) != 1 {
		t.Fatalf("ToolCalls = %v, want 1 record", result.ToolCalls)
	}
	if result.ToolCalls[0].ToolName != "get_weather" {
		t.Errorf("ToolName = %q", result.ToolCalls[0].ToolName)
	}
	if !strings.Contains(result.ToolCalls[0].Result, "-5") {
		t.Errorf("Result = %q", result.ToolCalls[0].Result)
	}

	// Второй запрос несёт ответ инструмента
	if len(completer.requests) != 2 {
		t.Fatalf("requests = %d, want 2", len(completer.requests))
	}
	second := completer.requests[1].Messages
	last := second[len(second)-1]
	if last.Role != llm.RoleTool || !strings.Contains(last.Content, "-5") {
		t.Errorf("last message = %+v", last)
	}
	// Описание инструмента дошло до модели
	if len(completer.requests[0].Tools) != 1 || completer.requests[0].Tools[0].Name != "get_weather" {
		t.Errorf("Tools = %+v", completer.requests[0].Tools)
	}
}

func TestAgentHandlerCompleterErrorFailsBranch(t *testing.T) {
	wf := branchWorkflow("a", map[string]string{"next": ""})
	wf.Nodes["a"].Type = domain.NodeTypeAgent
	wf.Nodes["a"].Config = domain.AgentConfig{UserPrompt: "q"}

	completer := &fakeCompleter{err: errors.New("model unavailable")}
	handler := NewAgentHandler(completer, nil, tools.NewInvoker())

	result, err := handler.Execute(context.Background(), wf.Nodes["a"], execContext(wf, nil))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Status != domain.LedgerStatusFailed {
		t.Errorf("Status = %v, want failed", result.Status)
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestVirtualRunnerLinear(t *testing.T) {
	completer := &fakeCompleter{responses: []*llm.Completion{
		{Content: "step one"},
		{Content: "step two"},
	}}
	registry := DefaultRegistry(completer, nil, tools.NewInvoker(), testLogger())

	vw := &engine.VirtualWorkflow{
		Nodes: []engine.VirtualNode{
			{ID: "n1", Data: map[string]any{"type": "agent", "user_prompt": "first"}},
			{ID: "n2", Data: map[string]any{"type": "agent", "user_prompt": "second"}},
		},
		Edges: []engine.VirtualEdge{{Source: "n1", Target: "n2"}},
	}

	wf := branchWorkflow("c", map[string]string{})
	ec := execContext(wf, map[string]any{"seed": "x"})
	ec.RunID = nil

	output, err := NewVirtualRunner(registry, testLogger()).Run(context.Background(), vw, ec)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if output["message"] != "step two" {
		t.Errorf("final output = %v, want last node output", output)
	}
	// Выход первого шага стал входом второго
	if len(completer.requests) != 2 {
		t.Fatalf("requests = %d", len(completer.requests))
	}
}

func TestVirtualRunnerBranching(t *testing.T) {
	registry := DefaultRegistry(&fakeCompleter{}, nil, tools.NewInvoker(), testLogger())

	vw := &engine.VirtualWorkflow{
		Nodes: []engine.VirtualNode{
			{ID: "cmp", Data: map[string]any{"type": "if_else", "lhs": "{{input.n}}", "rhs": "5", "operator": ">"}},
			{ID: "big", Data: map[string]any{"type": "if_else", "lhs": "1", "rhs": "1", "operator": "="}},
			{ID: "small", Data: map[string]any{"type": "if_else", "lhs": "1", "rhs": "2", "operator": "="}},
		},
		Edges: []engine.VirtualEdge{
			{Source: "cmp", Target: "big", SourceHandle: strPtr("true")},
			{Source: "cmp", Target: "small", SourceHandle: strPtr("false")},
		},
	}

	wf := branchWorkflow("c", map[string]string{})
	ec := execContext(wf, map[string]any{"n": float64(10)})
	ec.RunID = nil

	output, err := NewVirtualRunner(registry, testLogger()).Run(context.Background(), vw, ec)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Путь true → узел big (1 = 1) даёт condition true
	if output["condition"] != true {
		t.Errorf("condition = %v: expected the big branch", output["condition"])
	}
}

func TestVirtualRunnerEntryFallback(t *testing.T) {
	registry := DefaultRegistry(&fakeCompleter{}, nil, tools.NewInvoker(), testLogger())
	wf := branchWorkflow("c", map[string]string{})

	t.Run("empty graph", func(t *testing.T) {
		ec := execContext(wf, nil)
		ec.RunID = nil

		_, err := NewVirtualRunner(registry, testLogger()).Run(context.Background(), &engine.VirtualWorkflow{}, ec)
		if !errors.Is(err, engine.ErrNoEntryNode) {
			t.Errorf("err = %v, want ErrNoEntryNode", err)
		}
	})

	t.Run("cycle without entry", func(t *testing.T) {
		// Входного узла нет: исполнитель стартует с первого
		// объявленного и упирается в лимит шагов, а не отказывает сразу.
		vw := &engine.VirtualWorkflow{
			Nodes: []engine.VirtualNode{
				{ID: "n1", Data: map[string]any{"type": "if_else", "lhs": "1", "rhs": "1", "operator": "="}},
				{ID: "n2", Data: map[string]any{"type": "if_else", "lhs": "1", "rhs": "1", "operator": "="}},
			},
			Edges: []engine.VirtualEdge{
				{Source: "n1", Target: "n2", SourceHandle: strPtr("true")},
				{Source: "n2", Target: "n1", SourceHandle: strPtr("true")},
			},
		}

		ec := execContext(wf, nil)
		ec.RunID = nil

		_, err := NewVirtualRunner(registry, testLogger()).Run(context.Background(), vw, ec)
		if !errors.Is(err, engine.ErrStepLimitExceeded) {
			t.Errorf("err = %v, want ErrStepLimitExceeded", err)
		}
	})
}

func TestCognitiveHandlerGeneratesAndRuns(t *testing.T) {
	generated := `{
  "nodes": [
    {"id": "v1", "name": "answer", "data": {"type": "agent", "user_prompt": "Answer"}}
  ],
  "edges": [],
  "reasoning": "a single agent suffices"
}`

	completer := &fakeCompleter{responses: []*llm.Completion{
		{Content: "```json\n" + generated + "\n```"}, // генерация графа
		{Content: "done"},                          // виртуальный агент
	}}
	registry := DefaultRegistry(completer, nil, tools.NewInvoker(), testLogger())

	wf := branchWorkflow("c", map[string]string{"next": ""})
	wf.Nodes["c"].Type = domain.NodeTypeCognitive
	wf.Nodes["c"].Config = domain.CognitiveConfig{Instruction: "Do {{input.task}}"}

	handler, err := registry.Get(domain.NodeTypeCognitive)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	ec := execContext(wf, map[string]any{"task": "a summary"})
	result, err := handler.Execute(context.Background(), wf.Nodes["c"], ec)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.Output["message"] != "done" {
		t.Errorf("message = %v", result.Output["message"])
	}
	if result.Output["cognitive_reasoning"] != "a single agent suffices" {
		t.Errorf("cognitive_reasoning = %v", result.Output["cognitive_reasoning"])
	}
	gw, ok := result.Output["generated_workflow"].(map[string]any)
	if !ok || gw["node_count"] != 1 {
		t.Errorf("generated_workflow = %v", result.Output["generated_workflow"])
	}
	if _, ok := result.JournalOutput()["virtual_workflow"]; !ok {
		t.Error("journal output missing virtual_workflow")
	}
	if !reflect.DeepEqual(result.Successors, []string{"next"}) {
		t.Errorf("Successors = %v", result.Successors)
	}
	// Инструкция с подстановкой дошла до генератора
	if !strings.Contains(completer.requests[0].Messages[1].Content, "a summary") {
		t.Errorf("user prompt = %q", completer.requests[0].Messages[1].Content)
	}
}

func TestCognitiveHandlerInvalidGeneratedWorkflow(t *testing.T) {
	// Сгенерированный граф с запрещённым типом узла.
	generated := `{"nodes": [{"id": "v1", "data": {"type": "user_approval"}}], "edges": []}`

	completer := &fakeCompleter{responses: []*llm.Completion{{Content: generated}}}
	registry := DefaultRegistry(completer, nil, tools.NewInvoker(), testLogger())

	wf := branchWorkflow("c", map[string]string{"next": ""})
	wf.Nodes["c"].Type = domain.NodeTypeCognitive
	wf.Nodes["c"].Config = domain.CognitiveConfig{Instruction: "some task"}

	handler, _ := registry.Get(domain.NodeTypeCognitive)
	result, err := handler.Execute(context.Background(), wf.Nodes["c"], execContext(wf, nil))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.Status != domain.LedgerStatusFailed {
		t.Errorf("Status = %v, want failed", result.Status)
	}
	if len(result.Successors) != 0 {
		t.Errorf("Successors = %v, want empty", result.Successors)
	}
}

func TestRegistryUnknownType(t *testing.T) {
	registry := NewRegistry()
	if _, err := registry.Get(domain.NodeTypeAgent); !errors.Is(err, ErrHandlerNotFound) {
		t.Errorf("err = %v, want ErrHandlerNotFound", err)
	}
}
