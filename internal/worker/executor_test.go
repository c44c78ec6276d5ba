package worker

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"github.com/shaiso/Cogniflow/internal/domain"
	"github.com/shaiso/Cogniflow/internal/llm"
	"github.com/shaiso/Cogniflow/internal/mq"
	"github.com/shaiso/Cogniflow/internal/nodes"
	"github.com/shaiso/Cogniflow/internal/repo"
	"github.com/shaiso/Cogniflow/internal/tools"
)

// --- Fakes ---

type stubCompleter struct {
	responses []*llm.Completion
}

func (s *stubCompleter) Complete(_ context.Context, _ llm.Request) (*llm.Completion, error) {
	if len(s.responses) == 0 {
		return nil, errors.New("stubCompleter: no responses left")
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp, nil
}

type fakeWorkflows struct {
	byID map[uuid.UUID]*domain.Workflow
}

func (f *fakeWorkflows) GetByID(_ context.Context, id uuid.UUID) (*domain.Workflow, error) {
	wf, ok := f.byID[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return wf, nil
}

type fakeRuns struct {
	created []*domain.Run
	outputs map[uuid.UUID]map[string]any
	touched int
}

func (f *fakeRuns) Create(_ context.Context, run *domain.Run) error {
	f.created = append(f.created, run)
	return nil
}

func (f *fakeRuns) SetOutput(_ context.Context, id uuid.UUID, output map[string]any) error {
	if f.outputs == nil {
		f.outputs = make(map[uuid.UUID]map[string]any)
	}
	f.outputs[id] = output
	return nil
}

func (f *fakeRuns) Touch(_ context.Context, _ uuid.UUID) error {
	f.touched++
	return nil
}

type fakeLedger struct {
	entries []*domain.LedgerEntry
}

func (f *fakeLedger) Append(_ context.Context, entry *domain.LedgerEntry) error {
	f.entries = append(f.entries, entry)
	return nil
}

type fakeQueue struct {
	jobs []mq.StepJobPayload
}

func (f *fakeQueue) PublishStepReady(_ context.Context, payload mq.StepJobPayload) error {
	f.jobs = append(f.jobs, payload)
	return nil
}

type fakeEvents struct {
	emitted []string
}

func (f *fakeEvents) record(name string) { f.emitted = append(f.emitted, name) }

func (f *fakeEvents) EmitRunStarted(_ context.Context, _ uuid.UUID, _ *uuid.UUID) {
	f.record("run_started")
}
func (f *fakeEvents) EmitRunCompleted(_ context.Context, _ uuid.UUID, _ *uuid.UUID, _ map[string]any) {
	f.record("run_completed")
}
func (f *fakeEvents) EmitRunError(_ context.Context, _ uuid.UUID, _ *uuid.UUID, _ string) {
	f.record("run_error")
}
func (f *fakeEvents) EmitNodeStarted(_ context.Context, _ uuid.UUID, _ *uuid.UUID, _, _ string) {
	f.record("node_started")
}
func (f *fakeEvents) EmitNodeCompleted(_ context.Context, _ uuid.UUID, _ *uuid.UUID, _, _ string, _ map[string]any) {
	f.record("node_completed")
}
func (f *fakeEvents) EmitNodeError(_ context.Context, _ uuid.UUID, _ *uuid.UUID, _, _, _ string) {
	f.record("node_error")
}
func (f *fakeEvents) EmitApprovalNeeded(_ context.Context, _ uuid.UUID, _ *uuid.UUID, _, _ string) {
	f.record("approval_needed")
}

func (f *fakeEvents) has(name string) bool {
	for _, e := range f.emitted {
		if e == name {
			return true
		}
	}
	return false
}

// --- Helpers ---

type testEnv struct {
	executor *Executor
	ledger   *fakeLedger
	queue    *fakeQueue
	events   *fakeEvents
	runs     *fakeRuns
}

func newTestEnv(wf *domain.Workflow, completer llm.Completer) *testEnv {
	logger := slog.New(slog.DiscardHandler)
	if completer == nil {
		completer = &stubCompleter{}
	}

	ledger := &fakeLedger{}
	queue := &fakeQueue{}
	evs := &fakeEvents{}
	runs := &fakeRuns{}

	workflows := &fakeWorkflows{byID: map[uuid.UUID]*domain.Workflow{}}
	if wf != nil {
		workflows.byID[wf.ID] = wf
	}

	executor := NewExecutor(ExecutorConfig{
		Workflows: workflows,
		Runs:      runs,
		Ledger:    ledger,
		Queue:     queue,
		Events:    evs,
		Registry:  nodes.DefaultRegistry(completer, nil, tools.NewInvoker(), logger),
		Logger:    logger,
	})

	return &testEnv{executor: executor, ledger: ledger, queue: queue, events: evs, runs: runs}
}

func linearWorkflow() *domain.Workflow {
	return &domain.Workflow{
		ID:     uuid.New(),
		Name:   "linear",
		UserID: uuid.New(),
		Nodes: map[string]*domain.Node{
			"s": {ID: "s", Type: domain.NodeTypeStart, Config: domain.StartConfig{}},
			"f": {ID: "f", Type: domain.NodeTypeFork, Config: domain.ForkConfig{}},
			"e": {ID: "e", Type: domain.NodeTypeEnd, Config: domain.EndConfig{}},
		},
		Edges: []domain.Edge{
			{Source: "s", Target: "f"},
			{Source: "f", Target: "e"},
		},
	}
}

func stepPayload(wf *domain.Workflow, nodeID string, runID *uuid.UUID, input map[string]any) mq.StepJobPayload {
	return mq.StepJobPayload{
		WorkflowID: wf.ID,
		NodeID:     nodeID,
		UserID:     wf.UserID,
		RunID:      runID,
		Input:      input,
	}
}

func runID() *uuid.UUID {
	id := uuid.New()
	return &id
}

func handle(s string) *string { return &s }

// branchingWorkflow: start → if_else → (true: a | false: b) → end.
func branchingWorkflow() *domain.Workflow {
	return &domain.Workflow{
		ID:     uuid.New(),
		Name:   "branching",
		UserID: uuid.New(),
		Nodes: map[string]*domain.Node{
			"s": {ID: "s", Type: domain.NodeTypeStart, Config: domain.StartConfig{}},
			"c": {ID: "c", Type: domain.NodeTypeIfElse, Config: domain.IfElseConfig{
				LHS:      "{{input.ready}}",
				RHS:      "yes",
				Operator: "=",
			}},
			"a": {ID: "a", Type: domain.NodeTypeFork, Config: domain.ForkConfig{}},
			"b": {ID: "b", Type: domain.NodeTypeFork, Config: domain.ForkConfig{}},
			"e": {ID: "e", Type: domain.NodeTypeEnd, Config: domain.EndConfig{}},
		},
		Edges: []domain.Edge{
			{Source: "s", Target: "c"},
			{Source: "c", Target: "a", SourceHandle: handle("true")},
			{Source: "c", Target: "b", SourceHandle: handle("false")},
			{Source: "a", Target: "e"},
			{Source: "b", Target: "e"},
		},
	}
}

// --- Tests ---

func TestExecuteStepStartAlias(t *testing.T) {
	wf := linearWorkflow()
	env := newTestEnv(wf, nil)

	input := map[string]any{"city": "moscow"}
	err := env.executor.ExecuteStep(context.Background(), stepPayload(wf, domain.StartNodeAlias, runID(), input))
	if err != nil {
		t.Fatalf("ExecuteStep: %v", err)
	}

	if len(env.queue.jobs) != 1 || env.queue.jobs[0].NodeID != "f" {
		t.Fatalf("jobs = %+v, want single job for f", env.queue.jobs)
	}
	if env.queue.jobs[0].Input["city"] != "moscow" {
		t.Errorf("successor input = %v, want start input passed through", env.queue.jobs[0].Input)
	}

	if len(env.ledger.entries) != 1 {
		t.Fatalf("ledger entries = %d, want 1", len(env.ledger.entries))
	}
	entry := env.ledger.entries[0]
	if entry.NodeID != "s" || entry.Status != domain.LedgerStatusCompleted {
		t.Errorf("entry = %+v, want completed entry for s", entry)
	}

	if !env.events.has("run_started") {
		t.Errorf("events = %v, want run_started", env.events.emitted)
	}
	if !env.events.has("node_completed") {
		t.Errorf("events = %v, want node_completed", env.events.emitted)
	}
	if env.runs.touched != 1 {
		t.Errorf("touched = %d, want 1", env.runs.touched)
	}
}

func TestExecuteStepEndNode(t *testing.T) {
	wf := linearWorkflow()
	env := newTestEnv(wf, nil)

	rid := runID()
	input := map[string]any{"result": "final"}
	err := env.executor.ExecuteStep(context.Background(), stepPayload(wf, "e", rid, input))
	if err != nil {
		t.Fatalf("ExecuteStep: %v", err)
	}

	if len(env.queue.jobs) != 0 {
		t.Errorf("jobs = %+v, want none after end node", env.queue.jobs)
	}
	if len(env.ledger.entries) != 1 {
		t.Fatalf("ledger entries = %d, want 1", len(env.ledger.entries))
	}
	if env.ledger.entries[0].Output["result"] != "final" {
		t.Errorf("entry output = %v, want step input", env.ledger.entries[0].Output)
	}
	if !env.events.has("run_completed") {
		t.Errorf("events = %v, want run_completed", env.events.emitted)
	}

	// Финальный выход запуска сохраняется на end-узле
	if output, ok := env.runs.outputs[*rid]; !ok || output["result"] != "final" {
		t.Errorf("run output = %v, want step input persisted", output)
	}
}

func TestExecuteStepStaleWorkflow(t *testing.T) {
	wf := linearWorkflow()

	t.Run("unknown workflow", func(t *testing.T) {
		env := newTestEnv(nil, nil)
		err := env.executor.ExecuteStep(context.Background(), stepPayload(wf, "s", nil, nil))
		if !errors.Is(err, ErrWorkflowNotFound) {
			t.Fatalf("err = %v, want ErrWorkflowNotFound", err)
		}
		if !isStaleStep(err) {
			t.Error("expected stale step classification")
		}
	})

	t.Run("deleted workflow", func(t *testing.T) {
		deleted := linearWorkflow()
		deleted.IsDeleted = true
		env := newTestEnv(deleted, nil)
		err := env.executor.ExecuteStep(context.Background(), stepPayload(deleted, "s", nil, nil))
		if !errors.Is(err, domain.ErrWorkflowDeleted) {
			t.Fatalf("err = %v, want ErrWorkflowDeleted", err)
		}
		if !isStaleStep(err) {
			t.Error("expected stale step classification")
		}
	})

	t.Run("unknown node", func(t *testing.T) {
		env := newTestEnv(wf, nil)
		err := env.executor.ExecuteStep(context.Background(), stepPayload(wf, "ghost", nil, nil))
		if !errors.Is(err, ErrNodeNotFound) {
			t.Fatalf("err = %v, want ErrNodeNotFound", err)
		}
		if !isStaleStep(err) {
			t.Error("expected stale step classification")
		}
	})
}

func TestExecuteStepBranchFailure(t *testing.T) {
	wf := linearWorkflow()
	wf.Nodes["c"] = &domain.Node{
		ID:   "c",
		Type: domain.NodeTypeIfElse,
		Config: domain.IfElseConfig{
			LHS:      "{{input.missing}}",
			RHS:      "1",
			Operator: "=",
		},
	}
	wf.Edges = append(wf.Edges, domain.Edge{Source: "c", Target: "e"})
	env := newTestEnv(wf, nil)

	err := env.executor.ExecuteStep(context.Background(), stepPayload(wf, "c", runID(), map[string]any{}))
	if err != nil {
		t.Fatalf("ExecuteStep: %v (branch failure must ack)", err)
	}

	if len(env.queue.jobs) != 0 {
		t.Errorf("jobs = %+v, want none after branch failure", env.queue.jobs)
	}
	if len(env.ledger.entries) != 1 || env.ledger.entries[0].Status != domain.LedgerStatusFailed {
		t.Fatalf("ledger entries = %+v, want single failed entry", env.ledger.entries)
	}
	if !env.events.has("node_error") || !env.events.has("run_error") {
		t.Errorf("events = %v, want node_error and run_error", env.events.emitted)
	}
}

func TestExecuteStepApprovalPause(t *testing.T) {
	wf := linearWorkflow()
	wf.Nodes["ap"] = &domain.Node{ID: "ap", Type: domain.NodeTypeUserApproval, Config: domain.ApprovalConfig{}}
	wf.Edges = append(wf.Edges, domain.Edge{Source: "ap", Target: "e"})
	env := newTestEnv(wf, nil)

	err := env.executor.ExecuteStep(context.Background(), stepPayload(wf, "ap", runID(), map[string]any{}))
	if err != nil {
		t.Fatalf("ExecuteStep: %v", err)
	}

	if len(env.queue.jobs) != 0 {
		t.Errorf("jobs = %+v, want none while waiting for approval", env.queue.jobs)
	}
	if len(env.ledger.entries) != 1 || env.ledger.entries[0].Status != domain.LedgerStatusWaitingApproval {
		t.Fatalf("ledger entries = %+v, want waiting_for_approval entry", env.ledger.entries)
	}
	if !env.events.has("approval_needed") {
		t.Errorf("events = %v, want approval_needed", env.events.emitted)
	}
}

func TestExecuteStepCreatesRunOnTrigger(t *testing.T) {
	wf := linearWorkflow()
	env := newTestEnv(wf, nil)

	input := map[string]any{"trigger": "cron"}
	err := env.executor.ExecuteStep(context.Background(), stepPayload(wf, "s", nil, input))
	if err != nil {
		t.Fatalf("ExecuteStep: %v", err)
	}

	// Триггер без run_id: исполнитель создаёт Run ровно один раз
	if len(env.runs.created) != 1 {
		t.Fatalf("created runs = %d, want 1", len(env.runs.created))
	}
	run := env.runs.created[0]
	if run.WorkflowID != wf.ID || run.UserID != wf.UserID {
		t.Errorf("run = %+v, want workflow %s owner %s", run, wf.ID, wf.UserID)
	}
	if run.Input["trigger"] != "cron" {
		t.Errorf("run input = %v, want trigger payload", run.Input)
	}

	if len(env.ledger.entries) != 1 || env.ledger.entries[0].RunID != run.ID {
		t.Fatalf("ledger entries = %+v, want single entry under run %s", env.ledger.entries, run.ID)
	}
	if len(env.queue.jobs) != 1 || env.queue.jobs[0].RunID == nil || *env.queue.jobs[0].RunID != run.ID {
		t.Fatalf("jobs = %+v, want successor carrying run %s", env.queue.jobs, run.ID)
	}
	if !env.events.has("run_started") {
		t.Errorf("events = %v, want run_started", env.events.emitted)
	}
}

func TestExecuteStepWithoutRun(t *testing.T) {
	wf := linearWorkflow()
	env := newTestEnv(wf, nil)

	err := env.executor.ExecuteStep(context.Background(), stepPayload(wf, "f", nil, map[string]any{"x": 1.0}))
	if err != nil {
		t.Fatalf("ExecuteStep: %v", err)
	}

	// Run создаётся только на start-узле; без RunID журнал не пишется,
	// но преемники ставятся в очередь
	if len(env.runs.created) != 0 {
		t.Errorf("created runs = %+v, want none for non-start node", env.runs.created)
	}
	if len(env.ledger.entries) != 0 {
		t.Errorf("ledger entries = %+v, want none without run", env.ledger.entries)
	}
	if len(env.queue.jobs) != 1 {
		t.Errorf("jobs = %+v, want 1", env.queue.jobs)
	}
	if env.runs.touched != 0 {
		t.Errorf("touched = %d, want 0", env.runs.touched)
	}
}

// TestExecuteRunEndToEnd прогоняет запуск целиком: каждый шаг,
// поставленный executor'ом в очередь, скармливается ему обратно,
// пока очередь не опустеет.
func TestExecuteRunEndToEnd(t *testing.T) {
	tests := []struct {
		name      string
		ready     string
		condition bool
		trace     []string
	}{
		{"true branch", "yes", true, []string{"s", "c", "a", "e"}},
		{"false branch", "no", false, []string{"s", "c", "b", "e"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wf := branchingWorkflow()
			env := newTestEnv(wf, nil)
			rid := runID()

			jobs := []mq.StepJobPayload{
				stepPayload(wf, domain.StartNodeAlias, rid, map[string]any{"ready": tt.ready}),
			}
			for steps := 0; len(jobs) > 0; steps++ {
				if steps > 10 {
					t.Fatal("queue did not drain")
				}
				job := jobs[0]
				jobs = jobs[1:]
				if err := env.executor.ExecuteStep(context.Background(), job); err != nil {
					t.Fatalf("ExecuteStep %s: %v", job.NodeID, err)
				}
				jobs = append(jobs, env.queue.jobs...)
				env.queue.jobs = nil
			}

			var trace []string
			for _, entry := range env.ledger.entries {
				trace = append(trace, entry.NodeID)
			}
			if !reflect.DeepEqual(trace, tt.trace) {
				t.Fatalf("ledger trace = %v, want %v", trace, tt.trace)
			}

			if env.ledger.entries[1].Output["condition"] != tt.condition {
				t.Errorf("condition = %v, want %v", env.ledger.entries[1].Output["condition"], tt.condition)
			}
			if !env.events.has("run_completed") {
				t.Errorf("events = %v, want run_completed", env.events.emitted)
			}
			if output := env.runs.outputs[*rid]; output["ready"] != tt.ready {
				t.Errorf("run output = %v, want input carried to the end node", output)
			}
		})
	}
}

func TestExecuteStepForkBranches(t *testing.T) {
	wf := &domain.Workflow{
		ID:     uuid.New(),
		Name:   "fan-out",
		UserID: uuid.New(),
		Nodes: map[string]*domain.Node{
			"f":  {ID: "f", Type: domain.NodeTypeFork, Config: domain.ForkConfig{}},
			"e1": {ID: "e1", Type: domain.NodeTypeEnd, Config: domain.EndConfig{}},
			"e2": {ID: "e2", Type: domain.NodeTypeEnd, Config: domain.EndConfig{}},
		},
		Edges: []domain.Edge{
			{Source: "f", Target: "e1"},
			{Source: "f", Target: "e2"},
		},
	}
	env := newTestEnv(wf, nil)

	err := env.executor.ExecuteStep(context.Background(), stepPayload(wf, "f", runID(), map[string]any{"x": 1.0}))
	if err != nil {
		t.Fatalf("ExecuteStep: %v", err)
	}

	if len(env.queue.jobs) != 2 {
		t.Fatalf("jobs = %+v, want 2 branches", env.queue.jobs)
	}
	if env.queue.jobs[0].NodeID != "e1" || env.queue.jobs[1].NodeID != "e2" {
		t.Errorf("branch order = %s, %s, want e1, e2", env.queue.jobs[0].NodeID, env.queue.jobs[1].NodeID)
	}

	// Журнал фиксирует ветки fork
	if len(env.ledger.entries) != 1 {
		t.Fatalf("ledger entries = %d, want 1", len(env.ledger.entries))
	}
	if env.ledger.entries[0].Output["branch_count"] != 2 {
		t.Errorf("branch_count = %v, want 2", env.ledger.entries[0].Output["branch_count"])
	}
}
