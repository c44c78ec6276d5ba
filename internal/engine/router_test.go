package engine

import (
	"reflect"
	"testing"

	"github.com/shaiso/Cogniflow/internal/domain"
)

func strPtr(s string) *string { return &s }

func testWorkflow(edges []domain.Edge) *domain.Workflow {
	return &domain.Workflow{
		Nodes: map[string]*domain.Node{
			"a": {ID: "a", Type: domain.NodeTypeStart, Config: domain.StartConfig{}},
			"b": {ID: "b", Type: domain.NodeTypeAgent, Config: domain.AgentConfig{}},
			"c": {ID: "c", Type: domain.NodeTypeAgent, Config: domain.AgentConfig{}},
			"d": {ID: "d", Type: domain.NodeTypeEnd, Config: domain.EndConfig{}},
		},
		Edges: edges,
	}
}

func TestNextNodesAllEdges(t *testing.T) {
	wf := testWorkflow([]domain.Edge{
		{Source: "a", Target: "b"},
		{Source: "a", Target: "c", SourceHandle: strPtr("true")},
		{Source: "b", Target: "d"},
	})

	got := NextNodes(wf, "a", nil)
	want := []string{"b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NextNodes(nil outcome) = %v, want %v", got, want)
	}
}

func TestNextNodesOutcomeFilters(t *testing.T) {
	wf := testWorkflow([]domain.Edge{
		{Source: "a", Target: "b", SourceHandle: strPtr("true")},
		{Source: "a", Target: "c", SourceHandle: strPtr("false")},
		{Source: "a", Target: "d"}, // безусловное ребро
	})

	tests := []struct {
		name    string
		outcome any
		want    []string
	}{
		{"string true", "true", []string{"b"}},
		{"bool true", true, []string{"b"}},
		{"bool false", false, []string{"c"}},
		{"case and spaces", "  TRUE ", []string{"b"}},
		{"no match", "maybe", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextNodes(wf, "a", tt.outcome)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NextNodes(%v) = %v, want %v", tt.outcome, got, tt.want)
			}
		})
	}
}

func TestNextNodesUnconditionalNotMatchedByOutcome(t *testing.T) {
	// При заданном исходе рёбра без handle не выбираются.
	wf := testWorkflow([]domain.Edge{
		{Source: "a", Target: "b"},
	})

	if got := NextNodes(wf, "a", "true"); got != nil {
		t.Errorf("NextNodes = %v, want nil", got)
	}
}

func TestNextNodesDeduplicatesPreservingOrder(t *testing.T) {
	wf := testWorkflow([]domain.Edge{
		{Source: "a", Target: "c"},
		{Source: "a", Target: "b"},
		{Source: "a", Target: "c"},
		{Source: "a", Target: "b"},
	})

	got := NextNodes(wf, "a", nil)
	want := []string{"c", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NextNodes = %v, want %v", got, want)
	}
}

func TestNextNodesNoOutgoing(t *testing.T) {
	wf := testWorkflow(nil)
	if got := NextNodes(wf, "a", nil); got != nil {
		t.Errorf("NextNodes = %v, want nil", got)
	}
}

func TestNormalizeOutcome(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{true, "true"},
		{false, "false"},
		{"Pass", "pass"},
		{"  FAIL  ", "fail"},
		{"yes", "yes"},
	}

	for _, tt := range tests {
		if got := NormalizeOutcome(tt.in); got != tt.want {
			t.Errorf("NormalizeOutcome(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
