package engine

import (
	"errors"
	"reflect"
	"testing"

	"github.com/shaiso/Nodeflow/internal/domain"
)

func defWithEdges(nodeIDs []string, edges []domain.Edge) *domain.WorkflowDefinition {
	nodes := make(map[string]domain.NodeDefinition, len(nodeIDs))
	for _, id := range nodeIDs {
		nodes[id] = domain.NodeDefinition{ID: id, Type: "emit"}
	}
	return &domain.WorkflowDefinition{
		Name:  "test",
		Nodes: nodes,
		Edges: edges,
	}
}

func TestPlan_SimpleChain(t *testing.T) {
	def := defWithEdges([]string{"a", "b", "c"}, []domain.Edge{
		{Source: "a", Target: "b"},
		{Source: "b", Target: "c"},
	})

	plan, err := Plan(def)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := [][]string{{"a"}, {"b"}, {"c"}}
	if !reflect.DeepEqual(plan, want) {
		t.Errorf("expected plan %v, got %v", want, plan)
	}
}

func TestPlan_Diamond(t *testing.T) {
	// A → B → D
	// A → C → D
	def := defWithEdges([]string{"A", "B", "C", "D"}, []domain.Edge{
		{Source: "A", Target: "B"},
		{Source: "A", Target: "C"},
		{Source: "B", Target: "D"},
		{Source: "C", Target: "D"},
	})

	plan, err := Plan(def)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// B и C независимы и попадают в один уровень, отсортированные по ID
	want := [][]string{{"A"}, {"B", "C"}, {"D"}}
	if !reflect.DeepEqual(plan, want) {
		t.Errorf("expected plan %v, got %v", want, plan)
	}
}

func TestPlan_NoEdges(t *testing.T) {
	def := defWithEdges([]string{"x", "y", "z"}, nil)

	plan, err := Plan(def)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Все узлы независимы — один уровень
	if len(plan) != 1 {
		t.Fatalf("expected 1 level, got %d", len(plan))
	}
	want := []string{"x", "y", "z"}
	if !reflect.DeepEqual(plan[0], want) {
		t.Errorf("expected level %v, got %v", want, plan[0])
	}
}

func TestPlan_CycleDetected(t *testing.T) {
	def := defWithEdges([]string{"a", "b", "c"}, []domain.Edge{
		{Source: "a", Target: "b"},
		{Source: "b", Target: "c"},
		{Source: "c", Target: "a"},
	})

	_, err := Plan(def)
	if err == nil {
		t.Fatal("expected cycle error")
	}
	if !errors.Is(err, ErrCyclicDependency) {
		t.Errorf("expected ErrCyclicDependency, got %v", err)
	}

	var cycle *CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("expected CycleError, got %T", err)
	}
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(cycle.Stranded, want) {
		t.Errorf("expected stranded nodes %v, got %v", want, cycle.Stranded)
	}
}

func TestPlan_IgnoresEdgesOutsideNodeSet(t *testing.T) {
	def := defWithEdges([]string{"a", "b"}, []domain.Edge{
		{Source: "a", Target: "b"},
		{Source: "ghost", Target: "b"},
		{Source: "a", Target: "phantom"},
	})

	plan, err := Plan(def)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := [][]string{{"a"}, {"b"}}
	if !reflect.DeepEqual(plan, want) {
		t.Errorf("expected plan %v, got %v", want, plan)
	}
}

func TestRequiredNodes_DefaultAllRequired(t *testing.T) {
	def := defWithEdges([]string{"a", "b"}, []domain.Edge{
		{Source: "a", Target: "b"},
	})

	required := RequiredNodes(def)
	if !required["a"] || !required["b"] {
		t.Errorf("all nodes should be required by default, got %v", required)
	}
}

func TestRequiredNodes_BackwardPropagation(t *testing.T) {
	// a → b → c; только c помечен обязательным,
	// но a и b питают его и становятся обязательными транзитивно.
	def := defWithEdges([]string{"a", "b", "c"}, []domain.Edge{
		{Source: "a", Target: "b"},
		{Source: "b", Target: "c"},
	})
	markOptional(def, "a", "b")

	required := RequiredNodes(def)
	for _, id := range []string{"a", "b", "c"} {
		if !required[id] {
			t.Errorf("node %s should be required through propagation", id)
		}
	}
}

func TestRequiredNodes_OptionalBranch(t *testing.T) {
	// a → b (optional, ни во что обязательное не питает)
	// a → c (required)
	def := defWithEdges([]string{"a", "b", "c"}, []domain.Edge{
		{Source: "a", Target: "b"},
		{Source: "a", Target: "c"},
	})
	markOptional(def, "b")

	required := RequiredNodes(def)
	if required["b"] {
		t.Error("node b should stay optional")
	}
	if !required["a"] || !required["c"] {
		t.Errorf("nodes a and c should be required, got %v", required)
	}
}

func TestRequiredNodes_OutputReference(t *testing.T) {
	def := defWithEdges([]string{"a", "b"}, []domain.Edge{
		{Source: "a", Target: "b"},
	})
	markOptional(def, "a", "b")
	def.Outputs = map[string]domain.OutputDef{
		"result": {Node: "b"},
	}

	required := RequiredNodes(def)
	if !required["b"] {
		t.Error("node referenced by output should be required")
	}
	if !required["a"] {
		t.Error("node feeding an output node should be required")
	}
}

func markOptional(def *domain.WorkflowDefinition, ids ...string) {
	optional := false
	for _, id := range ids {
		node := def.Nodes[id]
		node.Required = &optional
		def.Nodes[id] = node
	}
}
