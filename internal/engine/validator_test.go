package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shaiso/Nodeflow/internal/domain"
	"github.com/shaiso/Nodeflow/internal/nodes"
)

// stubNode — минимальный узел для проверки валидатора.
type stubNode struct {
	id        string
	configErr error
}

func (n *stubNode) Type() string          { return "emit" }
func (n *stubNode) ValidateConfig() error { return n.configErr }
func (n *stubNode) Setup(context.Context) error {
	return nil
}
func (n *stubNode) Execute(ctx context.Context, input map[string]any, run nodes.RunContext) (map[string]any, error) {
	return map[string]any{"ok": true}, nil
}
func (n *stubNode) Stop() {}

func stubRegistry(t *testing.T) *nodes.Registry {
	t.Helper()
	registry := nodes.NewRegistry(nil)
	registry.Register(nodes.TypeInfo{
		Type: "emit",
		New: func(nodeID string, config, credentials map[string]any) nodes.Node {
			node := &stubNode{id: nodeID}
			if bad, ok := config["bad"].(bool); ok && bad {
				node.configErr = errors.New("bad config")
			}
			return node
		},
	})
	return registry
}

func TestValidate_ValidDefinition(t *testing.T) {
	def := defWithEdges([]string{"a", "b"}, []domain.Edge{
		{Source: "a", Target: "b"},
	})

	findings := Validate(def, stubRegistry(t))
	if len(findings) != 0 {
		t.Errorf("expected no findings, got %v", findings)
	}
}

func TestValidate_NoNodes(t *testing.T) {
	def := &domain.WorkflowDefinition{Name: "empty"}

	findings := Validate(def, stubRegistry(t))
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	if !errors.Is(findings[0], ErrNoNodes) {
		t.Errorf("expected ErrNoNodes, got %v", findings[0])
	}
}

func TestValidate_UnknownNodeType(t *testing.T) {
	def := defWithEdges([]string{"a"}, nil)
	node := def.Nodes["a"]
	node.Type = "bogus"
	def.Nodes["a"] = node

	findings := Validate(def, stubRegistry(t))
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	if !errors.Is(findings[0], ErrUnknownNodeType) {
		t.Errorf("expected ErrUnknownNodeType, got %v", findings[0])
	}
}

func TestValidate_InvalidNodeConfig(t *testing.T) {
	def := defWithEdges([]string{"a"}, nil)
	node := def.Nodes["a"]
	node.Config = map[string]any{"bad": true}
	def.Nodes["a"] = node

	findings := Validate(def, stubRegistry(t))
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	if !errors.Is(findings[0], ErrInvalidNodeConfig) {
		t.Errorf("expected ErrInvalidNodeConfig, got %v", findings[0])
	}
}

func TestValidate_CollectsAllNodeFindings(t *testing.T) {
	// Два невалидных узла — обе находки в одном отчёте.
	def := defWithEdges([]string{"a", "b"}, nil)
	for _, id := range []string{"a", "b"} {
		node := def.Nodes[id]
		node.Type = "bogus"
		def.Nodes[id] = node
	}

	findings := Validate(def, stubRegistry(t))
	if len(findings) != 2 {
		t.Fatalf("expected 2 findings, got %d: %v", len(findings), findings)
	}
}

func TestValidate_EdgeEndpoints(t *testing.T) {
	def := defWithEdges([]string{"a"}, []domain.Edge{
		{Source: "ghost", Target: "a"},
		{Source: "a", Target: "phantom"},
	})

	findings := Validate(def, stubRegistry(t))
	if len(findings) != 2 {
		t.Fatalf("expected 2 findings, got %d: %v", len(findings), findings)
	}
	for _, finding := range findings {
		if !errors.Is(finding, ErrMissingEdgeEndpoint) {
			t.Errorf("expected ErrMissingEdgeEndpoint, got %v", finding)
		}
	}
}

func TestValidate_OutputReferencesUnknownNode(t *testing.T) {
	def := defWithEdges([]string{"a"}, nil)
	def.Outputs = map[string]domain.OutputDef{
		"result": {Node: "nope"},
	}

	findings := Validate(def, stubRegistry(t))
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	if !errors.Is(findings[0], ErrMissingOutputNode) {
		t.Errorf("expected ErrMissingOutputNode, got %v", findings[0])
	}
}

func TestValidate_CycleReportedWithFullPath(t *testing.T) {
	def := defWithEdges([]string{"a", "b", "c"}, []domain.Edge{
		{Source: "a", Target: "b"},
		{Source: "b", Target: "c"},
		{Source: "c", Target: "a"},
	})

	findings := Validate(def, stubRegistry(t))
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d: %v", len(findings), findings)
	}
	if !errors.Is(findings[0], ErrCyclicDependency) {
		t.Fatalf("expected ErrCyclicDependency, got %v", findings[0])
	}

	// Путь цикла замкнут: последний элемент равен первому
	var cycle *CycleError
	if !errors.As(findings[0], &cycle) {
		t.Fatalf("expected CycleError, got %T", findings[0])
	}
	if len(cycle.Path) != 4 || cycle.Path[0] != cycle.Path[len(cycle.Path)-1] {
		t.Errorf("expected closed cycle path, got %v", cycle.Path)
	}
	if !strings.Contains(cycle.Error(), " -> ") {
		t.Errorf("cycle error should render the path, got %q", cycle.Error())
	}
}

func TestValidate_SkipsStructuralChecksOnNodeErrors(t *testing.T) {
	// Невалидный узел + битое ребро: отчёт содержит только находку узла,
	// структурные проверки на невалидных узлах вводили бы в заблуждение.
	def := defWithEdges([]string{"a"}, []domain.Edge{
		{Source: "a", Target: "phantom"},
	})
	node := def.Nodes["a"]
	node.Type = "bogus"
	def.Nodes["a"] = node

	findings := Validate(def, stubRegistry(t))
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d: %v", len(findings), findings)
	}
	if !errors.Is(findings[0], ErrUnknownNodeType) {
		t.Errorf("expected ErrUnknownNodeType, got %v", findings[0])
	}
}
