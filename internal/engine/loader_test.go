package engine

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const yamlChain = `
name: fetch-and-store
version: "1.2"
nodes:
  fetch:
    type: http_request
    config:
      url: https://example.com/api
  store:
    type: file_write
    config:
      path: /tmp/out.json
edges:
  - source: fetch
    source_output: body.items
    target: store
    target_input: data
outputs:
  items:
    node: fetch
    path: body.items
schedule:
  type: interval
  interval_seconds: 300
`

func TestParseYAML_CanonicalEdges(t *testing.T) {
	def, err := ParseYAML([]byte(yamlChain))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if def.Name != "fetch-and-store" {
		t.Errorf("expected name fetch-and-store, got %q", def.Name)
	}
	if def.Version != "1.2" {
		t.Errorf("expected version 1.2, got %q", def.Version)
	}
	if len(def.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(def.Nodes))
	}
	if def.Nodes["fetch"].Type != "http_request" {
		t.Errorf("expected node type http_request, got %q", def.Nodes["fetch"].Type)
	}

	if len(def.Edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(def.Edges))
	}
	edge := def.Edges[0]
	if edge.Source != "fetch" || edge.Target != "store" {
		t.Errorf("unexpected edge endpoints: %+v", edge)
	}
	if edge.SourceOutput != "body.items" || edge.TargetInput != "data" {
		t.Errorf("unexpected edge routing: %+v", edge)
	}

	out, ok := def.Outputs["items"]
	if !ok {
		t.Fatal("expected output items")
	}
	if out.Node != "fetch" || out.Path != "body.items" {
		t.Errorf("unexpected output: %+v", out)
	}

	if def.Schedule == nil || !def.Schedule.IsInterval() || def.Schedule.IntervalSeconds != 300 {
		t.Errorf("unexpected schedule: %+v", def.Schedule)
	}
}

func TestParseYAML_DottedDialect(t *testing.T) {
	// Диалект from/to с dotted-адресацией нормализуется в канонический
	doc := `
name: dialects
nodes:
  - id: a
    type: http_request
  - id: b
    type: transform
edges:
  - from: a.data.items
    to: b.items
`
	def, err := ParseYAML([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(def.Edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(def.Edges))
	}
	edge := def.Edges[0]
	if edge.Source != "a" || edge.SourceOutput != "data.items" {
		t.Errorf("expected source a/data.items, got %s/%s", edge.Source, edge.SourceOutput)
	}
	if edge.Target != "b" || edge.TargetInput != "items" {
		t.Errorf("expected target b/items, got %s/%s", edge.Target, edge.TargetInput)
	}
}

func TestParseYAML_NodeListForm(t *testing.T) {
	doc := `
name: list-form
nodes:
  - id: first
    type: logger
  - id: second
    type: logger
    required: false
`
	def, err := ParseYAML([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(def.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(def.Nodes))
	}
	first := def.Nodes["first"]
	if !first.IsRequired() {
		t.Error("node without required flag should default to required")
	}
	second := def.Nodes["second"]
	if second.IsRequired() {
		t.Error("node with required: false should be optional")
	}
}

func TestParseYAML_DuplicateNodeID(t *testing.T) {
	doc := `
name: dupes
nodes:
  - id: a
    type: logger
  - id: a
    type: logger
`
	_, err := ParseYAML([]byte(doc))
	if !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("expected ErrDuplicateNodeID, got %v", err)
	}
}

func TestParseJSON(t *testing.T) {
	doc := `{
		"name": "json-def",
		"nodes": {
			"n1": {"type": "logger", "config": {"level": "info"}}
		}
	}`

	def, err := ParseJSON([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if def.Name != "json-def" {
		t.Errorf("expected name json-def, got %q", def.Name)
	}
	if def.Nodes["n1"].Config["level"] != "info" {
		t.Errorf("unexpected node config: %v", def.Nodes["n1"].Config)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "wf.yaml")
	if err := os.WriteFile(path, []byte(yamlChain), 0o644); err != nil {
		t.Fatal(err)
	}

	def, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if def.Name != "fetch-and-store" {
		t.Errorf("expected name fetch-and-store, got %q", def.Name)
	}
}

func TestLoadFile_Empty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(path, []byte("  \n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFile(path); !errors.Is(err, ErrEmptyDefinition) {
		t.Errorf("expected ErrEmptyDefinition, got %v", err)
	}
}

func TestLoadFile_UnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wf.toml")
	if err := os.WriteFile(path, []byte("name = 'x'"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFile(path); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestLoader_ResolvesNameInDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.yml")
	if err := os.WriteFile(path, []byte(yamlChain), 0o644); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader(dir)
	def, err := loader.Load("pipeline")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if def.Name != "fetch-and-store" {
		t.Errorf("expected name fetch-and-store, got %q", def.Name)
	}
}

func TestFromMap_Empty(t *testing.T) {
	if _, err := FromMap(nil); !errors.Is(err, ErrEmptyDefinition) {
		t.Errorf("expected ErrEmptyDefinition, got %v", err)
	}
}
