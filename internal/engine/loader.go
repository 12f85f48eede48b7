package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shaiso/Nodeflow/internal/domain"
)

// Loader загружает определения workflow из YAML/JSON файлов.
//
// Каноническая форма рёбер — source/target (+ source_output, target_input).
// Дополнительно принимается форма from/to с dotted-адресацией
// ("node.field.path"); она нормализуется в каноническую при разборе:
//
//	{from: "a.data.items", to: "b.items"}
//	  → {source: "a", source_output: "data.items", target: "b", target_input: "items"}
//
// Узлы принимаются и как map (ID в ключе), и как список (ID в поле id).
type Loader struct {
	// Dir — каталог по умолчанию для поиска определений по имени.
	Dir string
}

// NewLoader создаёт Loader с каталогом определений.
func NewLoader(dir string) *Loader {
	return &Loader{Dir: dir}
}

// Load загружает определение по пути или имени.
//
// Если путь не существует, имя ищется в Dir с расширениями .yaml/.yml/.json.
func (l *Loader) Load(pathOrName string) (*domain.WorkflowDefinition, error) {
	path, err := l.resolve(pathOrName)
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// resolve превращает имя workflow в путь к файлу.
func (l *Loader) resolve(pathOrName string) (string, error) {
	if _, err := os.Stat(pathOrName); err == nil {
		return pathOrName, nil
	}

	for _, ext := range []string{".yaml", ".yml", ".json"} {
		candidate := filepath.Join(l.Dir, pathOrName+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("workflow definition not found: %s", pathOrName)
}

// LoadFile загружает определение workflow из файла.
func LoadFile(path string) (*domain.WorkflowDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workflow file: %w", err)
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDefinition, path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	case ".json":
		return ParseJSON(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// ParseYAML разбирает YAML-документ с определением workflow.
func ParseYAML(data []byte) (*domain.WorkflowDefinition, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse YAML workflow: %w", err)
	}
	return FromMap(doc)
}

// ParseJSON разбирает JSON-документ с определением workflow.
func ParseJSON(data []byte) (*domain.WorkflowDefinition, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse JSON workflow: %w", err)
	}
	return FromMap(doc)
}

// FromMap строит WorkflowDefinition из разобранного документа,
// нормализуя оба диалекта рёбер и обе формы списка узлов.
func FromMap(doc map[string]any) (*domain.WorkflowDefinition, error) {
	if len(doc) == 0 {
		return nil, ErrEmptyDefinition
	}

	def := &domain.WorkflowDefinition{
		ID:      asString(doc["id"]),
		Name:    asString(doc["name"]),
		Version: asString(doc["version"]),
	}

	nodes, err := parseNodes(doc["nodes"])
	if err != nil {
		return nil, err
	}
	def.Nodes = nodes

	edgesRaw := doc["edges"]
	if edgesRaw == nil {
		edgesRaw = doc["connections"]
	}
	edges, err := parseEdges(edgesRaw)
	if err != nil {
		return nil, err
	}
	def.Edges = edges

	outputs, err := parseOutputs(doc["outputs"])
	if err != nil {
		return nil, err
	}
	def.Outputs = outputs

	if sched := asMap(doc["schedule"]); sched != nil {
		def.Schedule = &domain.Schedule{
			Type:            asString(sched["type"]),
			IntervalSeconds: asInt(sched["interval_seconds"]),
			CronExpr:        asString(sched["cron_expr"]),
			Timezone:        asString(sched["timezone"]),
		}
	}

	return def, nil
}

// parseNodes принимает узлы в форме map (ID в ключе) или списка (ID в поле id).
func parseNodes(raw any) (map[string]domain.NodeDefinition, error) {
	nodes := make(map[string]domain.NodeDefinition)

	switch v := raw.(type) {
	case nil:
		return nodes, nil

	case map[string]any:
		for id, item := range v {
			m := asMap(item)
			if m == nil {
				return nil, fmt.Errorf("node %q: definition must be a mapping", id)
			}
			nodes[id] = nodeFromMap(id, m)
		}

	case []any:
		for i, item := range v {
			m := asMap(item)
			if m == nil {
				return nil, fmt.Errorf("nodes[%d]: definition must be a mapping", i)
			}
			id := asString(m["id"])
			if id == "" {
				return nil, fmt.Errorf("nodes[%d]: missing node id", i)
			}
			if _, exists := nodes[id]; exists {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateNodeID, id)
			}
			nodes[id] = nodeFromMap(id, m)
		}

	default:
		return nil, fmt.Errorf("nodes must be a mapping or a list, got %T", raw)
	}

	return nodes, nil
}

// nodeFromMap строит NodeDefinition из разобранного описания.
func nodeFromMap(id string, m map[string]any) domain.NodeDefinition {
	node := domain.NodeDefinition{
		ID:          id,
		Type:        asString(m["type"]),
		Name:        asString(m["name"]),
		Config:      asMap(m["config"]),
		Credentials: asMap(m["credentials"]),
	}
	if required, ok := m["required"].(bool); ok {
		node.Required = &required
	}
	return node
}

// parseEdges нормализует рёбра из обоих диалектов.
func parseEdges(raw any) ([]domain.Edge, error) {
	if raw == nil {
		return nil, nil
	}

	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("edges must be a list, got %T", raw)
	}

	edges := make([]domain.Edge, 0, len(items))
	for i, item := range items {
		m := asMap(item)
		if m == nil {
			return nil, fmt.Errorf("edges[%d]: edge must be a mapping", i)
		}

		var edge domain.Edge
		if from := asString(m["from"]); from != "" || asString(m["to"]) != "" {
			edge.Source, edge.SourceOutput = splitDottedRef(from)
			edge.Target, edge.TargetInput = splitDottedRef(asString(m["to"]))
		} else {
			edge = domain.Edge{
				Source:       asString(m["source"]),
				Target:       asString(m["target"]),
				SourceOutput: asString(m["source_output"]),
				TargetInput:  asString(m["target_input"]),
			}
		}
		edges = append(edges, edge)
	}

	return edges, nil
}

// splitDottedRef разбирает "node.path.to.field" на ID узла и путь.
func splitDottedRef(ref string) (node, path string) {
	node, path, found := strings.Cut(ref, ".")
	if !found {
		return ref, ""
	}
	return node, path
}

// parseOutputs строит декларации выходных полей.
func parseOutputs(raw any) (map[string]domain.OutputDef, error) {
	if raw == nil {
		return nil, nil
	}

	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("outputs must be a mapping, got %T", raw)
	}

	outputs := make(map[string]domain.OutputDef, len(m))
	for name, item := range m {
		om := asMap(item)
		if om == nil {
			return nil, fmt.Errorf("output %q: definition must be a mapping", name)
		}
		outputs[name] = domain.OutputDef{
			Node: asString(om["node"]),
			Path: asString(om["path"]),
		}
	}
	return outputs, nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
