package nodes

import (
	"context"
	"fmt"

	"dario.cat/mergo"

	"github.com/shaiso/Nodeflow/internal/domain"
)

// NodeTypeTransform — тип узла трансформации данных.
const NodeTypeTransform = "transform"

// TransformNode — узел трансформации данных фиксированным словарём операций.
//
// Словарь операций намеренно закрытый — никакого скриптового языка:
//
//	{
//	    "mappings": {               // dotted-path извлечение из входа
//	        "user_name": "fetch.content.user.name",
//	        "items": "fetch.content.items"
//	    },
//	    "defaults": {               // литеральные значения для отсутствующих ключей
//	        "source": "nodeflow"
//	    },
//	    "merge": ["a", "b"]         // ключи входа, чьи map-значения сливаются в результат
//	}
//
// Порядок применения: mappings → merge → defaults (default не перетирает
// уже извлечённое). Отсутствующий путь даёт nil, не ошибку.
//
// Outputs: результат трансформации как плоская map.
type TransformNode struct {
	id     string
	config map[string]any
}

// TransformInfo возвращает описание типа для реестра.
func TransformInfo() TypeInfo {
	return TypeInfo{
		Type:     NodeTypeTransform,
		Category: "data",
		Schema: map[string]any{
			"mappings": map[string]any{"type": "object"},
			"defaults": map[string]any{"type": "object"},
			"merge":    map[string]any{"type": "array"},
		},
		New: func(nodeID string, config, _ map[string]any) Node {
			return &TransformNode{id: nodeID, config: config}
		},
	}
}

// Type возвращает тип узла.
func (n *TransformNode) Type() string {
	return NodeTypeTransform
}

// ValidateConfig требует хотя бы одну операцию.
func (n *TransformNode) ValidateConfig() error {
	mappings := GetConfigMapString(n.config, "mappings")
	defaults := GetConfigMap(n.config, "defaults")
	merge := n.mergeKeys()

	if len(mappings) == 0 && len(defaults) == 0 && len(merge) == 0 {
		return fmt.Errorf("%w: transform requires \"mappings\", \"defaults\" or \"merge\"", ErrInvalidConfig)
	}
	return nil
}

// Setup не требует ресурсов.
func (n *TransformNode) Setup(_ context.Context) error {
	return nil
}

// Execute применяет операции к входным данным.
func (n *TransformNode) Execute(ctx context.Context, input map[string]any, _ RunContext) (map[string]any, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrExecutionCancelled, ctx.Err())
	default:
	}

	outputs := make(map[string]any)

	for key, path := range GetConfigMapString(n.config, "mappings") {
		outputs[key] = domain.ExtractPath(input, path)
	}

	for _, key := range n.mergeKeys() {
		m, ok := input[key].(map[string]any)
		if !ok {
			continue
		}
		if err := mergo.Merge(&outputs, m); err != nil {
			return nil, fmt.Errorf("merge %q: %w", key, err)
		}
	}

	for key, value := range GetConfigMap(n.config, "defaults") {
		if _, exists := outputs[key]; !exists || outputs[key] == nil {
			outputs[key] = value
		}
	}

	return outputs, nil
}

// Stop не держит ресурсов.
func (n *TransformNode) Stop() {}

// mergeKeys извлекает список ключей для операции merge.
func (n *TransformNode) mergeKeys() []string {
	raw, ok := n.config["merge"].([]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			keys = append(keys, s)
		}
	}
	return keys
}
