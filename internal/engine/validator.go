package engine

import (
	"fmt"
	"sort"

	"github.com/shaiso/Nodeflow/internal/domain"
	"github.com/shaiso/Nodeflow/internal/nodes"
)

// Validate выполняет полную валидацию определения workflow.
//
// Возвращает список всех находок (не первую ошибку), чтобы определение можно
// было исправить за один проход. Пустой список означает валидное определение.
//
// Порядок проверок; категории, делающие последующие проверки бессмысленными,
// прерывают процесс:
//  1. Есть хотя бы один узел.
//  2. Тип каждого узла известен реестру.
//  3. Конфигурация каждого узла проходит ValidateConfig его типа
//     (узел создаётся транзиентно; ошибки создания — находка, не паника).
//  4. При наличии ошибок уровня узлов структурные проверки пропускаются:
//     рёбра и циклы на невалидных узлах вводили бы в заблуждение.
//  5. Рёбра и outputs ссылаются на существующие узлы, target_input непустой.
//  6. Поиск циклов обходом в глубину; найденный цикл возвращается целиком
//     ("a -> b -> c -> a") одной ошибкой.
//
// Узлы обходятся в отсортированном порядке, поэтому отчёт детерминирован.
func Validate(def *domain.WorkflowDefinition, registry *nodes.Registry) []error {
	if def == nil || len(def.Nodes) == 0 {
		return []error{NewValidationError("", "nodes", "workflow has no nodes", ErrNoNodes)}
	}

	findings := make([]error, 0)

	for _, id := range sortedNodeIDs(def) {
		node := def.Nodes[id]
		findings = append(findings, validateNode(id, &node, registry)...)
	}

	if len(findings) > 0 {
		return findings
	}

	findings = append(findings, validateEdges(def)...)
	findings = append(findings, validateOutputs(def)...)

	if cycle := findCycle(def); cycle != nil {
		findings = append(findings, cycle)
	}

	return findings
}

// validateNode проверяет тип и конфигурацию одного узла.
func validateNode(id string, node *domain.NodeDefinition, registry *nodes.Registry) []error {
	if node.Type == "" {
		return []error{NewValidationError(id, "type", "node has empty type", ErrUnknownNodeType)}
	}

	if !registry.Has(node.Type) {
		return []error{NewValidationError(id, "type",
			fmt.Sprintf("unknown node type: %s", node.Type), ErrUnknownNodeType)}
	}

	// Транзиентный экземпляр только ради ValidateConfig: у типа узла своё
	// представление о валидной конфигурации.
	instance, err := registry.Create(node.Type, id, node.Config, node.Credentials)
	if err != nil {
		return []error{NewValidationError(id, "config",
			fmt.Sprintf("failed to instantiate node: %v", err), ErrInvalidNodeConfig)}
	}

	if err := instance.ValidateConfig(); err != nil {
		return []error{NewValidationError(id, "config", err.Error(), ErrInvalidNodeConfig)}
	}

	return nil
}

// validateEdges проверяет ссылки рёбер на узлы.
func validateEdges(def *domain.WorkflowDefinition) []error {
	findings := make([]error, 0)

	for i, edge := range def.Edges {
		if edge.Source == "" || edge.Target == "" {
			findings = append(findings, NewValidationError("", fmt.Sprintf("edges[%d]", i),
				"edge is missing source or target", ErrMissingEdgeEndpoint))
			continue
		}
		if _, ok := def.Nodes[edge.Source]; !ok {
			findings = append(findings, NewValidationError(edge.Source, fmt.Sprintf("edges[%d].source", i),
				fmt.Sprintf("edge source node not found: %s", edge.Source), ErrMissingEdgeEndpoint))
		}
		if _, ok := def.Nodes[edge.Target]; !ok {
			findings = append(findings, NewValidationError(edge.Target, fmt.Sprintf("edges[%d].target", i),
				fmt.Sprintf("edge target node not found: %s", edge.Target), ErrMissingEdgeEndpoint))
		}
		if edge.EffectiveTargetInput() == "" {
			findings = append(findings, NewValidationError(edge.Target, fmt.Sprintf("edges[%d].target_input", i),
				"edge has empty target_input", ErrEmptyTargetInput))
		}
	}

	return findings
}

// validateOutputs проверяет ссылки объявленных outputs на узлы.
func validateOutputs(def *domain.WorkflowDefinition) []error {
	findings := make([]error, 0)

	names := make([]string, 0, len(def.Outputs))
	for name := range def.Outputs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		out := def.Outputs[name]
		if _, ok := def.Nodes[out.Node]; !ok {
			findings = append(findings, NewValidationError(out.Node, "outputs."+name,
				fmt.Sprintf("output %q references unknown node: %s", name, out.Node), ErrMissingOutputNode))
		}
	}

	return findings
}

// findCycle ищет цикл обходом в глубину со стеком рекурсии.
//
// Возвращает первый цикл в порядке обхода (узлы обходятся по
// отсортированным ID) — один CycleError с полным путём цикла.
func findCycle(def *domain.WorkflowDefinition) *CycleError {
	adjacency := make(map[string][]string, len(def.Nodes))
	for _, edge := range def.Edges {
		adjacency[edge.Source] = append(adjacency[edge.Source], edge.Target)
	}
	for _, targets := range adjacency {
		sort.Strings(targets)
	}

	visited := make(map[string]bool, len(def.Nodes))
	onStack := make(map[string]bool, len(def.Nodes))
	stack := make([]string, 0, len(def.Nodes))

	var dfs func(id string) *CycleError
	dfs = func(id string) *CycleError {
		visited[id] = true
		onStack[id] = true
		stack = append(stack, id)

		for _, next := range adjacency[id] {
			if onStack[next] {
				// Цикл: отрезаем путь от первого вхождения next и замыкаем.
				start := 0
				for i, v := range stack {
					if v == next {
						start = i
						break
					}
				}
				path := append(append([]string{}, stack[start:]...), next)
				return &CycleError{Path: path}
			}
			if !visited[next] {
				if cycle := dfs(next); cycle != nil {
					return cycle
				}
			}
		}

		onStack[id] = false
		stack = stack[:len(stack)-1]
		return nil
	}

	for _, id := range sortedNodeIDs(def) {
		if !visited[id] {
			if cycle := dfs(id); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// sortedNodeIDs возвращает ID узлов в отсортированном порядке.
func sortedNodeIDs(def *domain.WorkflowDefinition) []string {
	ids := make([]string, 0, len(def.Nodes))
	for id := range def.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
