package engine

import (
	"sort"

	"github.com/shaiso/Nodeflow/internal/domain"
)

// Plan строит план выполнения: последовательность уровней.
//
// Уровень — множество узлов, не зависящих друг от друга; узлы одного уровня
// выполняются конкурентно, уровни — строго по очереди. Алгоритм: для каждого
// узла собираем множество зависимостей по рёбрам, затем итеративно извлекаем
// узлы с пустым множеством зависимостей и вычёркиваем их из оставшихся.
//
// Если извлекать нечего, а узлы остались — в графе цикл: возвращается
// CycleError с перечнем зависших узлов. Это защитная проверка на случай,
// когда планирование вызывается без предварительной валидации.
//
// Узлы внутри уровня отсортированы по ID, что делает план детерминированным.
func Plan(def *domain.WorkflowDefinition) ([][]string, error) {
	dependencies := make(map[string]map[string]bool, len(def.Nodes))
	for id := range def.Nodes {
		dependencies[id] = make(map[string]bool)
	}

	for _, edge := range def.Edges {
		if _, ok := dependencies[edge.Target]; !ok {
			continue // ребро вне множества узлов отсеивает валидатор
		}
		if _, ok := dependencies[edge.Source]; !ok {
			continue
		}
		dependencies[edge.Target][edge.Source] = true
	}

	plan := make([][]string, 0)
	remaining := len(dependencies)

	for remaining > 0 {
		level := make([]string, 0)
		for id, deps := range dependencies {
			if len(deps) == 0 {
				level = append(level, id)
			}
		}

		if len(level) == 0 {
			stranded := make([]string, 0, remaining)
			for id := range dependencies {
				stranded = append(stranded, id)
			}
			sort.Strings(stranded)
			return nil, &CycleError{Stranded: stranded}
		}

		sort.Strings(level)
		plan = append(plan, level)

		for _, id := range level {
			delete(dependencies, id)
		}
		for _, deps := range dependencies {
			for _, id := range level {
				delete(deps, id)
			}
		}
		remaining -= len(level)
	}

	return plan, nil
}

// RequiredNodes вычисляет полное множество обязательных узлов.
//
// Узел обязателен, если:
//   - он явно помечен required (по умолчанию все узлы обязательны);
//   - на него ссылается объявленный output workflow;
//   - он питает (транзитивно, по любому пути) обязательный узел.
func RequiredNodes(def *domain.WorkflowDefinition) map[string]bool {
	required := make(map[string]bool, len(def.Nodes))

	for id, node := range def.Nodes {
		if node.IsRequired() {
			required[id] = true
		}
	}
	for _, out := range def.Outputs {
		if _, ok := def.Nodes[out.Node]; ok {
			required[out.Node] = true
		}
	}

	// Обратное распространение по рёбрам до неподвижной точки.
	for {
		changed := false
		for _, edge := range def.Edges {
			if required[edge.Target] && !required[edge.Source] {
				if _, ok := def.Nodes[edge.Source]; ok {
					required[edge.Source] = true
					changed = true
				}
			}
		}
		if !changed {
			return required
		}
	}
}
