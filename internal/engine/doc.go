// Package engine содержит слой определения и планирования workflow.
//
// Включает:
//   - loader.go    — загрузка определений из YAML/JSON, нормализация диалектов
//   - validator.go — полная валидация определения (все находки разом)
//   - planner.go   — построение плана выполнения (уровни топологической сортировки)
//
// Engine отвечает за понимание структуры workflow и определение порядка
// выполнения узлов; само выполнение — в internal/orchestrator.
package engine
