// Package orchestrator реализует движок выполнения workflow.
//
// Engine регистрирует определения, запускает выполнения и ведёт их
// жизненный цикл:
//
//	REGISTERED → RUNNING → {COMPLETED | FAILED | STOPPED}
//
// Запуск fire-and-track: Execute возвращает execution_id сразу после
// планирования, результат наблюдается через GetExecutionStatus. Число
// одновременных выполнений ограничено weighted-семафором; внутри одного
// выполнения узлы уровня выполняются конкурентно без ограничения.
//
// Структура:
//   - engine.go   — Engine: регистрация, запуск, планировщик расписаний
//   - run.go      — драйвер одного выполнения: уровни, маршрутизация
//     данных, политика обязательных узлов, сборка результата
//   - context.go  — ExecutionContext: состояние запуска, снапшоты
//   - instance.go — NodeInstance: статусы и тайминги узла
//   - errors.go   — NodeExecutionError, WorkflowError, sentinel ошибки
package orchestrator
