// Package domain содержит модель данных Nodeflow.
//
// Основные типы:
//   - WorkflowDefinition — декларативный граф узлов и рёбер
//   - NodeDefinition — определение одного узла (тип, конфиг, credentials)
//   - Edge — зависимость source → target с маршрутизацией данных
//   - OutputDef — декларация выходного поля workflow
//   - Schedule — расписание автозапуска (interval или cron)
//
// Статусы:
//   - WorkflowStatus — REGISTERED/RUNNING/COMPLETED/FAILED/STOPPED
//   - ExecutionStatus — created/running/completed/failed/cancelled
//   - NodeStatus — pending/initializing/ready/running/completed/failed/skipped/stopped
//
// Пакет не содержит логики выполнения — только данные и простые методы
// доступа. Логика графа (валидация, планирование) живёт в internal/engine,
// выполнение — в internal/orchestrator.
package domain
