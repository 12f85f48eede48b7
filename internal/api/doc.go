// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go           — Handler с DI (движок, реестр узлов, репозиторий, logger)
//   - routes.go            — регистрация маршрутов
//   - middleware.go        — middleware (logging, recovery)
//   - response.go          — унифицированные JSON-ответы и обработка ошибок
//   - dto.go               — Data Transfer Objects (request/response)
//   - workflow_handler.go  — обработчики для /workflows и /node-types
//   - execution_handler.go — обработчики для /executions
//
// API предоставляет REST endpoints для регистрации workflows, их запуска
// и опроса статуса выполнений. Запуск асинхронный: POST executions
// возвращает execution_id сразу, результат забирается отдельным GET.
package api
