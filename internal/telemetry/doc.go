// Package telemetry обеспечивает наблюдаемость системы.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики
//   - events.go  — события жизненного цикла выполнения (Sink)
//
// Формат логирования управляется переменными LOG_LEVEL и LOG_FORMAT.
// Метрики экспортируются на /metrics endpoint сервера.
// События публикуются в лог и, при настроенном RabbitMQ, во внешнюю шину.
package telemetry
