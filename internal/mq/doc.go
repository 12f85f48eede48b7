// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением (reconnect, graceful shutdown)
//   - topology.go   — объявление exchange и очереди аудита
//   - publisher.go  — публикация событий жизненного цикла (telemetry.Sink)
//
// Nodeflow выполняет workflow внутри одного процесса, поэтому очередь
// используется только как исходящая шина событий: внешние системы
// подписываются на "workflow.*" и "node.*" для аудита и интеграций.
// Потребление сообщений движком не предусмотрено.
package mq
