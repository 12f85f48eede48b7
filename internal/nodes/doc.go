// Package nodes содержит контракт узла workflow и встроенные типы узлов.
//
// # Интерфейс Node
//
// Все узлы реализуют единый жизненный цикл:
//
//	ValidateConfig() → Setup(ctx) → Execute(ctx, input, run) → Stop()
//
// Execute может вызываться повторно из-за retry-политики, поэтому узлы
// обязаны быть безопасны для повторного вызова. Stop — best-effort отмена,
// вызывается при остановке workflow и при завершении процесса.
//
// # Registry
//
// Registry — потокобезопасный реестр типов узлов. Каждый тип описывается
// TypeInfo: имя, категория, schema конфигурации и фабрика экземпляров.
// Повторная регистрация типа перезаписывает предыдущую (последняя
// выигрывает). При создании узла реестр разрешает ссылки "secret://NAME"
// в credentials через secrets.Resolver.
//
//	registry := nodes.DefaultRegistry(resolver, logger)
//	node, err := registry.Create("http_request", "fetch", config, credentials)
//
// # Встроенные типы узлов
//
//   - file_reader  (file_read.go)  — чтение файла, JSON или текст
//   - file_writer  (file_write.go) — запись/дозапись файла
//   - transform    (transform.go)  — mappings/merge/defaults над входом
//   - logger       (logger.go)     — структурированный лог через slog
//   - http_request (http.go)       — HTTP запрос с аутентификацией и retry
//
// # Обработка ошибок
//
// Узлы возвращают типизированные ошибки:
//
//	var (
//	    ErrNodeTypeNotFound   // тип не найден в реестре
//	    ErrInvalidConfig      // неверная конфигурация
//	    ErrSetupFailed        // инициализация не удалась
//	    ErrExecutionCancelled // context cancelled
//	)
//
// Retry-политика уровня workflow находится в orchestrator; узел http_request
// дополнительно несёт собственный retry для сетевых ошибок и статусов
// 429/5xx (пакет retry).
package nodes
