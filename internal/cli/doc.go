// Package cli реализует инструмент командной строки Nodeflow.
//
// # Обзор
//
// CLI — клиентская утилита для взаимодействия с Nodeflow API.
// Работает через HTTP, не импортирует внутренние пакеты движка.
// CLI используется для регистрации workflows, их запуска и опроса
// статуса выполнений.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Nodeflow API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (DataResponse, ListResponse, ErrorResponse)
// и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8080")
//	workflows, err := client.ListWorkflows()
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: nodeflow workflow list --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - workflow: list, register, show, definition, delete
//   - execution: start, show, cancel
//   - node-types
//
// Каждая группа создаётся через фабричную функцию (NewWorkflowCmd и т.д.),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
