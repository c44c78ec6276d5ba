// Package cli реализует инструмент командной строки Cogniflow.
//
// # Обзор
//
// CLI — клиентская утилита для взаимодействия с Cogniflow API.
// Работает через HTTP, не импортирует внутренние пакеты системы.
// CLI используется для управления workflows, runs, tools и schedules.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Cogniflow API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (DataResponse, ListResponse, ErrorResponse)
// и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8080", userID)
//	workflows, err := client.ListWorkflows()
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: cogniflow workflow list --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - workflow: list, create, show, update, delete
//   - run: start, list, show, ledger, approve
//   - tool: list, create, show, delete
//   - schedule: list, create, show, update, delete, enable, disable
//
// Каждая группа создаётся через фабричную функцию (NewWorkflowCmd и т.д.),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
