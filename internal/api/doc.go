// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go          — Handler с DI (репозитории, publisher, hub, logger)
//   - routes.go           — регистрация маршрутов
//   - middleware.go       — middleware (logging, recovery)
//   - response.go         — унифицированные JSON-ответы и обработка ошибок
//   - dto.go              — Data Transfer Objects (request/response)
//   - workflow_handler.go — обработчики для /workflows
//   - run_handler.go      — обработчики для /runs (запуск, журнал, approval)
//   - tool_handler.go     — обработчики для /tools
//   - schedule_handler.go — обработчики для /schedules
//   - events_handler.go   — websocket-подписка на события workflow
//
// API предоставляет REST endpoints для управления workflows, runs,
// tools и schedules, плюс websocket для live-событий выполнения.
package api
