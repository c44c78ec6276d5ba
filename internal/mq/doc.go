// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация сообщений
//   - consumer.go   — потребление сообщений
//
// Типы сообщений:
//   - step.ready       — шаг workflow готов к выполнению
//   - workflow.event   — событие выполнения для live-подписчиков
//
// Exchanges:
//   - cogniflow.steps  — задания шагов (direct)
//   - cogniflow.events — события выполнения (topic, ключ workflow_events.<id>)
//   - cogniflow.dlq    — dead letter queue
package mq
