package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/shaiso/Cogniflow/internal/mq"
)

// Relay пересылает события из обменника RabbitMQ в websocket-hub.
//
// Каждый процесс API держит собственную эксклюзивную очередь,
// привязанную к шаблону workflow_events.#: события любого workflow
// доходят до каждого процесса, а тот раздаёт их своим подписчикам.
type Relay struct {
	conn   *mq.Connection
	hub    *Hub
	logger *slog.Logger

	consumer *mq.Consumer
}

// NewRelay создаёт relay поверх hub.
func NewRelay(conn *mq.Connection, hub *Hub, logger *slog.Logger) *Relay {
	return &Relay{conn: conn, hub: hub, logger: logger}
}

// Start объявляет очередь событий и потребляет её до отмены контекста.
func (r *Relay) Start(ctx context.Context) error {
	queue, err := mq.DeclareEventQueue(ctx, r.conn, mq.EventRoutingAll)
	if err != nil {
		return err
	}

	r.logger.Info("event relay started", "queue", queue)

	r.consumer = mq.NewConsumer(r.conn, r.logger, mq.ConsumerConfig{
		Queue:   queue,
		Handler: r.handle,
		// События независимы, забираем пачками
		Prefetch: 32,
	})

	return r.consumer.Start(ctx)
}

// Stop останавливает потребление.
func (r *Relay) Stop() {
	if r.consumer != nil {
		r.consumer.Stop()
	}
}

// handle пересылает одно событие подписчикам его workflow.
// Всегда возвращает nil: события не ретраятся.
func (r *Relay) handle(ctx context.Context, msg *mq.Delivery) error {
	workflowID, ok := workflowIDFromRoutingKey(msg.RoutingKey)
	if !ok {
		r.logger.Warn("event with malformed routing key", "routing_key", msg.RoutingKey)
		return nil
	}

	payload, err := json.Marshal(msg.Message.Payload)
	if err != nil {
		r.logger.Warn("failed to marshal event payload", "error", err)
		return nil
	}

	r.hub.Broadcast(workflowID, payload)
	return nil
}

// workflowIDFromRoutingKey извлекает ID workflow из ключа
// workflow_events.<workflow_id>.
func workflowIDFromRoutingKey(key string) (uuid.UUID, bool) {
	suffix, found := strings.CutPrefix(key, mq.EventRoutingPrefix+".")
	if !found {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(suffix)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
