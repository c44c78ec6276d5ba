package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	// ExchangeSteps — задания шагов workflow (direct).
	ExchangeSteps Exchange = "cogniflow.steps"

	// ExchangeEvents — события выполнения (topic).
	// Ключ маршрутизации: workflow_events.<workflow_id>.
	ExchangeEvents Exchange = "cogniflow.events"

	// ExchangeDLQ — dead letter exchange (direct).
	ExchangeDLQ Exchange = "cogniflow.dlq"
)

// Queues — имена очередей.
const (
	// QueueStepsReady — шаги, готовые к выполнению. Потребитель: Worker.
	QueueStepsReady Queue = "steps.ready"

	// QueueDLQSteps — шаги, исчерпавшие retry. Разбор вручную.
	QueueDLQSteps Queue = "dlq.steps"
)

// Routing keys.
const (
	RoutingKeyStepsReady RoutingKey = "ready"
	RoutingKeyDLQSteps   RoutingKey = "steps"

	// EventRoutingPrefix — префикс ключей маршрутизации событий.
	EventRoutingPrefix = "workflow_events"

	// EventRoutingAll — шаблон подписки на события всех workflow.
	EventRoutingAll = EventRoutingPrefix + ".#"
)

// EventRoutingKey возвращает ключ маршрутизации событий workflow.
func EventRoutingKey(workflowID string) RoutingKey {
	return RoutingKey(EventRoutingPrefix + "." + workflowID)
}

// SetupTopology объявляет обменники, очереди и привязки.
// Идемпотентна: безопасно вызывать из каждого процесса при старте.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		if err := declareExchanges(ch); err != nil {
			return err
		}
		if err := declareQueues(ch); err != nil {
			return err
		}
		return bindQueues(ch)
	})
}

// declareExchanges создаёт обменники.
func declareExchanges(ch *amqp.Channel) error {
	exchanges := []struct {
		name Exchange
		kind string
	}{
		{ExchangeSteps, "direct"},
		{ExchangeEvents, "topic"},
		{ExchangeDLQ, "direct"},
	}

	for _, ex := range exchanges {
		err := ch.ExchangeDeclare(
			string(ex.name), // name
			ex.kind,         // type
			true,            // durable
			false,           // auto-deleted
			false,           // internal
			false,           // no-wait
			nil,             // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.name, err)
		}
	}

	return nil
}

// declareQueues создаёт очереди.
func declareQueues(ch *amqp.Channel) error {
	// steps.ready уходит в DLQ после исчерпания retry
	dlqArgs := amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeDLQ),
		"x-dead-letter-routing-key": string(RoutingKeyDLQSteps),
	}

	queues := []struct {
		name Queue
		args amqp.Table
	}{
		{QueueStepsReady, dlqArgs},
		{QueueDLQSteps, nil},
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			string(q.name), // name
			true,           // durable
			false,          // delete when unused
			false,          // exclusive
			false,          // no-wait
			q.args,         // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}

	return nil
}

// bindQueues привязывает очереди к обменникам.
func bindQueues(ch *amqp.Channel) error {
	bindings := []struct {
		queue      Queue
		routingKey RoutingKey
		exchange   Exchange
	}{
		{QueueStepsReady, RoutingKeyStepsReady, ExchangeSteps},
		{QueueDLQSteps, RoutingKeyDLQSteps, ExchangeDLQ},
	}

	for _, b := range bindings {
		err := ch.QueueBind(
			string(b.queue),      // queue name
			string(b.routingKey), // routing key
			string(b.exchange),   // exchange
			false,                // no-wait
			nil,                  // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}

	return nil
}

// DeclareEventQueue объявляет эксклюзивную очередь событий и привязывает
// её к обменнику событий по шаблону (например, "workflow_events.#").
// Очереди даёт имя сервер; она исчезает вместе с соединением.
func DeclareEventQueue(ctx context.Context, conn *Connection, pattern string) (string, error) {
	var queueName string
	err := conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		q, err := ch.QueueDeclare(
			"",    // name (server-generated)
			false, // durable
			true,  // delete when unused
			true,  // exclusive
			false, // no-wait
			nil,   // arguments
		)
		if err != nil {
			return fmt.Errorf("declare event queue: %w", err)
		}
		if err := ch.QueueBind(q.Name, pattern, string(ExchangeEvents), false, nil); err != nil {
			return fmt.Errorf("bind event queue %s: %w", q.Name, err)
		}
		queueName = q.Name
		return nil
	})
	return queueName, err
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  Cogniflow RabbitMQ Topology:

    cogniflow.steps (direct)
    └── steps.ready [routing: ready]
            Consumer: Worker
            DLQ: dlq.steps

    cogniflow.events (topic)
    └── <server-named> [routing: workflow_events.#]
            Consumer: Event relay (websocket)

    cogniflow.dlq (direct)
    └── dlq.steps [routing: steps]
            Manual processing
  `
}
