package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeStepReady     MessageType = "step.ready"
	MessageTypeWorkflowEvent MessageType = "workflow.event"
)

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// StepJobPayload — задание на выполнение одного узла workflow.
//
// Это единица работы движка: worker снимает задание, выполняет узел
// и ставит задания преемников. RunID == nil допустим только для
// сервисных запусков без журнала.
type StepJobPayload struct {
	// WorkflowID — выполняемый workflow.
	WorkflowID uuid.UUID `json:"workflow_id"`

	// NodeID — узел к выполнению. Допустим псевдоним "start_node".
	NodeID string `json:"node_id"`

	// UserID — инициатор запуска.
	UserID uuid.UUID `json:"user_id"`

	// RunID — запуск, к которому относится шаг.
	RunID *uuid.UUID `json:"run_id,omitempty"`

	// Input — входные данные узла.
	Input map[string]any `json:"input,omitempty"`
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)

		return nil
	})
}

// PublishStepReady ставит шаг workflow в очередь выполнения.
// Потребитель: Worker.
func (p *Publisher) PublishStepReady(ctx context.Context, payload StepJobPayload) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeStepReady,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeSteps, RoutingKeyStepsReady, msg)
}

// PublishWorkflowEvent публикует событие выполнения в topic-обменник.
// Потребители: event relay процессов API.
func (p *Publisher) PublishWorkflowEvent(ctx context.Context, workflowID uuid.UUID, payload any) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeWorkflowEvent,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeEvents, EventRoutingKey(workflowID.String()), msg)
}
