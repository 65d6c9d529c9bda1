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
	MessageTypeExecutionPending MessageType = "execution.pending"
	MessageTypeExecutionEvent   MessageType = "execution.event"
)

// Message — конверт сообщения.
type Message struct {
	ID        string      `json:"id"`
	Type      MessageType `json:"type"`
	Payload   any         `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// ExecutionPendingPayload — выполнение создано и ждёт worker'а.
type ExecutionPendingPayload struct {
	ExecutionID uuid.UUID `json:"execution_id"`
}

// ExecutionEventPayload — событие выполнения, которое worker транслирует
// подписчикам (токен, завершение узла, завершение flow, ошибка).
type ExecutionEventPayload struct {
	ExecutionID uuid.UUID `json:"execution_id"`
	Event       string    `json:"event"`
	NodeID      string    `json:"node_id,omitempty"`
	Data        any       `json:"data,omitempty"`
	Error       string    `json:"error,omitempty"`
}

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

// Publish публикует сообщение в exchange с routing key.
// persistent=false используется для событий: они не нужны после рестарта брокера.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message, persistent bool) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	mode := amqp.Transient
	if persistent {
		mode = amqp.Persistent
	}

	return p.conn.withPublishChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),
			string(routingKey),
			false, // mandatory
			false, // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: mode,
				MessageId:    msg.ID,
				Type:         string(msg.Type),
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

// PublishExecutionPending сообщает worker'ам о новом выполнении.
func (p *Publisher) PublishExecutionPending(ctx context.Context, executionID uuid.UUID) error {
	msg := newMessage(MessageTypeExecutionPending, ExecutionPendingPayload{ExecutionID: executionID})
	return p.Publish(ctx, ExchangeExecutions, RoutingKeyPending, msg, true)
}

// PublishEvent транслирует событие выполнения в langweave.events.
func (p *Publisher) PublishEvent(ctx context.Context, payload ExecutionEventPayload) error {
	msg := newMessage(MessageTypeExecutionEvent, payload)
	return p.Publish(ctx, ExchangeEvents, EventRoutingKey(payload.ExecutionID, payload.Event), msg, false)
}

func newMessage(msgType MessageType, payload any) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}
