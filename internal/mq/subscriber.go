package mq

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// SubscribeEvents слушает события одного выполнения.
//
// Для подписки объявляется эксклюзивная auto-delete очередь, привязанная
// к execution.<id>.*; брокер удаляет её после отмены consumer'а.
// fn вызывается для каждого события; возврат false завершает подписку.
// SubscribeEvents блокируется до отмены ctx, false от fn или закрытия канала.
func (c *Connection) SubscribeEvents(ctx context.Context, executionID uuid.UUID, fn func(ExecutionEventPayload) bool) error {
	var (
		deliveries <-chan amqp.Delivery
		channel    *amqp.Channel
		tag        = "events-" + uuid.NewString()
	)

	err := c.WithChannel(ctx, func(ch *amqp.Channel) error {
		q, err := ch.QueueDeclare(
			"",    // имя генерирует брокер
			false, // durable
			true,  // delete when unused
			true,  // exclusive
			false, // no-wait
			nil,
		)
		if err != nil {
			return fmt.Errorf("declare event queue: %w", err)
		}

		if err := ch.QueueBind(q.Name, string(EventBindingKey(executionID)), string(ExchangeEvents), false, nil); err != nil {
			return fmt.Errorf("bind event queue: %w", err)
		}

		deliveries, err = ch.Consume(q.Name, tag, true, true, false, false, nil)
		if err != nil {
			return fmt.Errorf("consume event queue: %w", err)
		}
		channel = ch
		return nil
	})
	if err != nil {
		return err
	}
	defer channel.Cancel(tag, false)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-deliveries:
			if !ok {
				return ErrNoChannel
			}
			event, err := decodeEvent(raw.Body)
			if err != nil {
				c.logger.Warn("skip malformed event", "execution_id", executionID, "error", err)
				continue
			}
			if !fn(event) {
				return nil
			}
		}
	}
}

// decodeEvent разбирает конверт Message с ExecutionEventPayload внутри.
func decodeEvent(body []byte) (ExecutionEventPayload, error) {
	msg, err := decodeMessage(body)
	if err != nil {
		return ExecutionEventPayload{}, err
	}
	if msg.Type != MessageTypeExecutionEvent {
		return ExecutionEventPayload{}, fmt.Errorf("unexpected message type %q", msg.Type)
	}
	return ParsePayload[ExecutionEventPayload](&msg)
}
