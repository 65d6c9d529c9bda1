package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrNoChannel возвращается, пока соединение не восстановлено.
var ErrNoChannel = errors.New("mq: no channel available")

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges.
const (
	ExchangeExecutions Exchange = "langweave.executions"
	ExchangeEvents     Exchange = "langweave.events"
	ExchangeDLQ        Exchange = "langweave.dlq"
)

// Queues.
const (
	QueueExecutionsPending Queue = "executions.pending"
	QueueDLQExecutions     Queue = "dlq.executions"
)

// Routing keys.
const (
	RoutingKeyPending       RoutingKey = "pending"
	RoutingKeyDLQExecutions RoutingKey = "executions"
)

// EventRoutingKey возвращает ключ события выполнения: execution.<id>.<event>.
func EventRoutingKey(executionID uuid.UUID, event string) RoutingKey {
	return RoutingKey("execution." + executionID.String() + "." + event)
}

// EventBindingKey возвращает шаблон, под который попадают все события выполнения.
func EventBindingKey(executionID uuid.UUID) RoutingKey {
	return RoutingKey("execution." + executionID.String() + ".*")
}

// ParseEventRoutingKey разбирает ключ, построенный EventRoutingKey.
func ParseEventRoutingKey(key RoutingKey) (uuid.UUID, string, error) {
	parts := strings.SplitN(string(key), ".", 3)
	if len(parts) != 3 || parts[0] != "execution" || parts[2] == "" {
		return uuid.Nil, "", fmt.Errorf("malformed event routing key %q", key)
	}
	id, err := uuid.Parse(parts[1])
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("malformed event routing key %q: %w", key, err)
	}
	return id, parts[2], nil
}

// SetupTopology объявляет exchanges, очереди и привязки. Идемпотентна.
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

func declareExchanges(ch *amqp.Channel) error {
	exchanges := []struct {
		name Exchange
		kind string
	}{
		{ExchangeExecutions, amqp.ExchangeDirect},
		{ExchangeEvents, amqp.ExchangeTopic},
		{ExchangeDLQ, amqp.ExchangeDirect},
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

func declareQueues(ch *amqp.Channel) error {
	queues := []struct {
		name Queue
		args amqp.Table
	}{
		// Отклонённые worker'ом выполнения уходят в dlq.executions
		{QueueExecutionsPending, amqp.Table{
			"x-dead-letter-exchange":    string(ExchangeDLQ),
			"x-dead-letter-routing-key": string(RoutingKeyDLQExecutions),
		}},
		{QueueDLQExecutions, nil},
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

func bindQueues(ch *amqp.Channel) error {
	bindings := []struct {
		queue      Queue
		routingKey RoutingKey
		exchange   Exchange
	}{
		{QueueExecutionsPending, RoutingKeyPending, ExchangeExecutions},
		{QueueDLQExecutions, RoutingKeyDLQExecutions, ExchangeDLQ},
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

// TopologyInfo возвращает описание топологии для логирования при старте.
func TopologyInfo() string {
	return `
  Langweave RabbitMQ Topology:

    langweave.executions (direct)
    └── executions.pending [routing: pending]
            Consumer: Worker
            DLQ: dlq.executions

    langweave.events (topic)
    └── execution.<id>.<event>
            Consumer: API (exclusive queue per websocket)

    langweave.dlq (direct)
    └── dlq.executions [routing: executions]
            Manual processing
`
}
