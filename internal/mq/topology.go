package mq

import (
	"context"
	"fmt"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — имя обменника.
type Exchange string

// Queue — имя очереди.
type Queue string

// RoutingKey — ключ маршрутизации.
type RoutingKey string

// Exchanges.
const (
	ExchangeInvocations Exchange = "toolflow.invocations"
	ExchangeExecutions  Exchange = "toolflow.executions"
	ExchangeDLQ         Exchange = "toolflow.dlq"
)

// Queues.
const (
	QueueInvocationsRequested Queue = "invocations.requested"
	QueueExecutionsFinished   Queue = "executions.finished"
	QueueDLQInvocations       Queue = "dlq.invocations"
)

// Routing keys.
const (
	RoutingKeyRequested      RoutingKey = "requested"
	RoutingKeyFinished       RoutingKey = "finished"
	RoutingKeyDLQInvocations RoutingKey = "invocations"
)

// ExchangeSpec — объявление обменника.
type ExchangeSpec struct {
	Name Exchange
	Kind string
}

// QueueSpec — объявление очереди.
type QueueSpec struct {
	Name Queue
	Args amqp.Table
}

// BindingSpec — привязка очереди к обменнику.
type BindingSpec struct {
	Queue      Queue
	RoutingKey RoutingKey
	Exchange   Exchange
}

// Topology — полный набор объявлений.
type Topology struct {
	Exchanges []ExchangeSpec
	Queues    []QueueSpec
	Bindings  []BindingSpec
}

// DefaultTopology возвращает топологию toolflow.
//
// Вызовы, которые worker отклонил без повтора, уходят в dlq.invocations.
// executions.finished — очередь для внешних подписчиков.
func DefaultTopology() Topology {
	return Topology{
		Exchanges: []ExchangeSpec{
			{ExchangeInvocations, amqp.ExchangeDirect},
			{ExchangeExecutions, amqp.ExchangeDirect},
			{ExchangeDLQ, amqp.ExchangeDirect},
		},
		Queues: []QueueSpec{
			{QueueInvocationsRequested, amqp.Table{
				"x-dead-letter-exchange":    string(ExchangeDLQ),
				"x-dead-letter-routing-key": string(RoutingKeyDLQInvocations),
			}},
			{QueueExecutionsFinished, nil},
			{QueueDLQInvocations, nil},
		},
		Bindings: []BindingSpec{
			{QueueInvocationsRequested, RoutingKeyRequested, ExchangeInvocations},
			{QueueExecutionsFinished, RoutingKeyFinished, ExchangeExecutions},
			{QueueDLQInvocations, RoutingKeyDLQInvocations, ExchangeDLQ},
		},
	}
}

// SetupTopology объявляет топологию по умолчанию.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		return DefaultTopology().Declare(ch)
	})
}

// Declare объявляет exchanges, queues и bindings. Все объекты durable.
func (t Topology) Declare(ch *amqp.Channel) error {
	for _, ex := range t.Exchanges {
		if err := ch.ExchangeDeclare(string(ex.Name), ex.Kind, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.Name, err)
		}
	}

	for _, q := range t.Queues {
		if _, err := ch.QueueDeclare(string(q.Name), true, false, false, false, q.Args); err != nil {
			return fmt.Errorf("declare queue %s: %w", q.Name, err)
		}
	}

	for _, b := range t.Bindings {
		if err := ch.QueueBind(string(b.Queue), string(b.RoutingKey), string(b.Exchange), false, nil); err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.Queue, b.Exchange, err)
		}
	}

	return nil
}

// Validate проверяет, что привязки ссылаются на объявленные объекты.
func (t Topology) Validate() error {
	exchanges := make(map[Exchange]bool, len(t.Exchanges))
	for _, ex := range t.Exchanges {
		exchanges[ex.Name] = true
	}
	queues := make(map[Queue]bool, len(t.Queues))
	for _, q := range t.Queues {
		queues[q.Name] = true
	}

	for _, b := range t.Bindings {
		if !exchanges[b.Exchange] {
			return fmt.Errorf("binding %s: unknown exchange %s", b.Queue, b.Exchange)
		}
		if !queues[b.Queue] {
			return fmt.Errorf("binding %s: unknown queue", b.Queue)
		}
	}
	for _, q := range t.Queues {
		if dlx, ok := q.Args["x-dead-letter-exchange"].(string); ok && !exchanges[Exchange(dlx)] {
			return fmt.Errorf("queue %s: unknown dead letter exchange %s", q.Name, dlx)
		}
	}
	return nil
}

// String описывает топологию для логов.
func (t Topology) String() string {
	var b strings.Builder
	for _, ex := range t.Exchanges {
		fmt.Fprintf(&b, "%s (%s)\n", ex.Name, ex.Kind)
		for _, bind := range t.Bindings {
			if bind.Exchange == ex.Name {
				fmt.Fprintf(&b, "  └── %s [routing: %s]\n", bind.Queue, bind.RoutingKey)
			}
		}
	}
	return b.String()
}
