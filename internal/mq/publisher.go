package mq

import (
	"context"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Publish отправляет сообщение в exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(ctx,
			string(exchange),
			string(routingKey),
			false, // mandatory
			false, // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
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

// PublishInvocationRequested ставит вызов flow в очередь.
// Потребитель: worker.
func (p *Publisher) PublishInvocationRequested(ctx context.Context, payload InvocationRequestedPayload) error {
	msg, err := NewMessage(MessageTypeInvocationRequested, payload)
	if err != nil {
		return err
	}
	return p.Publish(ctx, ExchangeInvocations, RoutingKeyRequested, msg)
}

// PublishExecutionFinished сообщает о завершении вызова.
func (p *Publisher) PublishExecutionFinished(ctx context.Context, payload ExecutionFinishedPayload) error {
	msg, err := NewMessage(MessageTypeExecutionFinished, payload)
	if err != nil {
		return err
	}
	return p.Publish(ctx, ExchangeExecutions, RoutingKeyFinished, msg)
}
