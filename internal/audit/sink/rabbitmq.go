package sink

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"zkid/internal/audit"
)

// RabbitMQ publishes persistent messages to a durable topic exchange with
// the action as routing key, so consumers can bind to e.g. "kyc_*".
type RabbitMQ struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

func NewRabbitMQ(url, exchange string) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &RabbitMQ{conn: conn, channel: ch, exchange: exchange}, nil
}

func (r *RabbitMQ) Publish(ctx context.Context, event audit.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	err = r.channel.PublishWithContext(ctx, r.exchange, string(event.Action), false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		Timestamp:    event.Timestamp,
		MessageId:    event.ID.String(),
		DeliveryMode: amqp.Persistent,
	})
	if err != nil {
		return fmt.Errorf("publish audit event: %w", err)
	}
	return nil
}

func (r *RabbitMQ) Close() error {
	_ = r.channel.Close()
	return r.conn.Close()
}
