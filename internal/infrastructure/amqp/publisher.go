package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/sngm3741/delicious/api/internal/catalog/application"
)

// Publisher sends store events to a durable RabbitMQ queue.
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
	logger  *slog.Logger
}

// NewPublisher dials url and declares queueName. Declaring is idempotent.
func NewPublisher(url, queueName string, logger *slog.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare queue %q: %w", queueName, err)
	}
	logger.Info("rabbitmq queue declared", "queue", q.Name, "messages", q.Messages)

	return &Publisher{conn: conn, channel: ch, queue: q, logger: logger}, nil
}

func (p *Publisher) PublishStoreEvent(ctx context.Context, event application.StoreEvent) error {
	msg, err := encodeEvent(event)
	if err != nil {
		return err
	}

	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := p.channel.PublishWithContext(publishCtx, "", p.queue.Name, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}
	p.logger.Debug("store event published", "queue", p.queue.Name, "type", event.Type, "storeId", event.StoreID)
	return nil
}

func (p *Publisher) Close() {
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.logger.Warn("error closing rabbitmq channel", "error", err)
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			p.logger.Warn("error closing rabbitmq connection", "error", err)
		}
	}
}

func encodeEvent(event application.StoreEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal %s event: %w", event.Type, err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         event.Type,
		MessageId:    event.StoreID + ":" + event.OccurredAt.Format(time.RFC3339Nano),
		Timestamp:    event.OccurredAt,
		Body:         body,
	}, nil
}

// LogPublisher stands in when no broker is configured. Events are only logged.
type LogPublisher struct {
	Logger *slog.Logger
}

func (p LogPublisher) PublishStoreEvent(_ context.Context, event application.StoreEvent) error {
	p.Logger.Debug("store event (no broker)", "type", event.Type, "storeId", event.StoreID, "slug", event.Slug)
	return nil
}
