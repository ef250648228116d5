// Package queue publishes shop events to a RabbitMQ queue for downstream
// displays.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/edirooss/barbershop/internal/shop"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const DefaultQueue = "barbershop.events"

// Publisher sends events to a durable queue over a single channel.
// amqp091 channels are not safe for concurrent publishing, so Publish is
// serialized.
type Publisher struct {
	log   *zap.Logger
	queue string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// Dial connects to url, opens a channel and declares queue (durable).
func Dial(log *zap.Logger, url, queue string) (*Publisher, error) {
	if queue == "" {
		queue = DefaultQueue
	}
	log = log.Named("amqp").With(zap.String("queue", queue))

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("channel open: %w", err)
	}

	if _, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("queue declare: %w", err)
	}

	log.Info("broker connected")
	return &Publisher{log: log, queue: queue, conn: conn, ch: ch}, nil
}

// Publish implements eventsink.Publisher.
func (p *Publisher) Publish(ctx context.Context, e shop.Event) error {
	msg, err := message(e)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		msg,
	); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Close tears down the channel and connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	chErr := p.ch.Close()
	connErr := p.conn.Close()
	if chErr != nil {
		return fmt.Errorf("channel close: %w", chErr)
	}
	if connErr != nil {
		return fmt.Errorf("connection close: %w", connErr)
	}
	return nil
}

func message(e shop.Event) (amqp.Publishing, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Transient, // events are not persisted
		Timestamp:    e.At.UTC().Truncate(time.Second),
		Type:         string(e.Kind),
		MessageId:    fmt.Sprintf("%d", e.Seq),
		Body:         body,
	}, nil
}
