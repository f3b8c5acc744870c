package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"newsletter-go/internal/models"
)

// amqpChannel is the subset of *amqp.Channel the publisher needs.
type amqpChannel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type AMQPPublisher struct {
	mu     sync.Mutex
	conn   *amqp.Connection
	ch     amqpChannel
	queue  string
	tracer trace.Tracer
}

// DialAMQP connects to the broker and declares queue as durable.
func DialAMQP(url, queue string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	p, err := newAMQPPublisher(ch, queue)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

func newAMQPPublisher(ch amqpChannel, queue string) (*AMQPPublisher, error) {
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	return &AMQPPublisher{
		ch:     ch,
		queue:  queue,
		tracer: otel.Tracer("amqp.publisher"),
	}, nil
}

func (p *AMQPPublisher) PublishSubscriptionCreated(ctx context.Context, event models.SubscriptionCreatedEvent) error {
	ctx, span := p.tracer.Start(ctx, "subscription.events.publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("subscriber.id", event.SubscriberID),
			attribute.String("messaging.system", "rabbitmq"),
			attribute.String("messaging.destination", p.queue),
			attribute.String("operation", "queue.publish"),
		))
	defer span.End()

	body, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    event.SubscriberID,
		Body:         body,
	}

	// amqp channels are not safe for concurrent publishes.
	p.mu.Lock()
	err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg)
	p.mu.Unlock()
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("publish to %s: %w", p.queue, err)
	}

	span.SetAttributes(attribute.Bool("success", true))
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
