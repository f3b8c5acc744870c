package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"newsletter-go/internal/models"
)

// SubscriberRepository stores confirmed subscription records.
// Implementations must be safe for concurrent use.
type SubscriberRepository interface {
	Create(ctx context.Context, subscriber *models.Subscriber) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Subscriber, error)
	GetAll(ctx context.Context) ([]*models.Subscriber, error)
	Close() error
}

type InMemorySubscriberRepository struct {
	mu          sync.RWMutex
	subscribers map[uuid.UUID]*models.Subscriber
	tracer      trace.Tracer
}

func NewInMemorySubscriberRepository() *InMemorySubscriberRepository {
	return &InMemorySubscriberRepository{
		subscribers: make(map[uuid.UUID]*models.Subscriber),
		tracer:      otel.Tracer("subscriber-repository"),
	}
}

func (r *InMemorySubscriberRepository) Create(ctx context.Context, subscriber *models.Subscriber) error {
	_, span := r.tracer.Start(ctx, "subscriber.repository.create",
		trace.WithAttributes(
			attribute.String("subscriber.id", subscriber.ID.String()),
			attribute.String("subscriber.email", subscriber.Email),
			attribute.String("operation", "database.write"),
		))
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.subscribers[subscriber.ID]; exists {
		err := fmt.Errorf("subscriber with ID %s already exists", subscriber.ID)
		span.RecordError(err)
		return err
	}

	stored := *subscriber
	r.subscribers[subscriber.ID] = &stored
	span.SetAttributes(attribute.Bool("success", true))
	return nil
}

func (r *InMemorySubscriberRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Subscriber, error) {
	_, span := r.tracer.Start(ctx, "subscriber.repository.get_by_id",
		trace.WithAttributes(
			attribute.String("subscriber.id", id.String()),
			attribute.String("operation", "database.read"),
		))
	defer span.End()

	r.mu.RLock()
	defer r.mu.RUnlock()

	subscriber, exists := r.subscribers[id]
	if !exists {
		span.SetAttributes(attribute.Bool("found", false))
		return nil, models.ErrSubscriberNotFound
	}

	out := *subscriber
	span.SetAttributes(attribute.Bool("success", true))
	return &out, nil
}

// GetAll returns subscribers ordered by subscription time.
func (r *InMemorySubscriberRepository) GetAll(ctx context.Context) ([]*models.Subscriber, error) {
	_, span := r.tracer.Start(ctx, "subscriber.repository.get_all",
		trace.WithAttributes(
			attribute.String("operation", "database.read"),
		))
	defer span.End()

	r.mu.RLock()
	subscribers := make([]*models.Subscriber, 0, len(r.subscribers))
	for _, subscriber := range r.subscribers {
		out := *subscriber
		subscribers = append(subscribers, &out)
	}
	r.mu.RUnlock()

	sort.Slice(subscribers, func(i, j int) bool {
		return subscribers[i].SubscribedAt.Before(subscribers[j].SubscribedAt)
	})

	span.SetAttributes(
		attribute.Int("subscriber.count", len(subscribers)),
		attribute.Bool("success", true),
	)
	return subscribers, nil
}

func (r *InMemorySubscriberRepository) Close() error {
	return nil
}
