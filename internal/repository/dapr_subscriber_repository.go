package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	dapr "github.com/dapr/go-sdk/client"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"newsletter-go/internal/models"
)

var ErrGetAllUnsupported = errors.New("get all is not supported by a dapr state store")

type DaprSubscriberRepository struct {
	client    dapr.Client
	tracer    trace.Tracer
	storeName string
}

func NewDaprSubscriberRepository(client dapr.Client, storeName string) *DaprSubscriberRepository {
	return &DaprSubscriberRepository{
		client:    client,
		tracer:    otel.Tracer("dapr.repository"),
		storeName: storeName,
	}
}

func (r *DaprSubscriberRepository) Create(ctx context.Context, subscriber *models.Subscriber) error {
	ctx, span := r.tracer.Start(ctx, "subscriber.repository.create",
		trace.WithAttributes(
			attribute.String("subscriber.id", subscriber.ID.String()),
			attribute.String("subscriber.email", subscriber.Email),
			attribute.String("operation", "database.write"),
			attribute.String("dapr.store", r.storeName),
		))
	defer span.End()

	data, err := json.Marshal(subscriber)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to marshal subscriber: %w", err)
	}

	if err := r.client.SaveState(ctx, r.storeName, subscriber.ID.String(), data, nil); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to save subscriber to dapr state store: %w", err)
	}

	span.SetAttributes(attribute.Bool("success", true))
	return nil
}

func (r *DaprSubscriberRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Subscriber, error) {
	ctx, span := r.tracer.Start(ctx, "subscriber.repository.get_by_id",
		trace.WithAttributes(
			attribute.String("subscriber.id", id.String()),
			attribute.String("operation", "database.read"),
			attribute.String("dapr.store", r.storeName),
		))
	defer span.End()

	item, err := r.client.GetState(ctx, r.storeName, id.String(), nil)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get subscriber from dapr state store: %w", err)
	}

	if item == nil || len(item.Value) == 0 {
		span.SetAttributes(attribute.Bool("found", false))
		return nil, models.ErrSubscriberNotFound
	}

	var subscriber models.Subscriber
	if err := json.Unmarshal(item.Value, &subscriber); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to unmarshal subscriber: %w", err)
	}

	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Bool("found", true),
	)
	return &subscriber, nil
}

// GetAll always fails: state stores have no key enumeration.
func (r *DaprSubscriberRepository) GetAll(ctx context.Context) ([]*models.Subscriber, error) {
	_, span := r.tracer.Start(ctx, "subscriber.repository.get_all",
		trace.WithAttributes(
			attribute.String("operation", "database.read"),
			attribute.String("dapr.store", r.storeName),
		))
	defer span.End()

	span.RecordError(ErrGetAllUnsupported)
	return nil, ErrGetAllUnsupported
}

func (r *DaprSubscriberRepository) Close() error {
	r.client.Close()
	return nil
}
