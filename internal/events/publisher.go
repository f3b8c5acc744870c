// Package events publishes subscription lifecycle events to downstream
// consumers such as a confirmation mailer.
package events

import (
	"context"

	"newsletter-go/internal/models"
)

type Publisher interface {
	PublishSubscriptionCreated(ctx context.Context, event models.SubscriptionCreatedEvent) error
	Close() error
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{}
}

func (NoopPublisher) PublishSubscriptionCreated(context.Context, models.SubscriptionCreatedEvent) error {
	return nil
}

func (NoopPublisher) Close() error {
	return nil
}
