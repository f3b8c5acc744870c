package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"newsletter-go/internal/events"
	"newsletter-go/internal/logging"
	"newsletter-go/internal/models"
	"newsletter-go/internal/repository"
)

type SubscriptionService struct {
	repo      repository.SubscriberRepository
	publisher events.Publisher
	logger    *logging.ContextLogger
	tracer    trace.Tracer
}

func NewSubscriptionService(repo repository.SubscriberRepository, publisher events.Publisher, logger *logging.ContextLogger) *SubscriptionService {
	if publisher == nil {
		publisher = events.NewNoopPublisher()
	}
	return &SubscriptionService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		tracer:    otel.Tracer("subscription-service"),
	}
}

// Subscribe stores a new subscriber built from req, then announces it.
// Only a storage failure is returned; a failed publish is logged and dropped.
func (s *SubscriptionService) Subscribe(ctx context.Context, req *models.SubscriptionRequest) (*models.Subscriber, error) {
	ctx, span := s.tracer.Start(ctx, "subscription.service.subscribe",
		trace.WithAttributes(
			attribute.String("subscriber.email", req.Email),
			attribute.String("subscriber.name", req.Name),
		))
	defer span.End()

	subscriber := models.NewSubscriber(req.Email, req.Name)

	s.logger.DebugWithTracing(ctx, "Saving new subscriber", logrus.Fields{
		"subscriber_id": subscriber.ID.String(),
		"email":         subscriber.Email,
	})

	if err := s.repo.Create(ctx, subscriber); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage failure")
		return nil, fmt.Errorf("save subscriber: %w", err)
	}

	event := models.NewSubscriptionCreatedEvent(subscriber)
	if err := s.publisher.PublishSubscriptionCreated(ctx, event); err != nil {
		s.logger.WarnWithTracing(ctx, "Failed to publish subscription event", logrus.Fields{
			"subscriber_id": subscriber.ID.String(),
			"error":         err.Error(),
		})
		span.SetAttributes(attribute.Bool("event.published", false))
	} else {
		span.SetAttributes(attribute.Bool("event.published", true))
	}

	s.logger.InfoWithTracing(ctx, "New subscriber saved", logrus.Fields{
		"subscriber_id": subscriber.ID.String(),
		"email":         subscriber.Email,
	})

	span.SetAttributes(
		attribute.String("subscriber.id", subscriber.ID.String()),
		attribute.Bool("success", true),
	)
	return subscriber, nil
}
