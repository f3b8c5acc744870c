package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"newsletter-go/internal/logging"
	"newsletter-go/internal/metrics"
	"newsletter-go/internal/models"
)

const maxFormBytes = 64 << 10

const subscribeEndpoint = "POST /subscriptions"

type SubscriptionCreator interface {
	Subscribe(ctx context.Context, req *models.SubscriptionRequest) (*models.Subscriber, error)
}

type SubscriptionHandler struct {
	service SubscriptionCreator
	logger  *logging.ContextLogger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

func NewSubscriptionHandler(service SubscriptionCreator, logger *logging.ContextLogger, m *metrics.Metrics) *SubscriptionHandler {
	return &SubscriptionHandler{
		service: service,
		logger:  logger,
		metrics: m,
		tracer:  otel.Tracer("subscription-handler"),
	}
}

// Subscribe decodes the form body regardless of Content-Type and answers
// 200 when both name and email are present, 400 otherwise.
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "subscription.handler.subscribe")
	defer span.End()

	req, status, err := h.readRequest(c)
	if err != nil {
		h.logger.WarnWithTracing(ctx, "Rejected subscription request", logrus.Fields{
			"endpoint": subscribeEndpoint,
			"error":    err.Error(),
		})
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", "validation_error"))
		h.metrics.RecordSubscription(metrics.OutcomeInvalid)
		c.JSON(status, gin.H{"error": http.StatusText(status)})
		return
	}

	subscriber, err := h.service.Subscribe(ctx, req)
	if err != nil {
		h.logger.ErrorWithTracing(ctx, "Failed to save subscriber", err, logrus.Fields{
			"email":    req.Email,
			"endpoint": subscribeEndpoint,
		})
		span.RecordError(err)
		span.SetStatus(codes.Error, "subscribe failed")
		h.metrics.RecordSubscription(metrics.OutcomeFailed)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save subscriber"})
		return
	}

	h.metrics.RecordSubscription(metrics.OutcomeCreated)
	span.SetAttributes(
		attribute.String("subscriber.id", subscriber.ID.String()),
		attribute.Bool("success", true),
	)
	c.Status(http.StatusOK)
}

func (h *SubscriptionHandler) readRequest(c *gin.Context) (*models.SubscriptionRequest, int, error) {
	var body []byte
	if c.Request.Body != nil {
		var err error
		body, err = io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxFormBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return nil, http.StatusRequestEntityTooLarge, err
			}
			return nil, http.StatusBadRequest, err
		}
	}

	values, err := decodeForm(body)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}

	req, err := bindSubscription(values)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	return req, http.StatusOK, nil
}
