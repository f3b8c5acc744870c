package service

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsletter-go/internal/logging"
	"newsletter-go/internal/models"
	"newsletter-go/internal/repository"
	"newsletter-go/internal/telemetry"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.SubscriptionCreatedEvent
	err    error
}

func (p *recordingPublisher) PublishSubscriptionCreated(ctx context.Context, ev models.SubscriptionCreatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type failingRepository struct {
	repository.SubscriberRepository
	err error
}

func (r failingRepository) Create(context.Context, *models.Subscriber) error { return r.err }

func testLogger(t *testing.T) (*logging.ContextLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger, err := logging.NewLoggerWithOptions(logging.Options{Output: &buf})
	require.NoError(t, err)
	return logger, &buf
}

func TestSubscribeStoresAndPublishes(t *testing.T) {
	logger, _ := testLogger(t)
	repo := repository.NewInMemorySubscriberRepository()
	pub := &recordingPublisher{}
	svc := NewSubscriptionService(repo, pub, logger)

	s, err := svc.Subscribe(context.Background(), &models.SubscriptionRequest{
		Name:  "le guin",
		Email: "ursula_le_guin@gmail.com",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, s.ID)

	stored, err := repo.GetByID(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, "le guin", stored.Name)
	assert.Equal(t, "ursula_le_guin@gmail.com", stored.Email)

	require.Len(t, pub.events, 1)
	assert.Equal(t, s.ID.String(), pub.events[0].SubscriberID)
}

func TestSubscribeReturnsStorageError(t *testing.T) {
	logger, _ := testLogger(t)
	storageErr := errors.New("database unreachable")
	pub := &recordingPublisher{}
	svc := NewSubscriptionService(failingRepository{err: storageErr}, pub, logger)

	_, err := svc.Subscribe(context.Background(), &models.SubscriptionRequest{Name: "a", Email: "a@example.com"})
	assert.ErrorIs(t, err, storageErr)
	assert.Empty(t, pub.events, "nothing is announced for an unsaved subscriber")
}

func TestSubscribeToleratesPublishFailure(t *testing.T) {
	logger, buf := testLogger(t)
	repo := repository.NewInMemorySubscriberRepository()
	svc := NewSubscriptionService(repo, &recordingPublisher{err: errors.New("broker down")}, logger)

	s, err := svc.Subscribe(context.Background(), &models.SubscriptionRequest{Name: "a", Email: "a@example.com"})
	require.NoError(t, err)

	_, err = repo.GetByID(context.Background(), s.ID)
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Failed to publish subscription event")
}

func TestSubscribeDefaultsToNoopPublisher(t *testing.T) {
	logger, _ := testLogger(t)
	svc := NewSubscriptionService(repository.NewInMemorySubscriberRepository(), nil, logger)

	_, err := svc.Subscribe(context.Background(), &models.SubscriptionRequest{Name: "a", Email: "a@example.com"})
	assert.NoError(t, err)
}

func TestSubscribeEmitsSpans(t *testing.T) {
	recorder := telemetry.NewTestSpanRecorder()
	tp := telemetry.InitTestTracing("test-newsletter", "1.0.0", recorder)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	logger, _ := testLogger(t)
	svc := NewSubscriptionService(repository.NewInMemorySubscriberRepository(), nil, logger)

	_, err := svc.Subscribe(context.Background(), &models.SubscriptionRequest{Name: "a", Email: "a@example.com"})
	require.NoError(t, err)

	assert.Len(t, recorder.GetSpansByName("subscription.service.subscribe"), 1)
	assert.Len(t, recorder.GetSpansByOperation("database.write"), 1)
}
