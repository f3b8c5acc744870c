package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	dapr "github.com/dapr/go-sdk/client"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsletter-go/internal/models"
)

// fakeDaprClient implements the state calls the repository uses; any other
// method panics through the nil embedded interface.
type fakeDaprClient struct {
	dapr.Client

	mu      sync.Mutex
	state   map[string][]byte
	saveErr error
	closed  bool
}

func newFakeDaprClient() *fakeDaprClient {
	return &fakeDaprClient{state: make(map[string][]byte)}
}

func (f *fakeDaprClient) SaveState(ctx context.Context, storeName, key string, data []byte, meta map[string]string, so ...dapr.StateOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.state[storeName+"/"+key] = data
	return nil
}

func (f *fakeDaprClient) GetState(ctx context.Context, storeName, key string, meta map[string]string) (*dapr.StateItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &dapr.StateItem{Key: key, Value: f.state[storeName+"/"+key]}, nil
}

func (f *fakeDaprClient) Close() {
	f.closed = true
}

func TestDaprCreateAndGet(t *testing.T) {
	client := newFakeDaprClient()
	repo := NewDaprSubscriberRepository(client, "statestore")
	ctx := context.Background()

	s := models.NewSubscriber("ursula_le_guin@gmail.com", "le guin")
	require.NoError(t, repo.Create(ctx, s))
	assert.Contains(t, client.state, "statestore/"+s.ID.String())

	got, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, s.Email, got.Email)
	assert.True(t, s.SubscribedAt.Equal(got.SubscribedAt))
}

func TestDaprGetByIDMissing(t *testing.T) {
	repo := NewDaprSubscriberRepository(newFakeDaprClient(), "statestore")

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, models.ErrSubscriberNotFound)
}

func TestDaprCreateWrapsSaveError(t *testing.T) {
	client := newFakeDaprClient()
	client.saveErr = errors.New("sidecar unavailable")
	repo := NewDaprSubscriberRepository(client, "statestore")

	err := repo.Create(context.Background(), models.NewSubscriber("a@example.com", "a"))
	require.Error(t, err)
	assert.ErrorIs(t, err, client.saveErr)
}

func TestDaprGetAllUnsupportedAndClose(t *testing.T) {
	client := newFakeDaprClient()
	repo := NewDaprSubscriberRepository(client, "statestore")

	_, err := repo.GetAll(context.Background())
	assert.ErrorIs(t, err, ErrGetAllUnsupported)

	require.NoError(t, repo.Close())
	assert.True(t, client.closed)
}
