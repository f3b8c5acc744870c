package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordSubscription(t *testing.T) {
	m := New()
	m.RecordSubscription(OutcomeCreated)
	m.RecordSubscription(OutcomeCreated)
	m.RecordSubscription(OutcomeInvalid)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SubscriptionsTotal.WithLabelValues(OutcomeCreated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SubscriptionsTotal.WithLabelValues(OutcomeInvalid)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.SubscriptionsTotal.WithLabelValues(OutcomeFailed)))
}

func TestObserveRequestLabelsUnmatchedRoutes(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodGet, "", http.StatusNotFound, 2*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "/health_check", http.StatusOK, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/health_check", "200")))
}

func TestInstancesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.RecordSubscription(OutcomeFailed)

	assert.Equal(t, 0.0, testutil.ToFloat64(b.SubscriptionsTotal.WithLabelValues(OutcomeFailed)))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.RecordSubscription(OutcomeCreated)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `subscriptions_total{outcome="created"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
