package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Subscription outcomes recorded in subscriptions_total.
const (
	OutcomeCreated = "created"
	OutcomeInvalid = "invalid"
	OutcomeFailed  = "failed"
)

// Metrics owns a private registry so each Application (and each test) gets
// independent counters.
type Metrics struct {
	registry *prometheus.Registry

	// Watch for: sudden drops (service down) or 5xx spikes.
	HTTPRequestsTotal *prometheus.CounterVec
	// Watch for: p99 latency growth on POST /subscriptions.
	HTTPRequestDuration *prometheus.HistogramVec
	// Watch for: invalid ratio (broken signup form) and failed (storage down).
	SubscriptionsTotal *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		SubscriptionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subscriptions_total",
				Help: "Subscription attempts by outcome",
			},
			[]string{"outcome"},
		),
	}
	registry.MustRegister(m.HTTPRequestsTotal, m.HTTPRequestDuration, m.SubscriptionsTotal)

	for _, outcome := range []string{OutcomeCreated, OutcomeInvalid, OutcomeFailed} {
		m.SubscriptionsTotal.WithLabelValues(outcome)
	}
	return m
}

// ObserveRequest records one completed request. route should be the matched
// route template, not the raw path, to bound label cardinality.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) RecordSubscription(outcome string) {
	m.SubscriptionsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
