package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "palisade"

// Metrics holds all Prometheus collectors for the service.
//
// Exposed series:
//   - palisade_requests_total{endpoint, status}
//   - palisade_request_duration_seconds{endpoint}
//   - palisade_auth_failures_total
//   - palisade_rate_limited_total
//   - palisade_usage_records_dropped_total
//   - palisade_keys_issued_total
//   - palisade_keys_revoked_total
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	authFailuresTotal   prometheus.Counter
	rateLimitedTotal    prometheus.Counter
	recordsDroppedTotal prometheus.Counter
	keysIssuedTotal     prometheus.Counter
	keysRevokedTotal    prometheus.Counter
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of gated requests by endpoint and outcome",
			},
			[]string{"endpoint", "status"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Duration of gated requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),

		authFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failures_total",
			Help:      "Total number of rejected credentials",
		}),

		rateLimitedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Total number of requests rejected by the rate limiter",
		}),

		recordsDroppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "usage_records_dropped_total",
			Help:      "Total number of request log records dropped",
		}),

		keysIssuedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keys_issued_total",
			Help:      "Total number of API keys issued",
		}),

		keysRevokedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keys_revoked_total",
			Help:      "Total number of API keys revoked",
		}),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.authFailuresTotal,
		m.rateLimitedTotal,
		m.recordsDroppedTotal,
		m.keysIssuedTotal,
		m.keysRevokedTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// RecordRequest records one gated request outcome.
func (m *Metrics) RecordRequest(endpoint, status string, duration time.Duration) {
	m.requestsTotal.WithLabelValues(endpoint, status).Inc()
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordAuthFailure counts a rejected credential.
func (m *Metrics) RecordAuthFailure() {
	m.authFailuresTotal.Inc()
}

// RecordRateLimited counts a request rejected by the rate limiter.
func (m *Metrics) RecordRateLimited() {
	m.rateLimitedTotal.Inc()
}

// RecordDroppedRecord counts a dropped request log record.
func (m *Metrics) RecordDroppedRecord() {
	m.recordsDroppedTotal.Inc()
}

// RecordKeyIssued counts an issued credential.
func (m *Metrics) RecordKeyIssued() {
	m.keysIssuedTotal.Inc()
}

// RecordKeyRevoked counts a revoked credential.
func (m *Metrics) RecordKeyRevoked() {
	m.keysRevokedTotal.Inc()
}

// Handler returns the scrape endpoint handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
