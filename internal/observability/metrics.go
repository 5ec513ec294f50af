package observability

import (
	"errors"

	"course-portal/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics for pages served by course-portal
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// Backend API metrics
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Backend API call latency in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of backend API calls by outcome",
		},
		[]string{"method", "endpoint", "status"},
	)

	SessionExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "session_expired_total",
			Help: "Sessions cleared after a 401/403 from the backend",
		},
	)

	// Session lifecycle metrics
	SessionEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_events_total",
			Help: "Session store transitions by event and result",
		},
		[]string{"event", "result"},
	)

	GuardRedirectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "navigation_guard_redirects_total",
			Help: "Route transitions redirected to login by the navigation guard",
		},
		[]string{"route"},
	)

	// Durable storage metrics
	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_operations_total",
			Help: "Durable session storage operations by backend, operation and result",
		},
		[]string{"backend", "op", "result"},
	)
)

// ObserveStorage records the outcome of a storage operation
func ObserveStorage(backend, op string, err error) {
	result := "ok"
	switch {
	case errors.Is(err, domain.ErrKeyNotFound):
		result = "miss"
	case err != nil:
		result = "error"
	}
	StorageOperationsTotal.WithLabelValues(backend, op, result).Inc()
}
