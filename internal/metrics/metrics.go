package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PageLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "productpager_page_loads_total",
			Help: "Page loader calls by view and outcome",
		},
		[]string{"view", "status"},
	)

	UpstreamQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "productpager_upstream_query_duration_seconds",
			Help:    "Duration of Admin GraphQL product queries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"view"},
	)

	UpstreamRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "productpager_upstream_retries_total",
			Help: "Admin GraphQL requests retried after a transient failure",
		},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "productpager_circuit_breaker_transitions_total",
			Help: "Circuit breaker state changes by target state",
		},
		[]string{"to"},
	)

	BulkActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "productpager_bulk_actions_total",
			Help: "Bulk actions by kind and outcome",
		},
		[]string{"kind", "status"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "productpager_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "productpager_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	WorkerActiveCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "productpager_worker_active_count",
			Help: "Number of bulk-action events currently being processed",
		},
	)
)
