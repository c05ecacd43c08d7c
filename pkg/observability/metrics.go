// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the univault search service.
package observability

import "github.com/prometheus/client_golang/prometheus"

// SearchBuckets defines histogram buckets suited for search latencies, from
// a 5ms lexical lookup to a slow embedding round trip.
var SearchBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// ResultBuckets defines histogram buckets for result counts per search.
var ResultBuckets = []float64{0, 1, 5, 10, 25, 50, 100, 250, 1000}

var (
	// RequestsTotal counts all HTTP requests by method, status class, and route.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "univault_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status", "route"},
	)

	// RequestDuration records HTTP request duration in seconds by method and route.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "univault_request_duration_seconds",
			Help:    "Request duration",
			Buckets: SearchBuckets,
		},
		[]string{"method", "route"},
	)

	// InflightRequests tracks the number of requests currently being served.
	InflightRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "univault_requests_inflight",
			Help: "In-flight requests",
		},
	)

	// SearchQueriesTotal counts executed searches by mode and outcome.
	SearchQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "univault_search_queries_total",
			Help: "Search queries",
		},
		[]string{"mode", "outcome"},
	)

	// SearchDuration records end-to-end engine latency by executed mode.
	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "univault_search_duration_seconds",
			Help:    "Search duration",
			Buckets: SearchBuckets,
		},
		[]string{"mode"},
	)

	// SearchResults records the number of matches per search, before paging.
	SearchResults = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "univault_search_results",
			Help:    "Matches per search",
			Buckets: ResultBuckets,
		},
		[]string{"mode"},
	)

	// SearchFallbacksTotal counts semantic searches that were served lexically
	// after an embedding failure.
	SearchFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "univault_search_fallbacks_total",
			Help: "Semantic searches downgraded to lexical",
		},
	)

	// EmbeddingRequestsTotal counts calls to the embedding backend.
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "univault_embedding_requests_total",
			Help: "Embedding requests",
		},
		[]string{"model", "status"},
	)

	// EmbeddingLatency records embedding backend latency in seconds.
	EmbeddingLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "univault_embedding_latency_seconds",
			Help:    "Embedding latency",
			Buckets: SearchBuckets,
		},
		[]string{"model"},
	)

	// EmbeddingCacheTotal counts embedding cache lookups by result (hit/miss).
	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "univault_embedding_cache_total",
			Help: "Embedding cache lookups",
		},
		[]string{"result"},
	)

	// IndexedResourcesTotal counts resources processed by the indexer.
	IndexedResourcesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "univault_indexed_resources_total",
			Help: "Resources processed by the indexer",
		},
		[]string{"status"},
	)

	// RateLimitRejectedTotal counts requests rejected by the rate limiter.
	RateLimitRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "univault_ratelimit_rejected_total",
			Help: "Rate limit rejections",
		},
		[]string{"tier"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		InflightRequests,
		SearchQueriesTotal,
		SearchDuration,
		SearchResults,
		SearchFallbacksTotal,
		EmbeddingRequestsTotal,
		EmbeddingLatency,
		EmbeddingCacheTotal,
		IndexedResourcesTotal,
		RateLimitRejectedTotal,
	)
}
