package metrics

import "github.com/prometheus/client_golang/prometheus"

// Embedding provider metrics. Requests and tokens are recorded by the provider
// adapters, cache results by the cache decorator.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "embedding",
		Name:      "requests_total",
		Help:      "Embedding API calls by outcome",
	}, []string{"provider", "model", "status"})

	// OpenAI batch calls of 100 catalog items take seconds, single queries well under one.
	EmbeddingRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "embedding",
		Name:      "request_duration_seconds",
		Help:      "Embedding API call latency",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 32},
	}, []string{"provider", "model"})

	EmbeddingTokensTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "embedding",
		Name:      "tokens_total",
		Help:      "Tokens billed by the embedding provider",
	}, []string{"provider", "model", "type"})

	EmbeddingErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "embedding",
		Name:      "errors_total",
		Help:      "Embedding API failures by kind",
	}, []string{"provider", "model", "error_type"})

	EmbeddingCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "embedding",
		Name:      "cache_total",
		Help:      "Embedding cache lookups",
	}, []string{"result"}) // hit, miss

	EmbeddingBatchInputs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "embedding",
		Name:      "batch_inputs",
		Help:      "Texts sent in one batch embedding call",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 9),
	})
)
