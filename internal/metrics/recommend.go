package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recommendation and catalog build metrics.
var (
	RecommendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommend_requests_total",
			Help:      "Total number of recommendation requests",
		},
		[]string{"mode", "status"},
	)

	EnhancementFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enhancement_fallbacks_total",
			Help:      "Enhanced queries that fell back to the original query",
		},
		[]string{"reason"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Vector search duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"status"},
	)

	CatalogItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_items_total",
			Help:      "Catalog items embedded during builds",
		},
		[]string{"status"}, // "ok" / "fallback"
	)
)
