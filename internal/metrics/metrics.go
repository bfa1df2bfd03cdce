// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "assessrec"

var registerOnce sync.Once

// Register adds every collector to the default registry. Later calls are no-ops,
// so each command can call it from its composition root.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(collectors()...)
	})
}

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		EmbeddingRequestsTotal,
		EmbeddingRequestDuration,
		EmbeddingTokensTotal,
		EmbeddingErrorsTotal,
		EmbeddingCacheTotal,
		EmbeddingBatchInputs,
		RecommendRequestsTotal,
		EnhancementFallbacksTotal,
		SearchDuration,
		CatalogItemsTotal,
		httpRequestDuration,
		httpRequestsTotal,
		httpRequestsInFlight,
	}
}
