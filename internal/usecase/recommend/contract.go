package recommend

import (
	"context"

	"github.com/kailas-cloud/assessrec/internal/domain"
	"github.com/kailas-cloud/assessrec/internal/domain/assessment"
	"github.com/kailas-cloud/assessrec/internal/domain/filter"
)

// Embedder vectorizes the final query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Searcher runs the filtered nearest-neighbour query.
type Searcher interface {
	Search(ctx context.Context, vector []float32, limit int, spec filter.Spec) ([]assessment.Ranked, error)
}
