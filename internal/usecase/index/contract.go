package index

import (
	"context"

	"github.com/kailas-cloud/assessrec/internal/domain/assessment"
	"github.com/kailas-cloud/assessrec/internal/domain/filter"
)

// Backend is the storage contract every vector store driver satisfies.
type Backend interface {
	Ping(ctx context.Context) error
	EnsureCollection(ctx context.Context, collection string, dim int) error
	Upsert(ctx context.Context, collection string, points []assessment.Point) error
	Search(
		ctx context.Context, collection string, vector []float32, limit int, spec filter.Spec,
	) ([]assessment.Ranked, error)
	Count(ctx context.Context, collection string) (int, error)
}
