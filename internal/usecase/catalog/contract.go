package catalog

import (
	"context"

	"github.com/kailas-cloud/assessrec/internal/domain/assessment"
)

// LoadFunc reads a catalog snapshot from a data file.
type LoadFunc func(path string) (*assessment.Catalog, error)

// Indexer is the write side of the catalog vector index.
type Indexer interface {
	EnsureCollection(ctx context.Context) error
	Upsert(ctx context.Context, vectors [][]float32, records []assessment.Record) error
	Count(ctx context.Context) (int, error)
	Dimensions() int
}
