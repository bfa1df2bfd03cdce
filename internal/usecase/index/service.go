// Package index owns one catalog collection of a vector backend.
package index

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/kailas-cloud/assessrec/internal/domain"
	"github.com/kailas-cloud/assessrec/internal/domain/assessment"
	"github.com/kailas-cloud/assessrec/internal/domain/filter"
)

// Service validates vectors against the configured dimensionality before they reach the backend.
type Service struct {
	backend    Backend
	collection string
	dim        int
}

// New creates an index service for one collection.
func New(backend Backend, collection string, dim int) *Service {
	return &Service{backend: backend, collection: collection, dim: dim}
}

// Collection returns the collection name.
func (s *Service) Collection() string { return s.collection }

// Dimensions returns the configured vector size.
func (s *Service) Dimensions() int { return s.dim }

// Ping checks backend availability.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.backend.Ping(ctx); err != nil {
		return fmt.Errorf("ping vector backend: %w", err)
	}
	return nil
}

// EnsureCollection creates the collection when absent. Safe to call repeatedly.
func (s *Service) EnsureCollection(ctx context.Context) error {
	if err := s.backend.EnsureCollection(ctx, s.collection, s.dim); err != nil {
		return fmt.Errorf("ensure collection %s: %w", s.collection, err)
	}
	return nil
}

// Upsert stores vectors with their records. Point id is the position in the call,
// so re-running with the same catalog overwrites instead of duplicating.
func (s *Service) Upsert(ctx context.Context, vectors [][]float32, records []assessment.Record) error {
	if len(vectors) != len(records) {
		return fmt.Errorf("%w: %d vectors for %d records",
			domain.ErrInvalidArgument, len(vectors), len(records))
	}
	if len(vectors) == 0 {
		return nil
	}

	points := make([]assessment.Point, len(vectors))
	for i, v := range vectors {
		if len(v) != s.dim {
			return domain.NewDimensionMismatch(s.dim, len(v), i)
		}
		points[i] = assessment.Point{ID: i, Vector: v, Record: records[i]}
	}

	if err := s.backend.Upsert(ctx, s.collection, points); err != nil {
		return fmt.Errorf("upsert %d points: %w", len(points), err)
	}
	return nil
}

// Search returns at most limit records by non-increasing relevance.
// Ties keep catalog order.
func (s *Service) Search(
	ctx context.Context, vector []float32, limit int, spec filter.Spec,
) ([]assessment.Ranked, error) {
	if len(vector) != s.dim {
		return nil, domain.NewDimensionMismatch(s.dim, len(vector), -1)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", domain.ErrInvalidArgument, limit)
	}

	results, err := s.backend.Search(ctx, s.collection, vector, limit, spec)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", s.collection, err)
	}

	slices.SortStableFunc(results, func(a, b assessment.Ranked) int {
		if c := cmp.Compare(b.RelevanceScore, a.RelevanceScore); c != 0 {
			return c
		}
		return cmp.Compare(a.PointID, b.PointID)
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Count returns the number of stored points.
func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.backend.Count(ctx, s.collection)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", s.collection, err)
	}
	return n, nil
}
