// Package vector stores catalog points in a Valkey/Redis FT index.
package vector

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/kailas-cloud/assessrec/internal/db"
	"github.com/kailas-cloud/assessrec/internal/domain/assessment"
	"github.com/kailas-cloud/assessrec/internal/domain/filter"
)

// KeyPrefix namespaces every key written by this service.
const KeyPrefix = "assessrec:"

const upsertChunk = 256

// store is the consumer interface for the vector index (ISP).
type store interface {
	Ping(ctx context.Context) error
	WriteHashes(ctx context.Context, hashes []db.Hash) error
	CreateIndex(ctx context.Context, schema *db.Schema) error
	IndexExists(ctx context.Context, name string) (bool, error)
	CountIndexed(ctx context.Context, name string) (int, error)
	KNN(ctx context.Context, q *db.KNNQuery) ([]db.Hit, error)
}

// HNSWConfig tunes the vector field of created indexes.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo implements usecase/index.Backend on top of FT.SEARCH.
type Repo struct {
	store store
	hnsw  HNSWConfig
}

// New creates a vector repository.
func New(s store, hnsw HNSWConfig) *Repo {
	return &Repo{store: s, hnsw: hnsw}
}

// Ping checks connectivity to the underlying store.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.store.Ping(ctx); err != nil {
		return fmt.Errorf("vector store ping: %w", err)
	}
	return nil
}

// EnsureCollection creates the collection index unless it already exists.
func (r *Repo) EnsureCollection(ctx context.Context, collection string, dim int) error {
	schema := catalogSchema(collection, dim, r.hnsw)
	if err := schema.Validate(); err != nil {
		return fmt.Errorf("catalog schema %s: %w", collection, err)
	}

	exists, err := r.store.IndexExists(ctx, schema.Name)
	if err != nil {
		return fmt.Errorf("check index %s: %w", schema.Name, err)
	}
	if exists {
		return nil
	}

	if err := r.store.CreateIndex(ctx, schema); err != nil {
		// lost a race with a concurrent creator
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index %s: %w", schema.Name, err)
	}
	return nil
}

// Upsert writes points as hashes, overwriting existing ids.
func (r *Repo) Upsert(ctx context.Context, collection string, points []assessment.Point) error {
	for start := 0; start < len(points); start += upsertChunk {
		end := min(start+upsertChunk, len(points))
		hashes := make([]db.Hash, 0, end-start)
		for _, p := range points[start:end] {
			hashes = append(hashes, db.Hash{
				Key:    pointKey(collection, p.ID),
				Fields: buildHashFields(p),
			})
		}
		if err := r.store.WriteHashes(ctx, hashes); err != nil {
			return fmt.Errorf("upsert points %d-%d: %w", start, end-1, err)
		}
	}
	return nil
}

// Search runs a filtered KNN query. A predicate on a field no point carries
// can match nothing, so the result is empty without a round-trip.
// A collection that was never built searches as empty.
func (r *Repo) Search(
	ctx context.Context, collection string, vector []float32, limit int, spec filter.Spec,
) ([]assessment.Ranked, error) {
	for _, p := range spec.Predicates() {
		if !slices.Contains(payloadFields, p.Field()) {
			return nil, nil
		}
	}

	hits, err := r.store.KNN(ctx, &db.KNNQuery{
		Index:   indexName(collection),
		Filters: spec,
		Vector:  vector,
		K:       limit,
		Return:  payloadFields,
	})
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("knn search %s: %w", collection, err)
	}

	out := make([]assessment.Ranked, 0, len(hits))
	for _, h := range hits {
		id, err := extractPointID(h.Key, collection)
		if err != nil {
			return nil, err
		}
		out = append(out, assessment.Ranked{
			Record:         parseHashFields(h.Fields),
			PointID:        id,
			RelevanceScore: h.Score,
		})
	}
	return out, nil
}

// Count returns the number of indexed points. A missing index counts as empty.
func (r *Repo) Count(ctx context.Context, collection string) (int, error) {
	n, err := r.store.CountIndexed(ctx, indexName(collection))
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return n, nil
}

func collectionPrefix(collection string) string {
	return fmt.Sprintf("%s%s:", KeyPrefix, collection)
}

func indexName(collection string) string {
	return fmt.Sprintf("%s%s:idx", KeyPrefix, collection)
}

func pointKey(collection string, id int) string {
	return collectionPrefix(collection) + strconv.Itoa(id)
}

func extractPointID(key, collection string) (int, error) {
	raw := strings.TrimPrefix(key, collectionPrefix(collection))
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("unexpected point key %q: %w", key, err)
	}
	return id, nil
}
