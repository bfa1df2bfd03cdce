// Package memory is an in-process brute-force vector index with optional on-disk snapshots.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/kailas-cloud/assessrec/internal/domain"
	"github.com/kailas-cloud/assessrec/internal/domain/assessment"
	"github.com/kailas-cloud/assessrec/internal/domain/filter"
)

type collection struct {
	Dim    int                      `json:"dim"`
	Points map[int]assessment.Point `json:"points"`
}

// Repo implements usecase/index.Backend in memory.
// With a non-empty dir every collection is persisted as <dir>/<collection>.json after each upsert.
type Repo struct {
	mu          sync.Mutex
	dir         string
	collections map[string]*collection
}

// New creates a memory repository. dir may be empty for a purely volatile index.
func New(dir string) *Repo {
	return &Repo{dir: dir, collections: make(map[string]*collection)}
}

// Ping always succeeds.
func (r *Repo) Ping(context.Context) error { return nil }

// EnsureCollection loads or creates the collection.
func (r *Repo) EnsureCollection(_ context.Context, name string, dim int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.load(name)
	if err != nil {
		return err
	}
	if c != nil {
		if c.Dim != dim {
			return fmt.Errorf("%w: collection %s has %d dimensions, expected %d",
				domain.ErrDimensionMismatch, name, c.Dim, dim)
		}
		return nil
	}
	r.collections[name] = &collection{Dim: dim, Points: make(map[int]assessment.Point)}
	return nil
}

// Upsert stores points by id, replacing existing ones.
func (r *Repo) Upsert(_ context.Context, name string, points []assessment.Point) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.load(name)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("collection %s: %w", name, domain.ErrNotFound)
	}
	for _, p := range points {
		vec := make([]float32, len(p.Vector))
		copy(vec, p.Vector)
		p.Vector = vec
		c.Points[p.ID] = p
	}
	return r.save(name, c)
}

// Search scores every point that satisfies spec and returns the best limit.
func (r *Repo) Search(
	_ context.Context, name string, vector []float32, limit int, spec filter.Spec,
) ([]assessment.Ranked, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.load(name)
	if err != nil || c == nil {
		return nil, err
	}

	hits := make([]assessment.Ranked, 0, len(c.Points))
	for id, p := range c.Points {
		if !spec.Matches(p.Record.FilterFields()) {
			continue
		}
		hits = append(hits, assessment.Ranked{
			Record:         p.Record,
			PointID:        id,
			RelevanceScore: Cosine(vector, p.Vector),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].RelevanceScore != hits[j].RelevanceScore {
			return hits[i].RelevanceScore > hits[j].RelevanceScore
		}
		return hits[i].PointID < hits[j].PointID
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Count returns the number of stored points.
func (r *Repo) Count(_ context.Context, name string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.load(name)
	if err != nil || c == nil {
		return 0, err
	}
	return len(c.Points), nil
}

// Cosine returns the cosine similarity of a and b, 0 when either has zero norm.
func Cosine(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := range n {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return math.Max(-1, math.Min(1, dot/(math.Sqrt(na)*math.Sqrt(nb))))
}

// load returns the in-memory collection, reading its snapshot on first access. Caller holds mu.
func (r *Repo) load(name string) (*collection, error) {
	if c, ok := r.collections[name]; ok {
		return c, nil
	}
	if r.dir == "" {
		return nil, nil
	}

	data, err := os.ReadFile(r.snapshotPath(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", name, err)
	}

	var c collection
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", name, err)
	}
	if c.Points == nil {
		c.Points = make(map[int]assessment.Point)
	}
	r.collections[name] = &c
	return &c, nil
}

func (r *Repo) save(name string, c *collection) error {
	if r.dir == "" {
		return nil
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", name, err)
	}

	tmp := r.snapshotPath(name) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", name, err)
	}
	if err := os.Rename(tmp, r.snapshotPath(name)); err != nil {
		return fmt.Errorf("commit snapshot %s: %w", name, err)
	}
	return nil
}

func (r *Repo) snapshotPath(name string) string {
	return filepath.Join(r.dir, name+".json")
}
