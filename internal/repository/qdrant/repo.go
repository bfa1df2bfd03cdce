// Package qdrant stores catalog points in a Qdrant collection over its REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kailas-cloud/assessrec/internal/domain"
	"github.com/kailas-cloud/assessrec/internal/domain/assessment"
	"github.com/kailas-cloud/assessrec/internal/domain/filter"
)

const upsertChunk = 256

// Option configures the Qdrant repository.
type Option func(*Repo)

// WithAPIKey sets the api-key header sent with every request.
func WithAPIKey(key string) Option {
	return func(r *Repo) { r.apiKey = key }
}

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	return func(r *Repo) { r.client.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Repo) { r.client = c }
}

// Repo implements usecase/index.Backend against Qdrant.
type Repo struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// New creates a Qdrant repository for the given endpoint (e.g. http://localhost:6333).
func New(endpoint string, opts ...Option) (*Repo, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("qdrant endpoint is required")
	}
	r := &Repo{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, fn := range opts {
		fn(r)
	}
	return r, nil
}

// Ping checks the Qdrant health endpoint.
func (r *Repo) Ping(ctx context.Context) error {
	resp, err := r.do(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return fmt.Errorf("qdrant health check failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant unhealthy: %s", resp.Status)
	}
	return nil
}

// EnsureCollection creates a cosine collection of the given size unless it
// exists. An existing collection of another size is rejected.
func (r *Repo) EnsureCollection(ctx context.Context, collection string, dim int) error {
	path := "/collections/" + collection
	resp, err := r.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return fmt.Errorf("get collection %s: %w", collection, err)
	}
	if resp.StatusCode == http.StatusOK {
		defer resp.Body.Close()
		return checkCollectionSize(resp.Body, collection, dim)
	}
	_ = resp.Body.Close()

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dim,
			"distance": "Cosine",
		},
	}
	resp, err = r.do(ctx, http.MethodPut, path, body)
	if err != nil {
		return fmt.Errorf("create collection %s: %w", collection, err)
	}
	defer resp.Body.Close()
	// 409: created concurrently
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusConflict {
		return statusError("create collection", resp)
	}
	return nil
}

// checkCollectionSize compares the single unnamed vector size in a
// collection info response with dim. Named vector layouts carry no top-level
// size and are not checked.
func checkCollectionSize(body io.Reader, collection string, dim int) error {
	var info struct {
		Result struct {
			Config struct {
				Params struct {
					Vectors struct {
						Size int `json:"size"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}
	if err := json.NewDecoder(body).Decode(&info); err != nil {
		return fmt.Errorf("decode collection %s: %w", collection, err)
	}
	if size := info.Result.Config.Params.Vectors.Size; size != 0 && size != dim {
		return fmt.Errorf("%w: collection %s has %d dimensions, expected %d",
			domain.ErrDimensionMismatch, collection, size, dim)
	}
	return nil
}

type point struct {
	ID      int            `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

// Upsert writes points in chunks and waits for each chunk to be applied.
func (r *Repo) Upsert(ctx context.Context, collection string, points []assessment.Point) error {
	path := fmt.Sprintf("/collections/%s/points?wait=true", collection)
	for start := 0; start < len(points); start += upsertChunk {
		end := min(start+upsertChunk, len(points))
		batch := make([]point, 0, end-start)
		for _, p := range points[start:end] {
			batch = append(batch, point{ID: p.ID, Vector: p.Vector, Payload: p.Record.Payload()})
		}

		resp, err := r.do(ctx, http.MethodPut, path, map[string]any{"points": batch})
		if err != nil {
			return fmt.Errorf("upsert points %d-%d: %w", start, end-1, err)
		}
		if resp.StatusCode >= 300 {
			err := statusError("upsert", resp)
			_ = resp.Body.Close()
			return err
		}
		_ = resp.Body.Close()
	}
	return nil
}

// Search runs a filtered nearest-neighbour query. A missing collection
// searches as empty.
func (r *Repo) Search(
	ctx context.Context, collection string, vector []float32, limit int, spec filter.Spec,
) ([]assessment.Ranked, error) {
	body := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	if f := buildFilter(spec); f != nil {
		body["filter"] = f
	}

	resp, err := r.do(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/search", collection), body)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", collection, err)
	}
	defer resp.Body.Close()
	// a collection that was never built searches as empty
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode >= 300 {
		return nil, statusError("search", resp)
	}

	var result struct {
		Result []struct {
			ID      int            `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]assessment.Ranked, 0, len(result.Result))
	for _, hit := range result.Result {
		out = append(out, assessment.Ranked{
			Record:         assessment.FromPayload(hit.Payload),
			PointID:        hit.ID,
			RelevanceScore: hit.Score,
		})
	}
	return out, nil
}

// Count returns the exact number of points. A missing collection counts as empty.
func (r *Repo) Count(ctx context.Context, collection string) (int, error) {
	path := fmt.Sprintf("/collections/%s/points/count", collection)
	resp, err := r.do(ctx, http.MethodPost, path, map[string]any{"exact": true})
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return 0, nil
	}
	if resp.StatusCode >= 300 {
		return 0, statusError("count", resp)
	}

	var result struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("decode count response: %w", err)
	}
	return result.Result.Count, nil
}

// buildFilter translates a filter.Spec into a Qdrant "must" clause list.
func buildFilter(spec filter.Spec) map[string]any {
	preds := spec.Predicates()
	if len(preds) == 0 {
		return nil
	}
	must := make([]any, 0, len(preds))
	for _, p := range preds {
		switch t := p.(type) {
		case filter.Equals:
			must = append(must, map[string]any{
				"key":   t.Field(),
				"match": map[string]any{"value": t.Value()},
			})
		case filter.AnyOf:
			must = append(must, map[string]any{
				"key":   t.Field(),
				"match": map[string]any{"any": t.Values()},
			})
		default:
			panic(fmt.Sprintf("qdrant: unsupported predicate %T", p))
		}
	}
	return map[string]any{"must": must}
}

func (r *Repo) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.endpoint+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.apiKey != "" {
		req.Header.Set("api-key", r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err //nolint:wrapcheck // wrapped by callers
	}
	return resp, nil
}

func statusError(op string, resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("qdrant %s failed: %s %s", op, resp.Status, strings.TrimSpace(string(b)))
}
