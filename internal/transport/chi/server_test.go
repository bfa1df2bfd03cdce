package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/assessrec/internal/domain"
	"github.com/kailas-cloud/assessrec/internal/domain/assessment"
	"github.com/kailas-cloud/assessrec/internal/domain/filter"
	healthuc "github.com/kailas-cloud/assessrec/internal/usecase/health"
	recommenduc "github.com/kailas-cloud/assessrec/internal/usecase/recommend"
)

type fakeRecommender struct {
	results []assessment.Ranked
	err     error

	lastReq      recommenduc.Request
	lastURL      string
	lastTopK     int
	lastEnhanced bool
	lastFilters  filter.Spec
}

func (f *fakeRecommender) Recommend(_ context.Context, req recommenduc.Request) ([]assessment.Ranked, error) {
	f.lastReq = req
	return f.results, f.err
}

func (f *fakeRecommender) RecommendFromURL(
	_ context.Context, url string, topK int, enhanced bool, filters filter.Spec,
) ([]assessment.Ranked, error) {
	f.lastURL, f.lastTopK, f.lastEnhanced, f.lastFilters = url, topK, enhanced, filters
	return f.results, f.err
}

type fakeHealth struct {
	report healthuc.Report
}

func (f fakeHealth) Check(context.Context) healthuc.Report { return f.report }

func sampleResults() []assessment.Ranked {
	return []assessment.Ranked{
		{
			Record: assessment.Record{
				Name:             "Java 8 (New)",
				URL:              "https://example.com/java8",
				RemoteTesting:    "Yes",
				AdaptiveIRT:      "No",
				AssessmentLength: "18 minutes",
				TestTypes:        []string{"Knowledge & Skills"},
			},
			PointID:        3,
			RelevanceScore: 0.91,
		},
	}
}

func newTestServer(rec Recommender, opts ...Option) http.Handler {
	health := fakeHealth{report: healthuc.Report{
		Status: healthuc.Healthy,
		Checks: map[string]healthuc.CheckResult{healthuc.ComponentVectorStore: healthuc.CheckOK},
	}}
	return NewServer(rec, health, zap.NewNop(), opts...).Handler()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRecommend_POST(t *testing.T) {
	rec := &fakeRecommender{results: sampleResults()}
	h := newTestServer(rec)

	rr := do(t, h, http.MethodPost, "/recommend",
		`{"query":"Java developer","enhanced":true,"filters":{"remote_testing":"Yes","test_type":["Knowledge & Skills"]}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}

	if rec.lastReq.Query != "Java developer" || !rec.lastReq.Enhanced {
		t.Errorf("unexpected request %+v", rec.lastReq)
	}
	if rec.lastReq.TopK != DefaultTopK {
		t.Errorf("expected default top_k %d, got %d", DefaultTopK, rec.lastReq.TopK)
	}
	if got := len(rec.lastReq.Filters.Predicates()); got != 2 {
		t.Errorf("expected 2 predicates, got %d", got)
	}

	var body []map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body) != 1 {
		t.Fatalf("expected 1 result, got %d", len(body))
	}
	if body[0]["name"] != "Java 8 (New)" || body[0]["relevance_score"] != 0.91 {
		t.Errorf("unexpected result %v", body[0])
	}
	if types, ok := body[0]["test_type"].([]any); !ok || len(types) != 1 {
		t.Errorf("expected test_type list, got %v", body[0]["test_type"])
	}
}

func TestRecommend_POST_ExplicitTopK(t *testing.T) {
	rec := &fakeRecommender{}
	h := newTestServer(rec)

	rr := do(t, h, http.MethodPost, "/recommend", `{"query":"analyst","top_k":12}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rec.lastReq.TopK != 12 {
		t.Errorf("expected top_k 12, got %d", rec.lastReq.TopK)
	}
	if rr.Body.String() != "[]\n" {
		t.Errorf("expected empty JSON array, got %q", rr.Body.String())
	}
}

func TestRecommend_GET(t *testing.T) {
	rec := &fakeRecommender{results: sampleResults()}
	h := newTestServer(rec)

	rr := do(t, h, http.MethodGet, "/recommend?query=java&top_k=3&enhanced=true&adaptive_irt=no&test_type=Simulations,Personality%20%26%20Behavior", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if rec.lastReq.Query != "java" || rec.lastReq.TopK != 3 || !rec.lastReq.Enhanced {
		t.Errorf("unexpected request %+v", rec.lastReq)
	}
	want := `adaptive_irt="No" AND test_type IN ["Simulations" "Personality & Behavior"]`
	if got := rec.lastReq.Filters.String(); got != want {
		t.Errorf("filters: got %s, want %s", got, want)
	}
}

func TestRecommend_GET_BadParams(t *testing.T) {
	h := newTestServer(&fakeRecommender{})
	for _, target := range []string{"/recommend?query=x&top_k=abc", "/recommend?query=x&enhanced=maybe"} {
		rr := do(t, h, http.MethodGet, target, "")
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", target, rr.Code)
		}
	}
}

func TestRecommend_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"invalid argument", fmt.Errorf("%w: query is required", domain.ErrInvalidArgument), 400, CodeValidationFailed},
		{"source fetch", domain.NewSourceFetch("http://x", errors.New("boom")), 422, CodeSourceFetchFailed},
		{"embedding provider", fmt.Errorf("embed: %w", domain.ErrEmbeddingProvider), 502, CodeEmbeddingProviderError},
		{"provider vector size", fmt.Errorf("%w: %w", domain.ErrEmbeddingProvider, domain.NewDimensionMismatch(3, 2, -1)), 502, CodeEmbeddingProviderError},
		{"dimension mismatch", domain.NewDimensionMismatch(3, 2, -1), 400, CodeValidationFailed},
		{"not configured", domain.ErrProviderNotConfigured, 500, CodeProviderNotConfigured},
		{"unknown", errors.New("disk on fire"), 500, CodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(&fakeRecommender{err: tt.err})
			rr := do(t, h, http.MethodPost, "/recommend", `{"query":"q"}`)
			if rr.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rr.Code)
			}
			var resp ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Code != tt.wantBody {
				t.Errorf("expected code %s, got %s", tt.wantBody, resp.Code)
			}
			if tt.wantCode == 500 && strings.Contains(resp.Message, "disk") {
				t.Error("internal error details leaked to client")
			}
		})
	}
}

func TestRecommend_FilterModes(t *testing.T) {
	body := `{"query":"q","filters":{"category":"Technology"}}`

	rr := do(t, newTestServer(&fakeRecommender{}), http.MethodPost, "/recommend", body)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("strict: expected 400, got %d", rr.Code)
	}
	var resp ErrorResponse
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Code != CodeUnknownFilterKey {
		t.Errorf("strict: expected %s, got %s", CodeUnknownFilterKey, resp.Code)
	}

	rec := &fakeRecommender{}
	rr = do(t, newTestServer(rec, WithFilterMode(filter.Lenient)), http.MethodPost, "/recommend", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("lenient: expected 200, got %d", rr.Code)
	}
	if got := rec.lastReq.Filters.String(); got != `category="Technology"` {
		t.Errorf("lenient: unexpected filters %s", got)
	}
}

func TestRecommend_BadBody(t *testing.T) {
	h := newTestServer(&fakeRecommender{})
	for _, body := range []string{"", "{not json"} {
		rr := do(t, h, http.MethodPost, "/recommend", body)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected 400, got %d", body, rr.Code)
		}
	}
}

func TestRecommendFromURL(t *testing.T) {
	rec := &fakeRecommender{results: sampleResults()}
	h := newTestServer(rec)

	rr := do(t, h, http.MethodPost, "/recommend-from-url",
		`{"url":"https://jobs.example.com/1","top_k":2,"filters":{"remote_testing":true}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if rec.lastURL != "https://jobs.example.com/1" || rec.lastTopK != 2 || rec.lastEnhanced {
		t.Errorf("unexpected call url=%s top_k=%d enhanced=%v", rec.lastURL, rec.lastTopK, rec.lastEnhanced)
	}
	if got := rec.lastFilters.String(); got != `remote_testing="Yes"` {
		t.Errorf("unexpected filters %s", got)
	}
}

func TestRecommendFromURL_MissingURL(t *testing.T) {
	rr := do(t, newTestServer(&fakeRecommender{}), http.MethodPost, "/recommend-from-url", `{"top_k":2}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		status healthuc.Status
		want   int
	}{
		{healthuc.Healthy, http.StatusOK},
		{healthuc.Degraded, http.StatusServiceUnavailable},
		{healthuc.Unhealthy, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			health := fakeHealth{report: healthuc.Report{
				Status: tt.status,
				Checks: map[string]healthuc.CheckResult{healthuc.ComponentEmbedding: healthuc.CheckError},
			}}
			h := NewServer(&fakeRecommender{}, health, zap.NewNop()).Handler()
			rr := do(t, h, http.MethodGet, "/health", "")
			if rr.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rr.Code)
			}
			var resp HealthResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != string(tt.status) || resp.Checks[healthuc.ComponentEmbedding] != "error" {
				t.Errorf("unexpected body %+v", resp)
			}
		})
	}
}

func TestIndexAndFallbackRoutes(t *testing.T) {
	h := newTestServer(&fakeRecommender{})

	if rr := do(t, h, http.MethodGet, "/", ""); rr.Code != http.StatusOK ||
		!strings.Contains(rr.Body.String(), "/recommend-from-url") {
		t.Errorf("index: got %d %s", rr.Code, rr.Body.String())
	}
	if rr := do(t, h, http.MethodGet, "/nope", ""); rr.Code != http.StatusNotFound {
		t.Errorf("unknown route: expected 404, got %d", rr.Code)
	}
	if rr := do(t, h, http.MethodDelete, "/recommend", ""); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("wrong method: expected 405, got %d", rr.Code)
	}
	if rr := do(t, h, http.MethodGet, "/metrics", ""); rr.Code != http.StatusOK {
		t.Errorf("metrics: expected 200, got %d", rr.Code)
	}
}

type panicRecommender struct{ fakeRecommender }

func (panicRecommender) Recommend(context.Context, recommenduc.Request) ([]assessment.Ranked, error) {
	panic("boom")
}

func TestHandler_RecoversPanics(t *testing.T) {
	rr := do(t, newTestServer(&panicRecommender{}), http.MethodPost, "/recommend", `{"query":"q"}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), CodeInternalError) {
		t.Errorf("expected JSON error body, got %s", rr.Body.String())
	}
}
