// Package chi exposes the recommender over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/assessrec/internal/domain/assessment"
	"github.com/kailas-cloud/assessrec/internal/domain/filter"
	"github.com/kailas-cloud/assessrec/internal/metrics"
	healthuc "github.com/kailas-cloud/assessrec/internal/usecase/health"
	recommenduc "github.com/kailas-cloud/assessrec/internal/usecase/recommend"
)

// DefaultTopK applies when a request omits top_k.
const DefaultTopK = 5

const maxBodyBytes = 1 << 20

// Server handles the recommendation API.
type Server struct {
	recommender Recommender
	health      HealthChecker
	filterMode  filter.Mode
	logger      *zap.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithFilterMode selects how unknown filter keys are treated.
func WithFilterMode(m filter.Mode) Option {
	return func(s *Server) { s.filterMode = m }
}

// NewServer creates an HTTP API server.
func NewServer(recommender Recommender, health HealthChecker, logger *zap.Logger, opts ...Option) *Server {
	s := &Server{
		recommender: recommender,
		health:      health,
		filterMode:  filter.Strict,
		logger:      logger,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler builds the router with the middleware stack.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
	})

	r.Get("/", s.Index)
	r.Post("/recommend", s.Recommend)
	r.Get("/recommend", s.RecommendQuery)
	r.Post("/recommend-from-url", s.RecommendFromURL)
	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

// RecommendRequest is the body of POST /recommend.
type RecommendRequest struct {
	Query    string         `json:"query"`
	TopK     *int           `json:"top_k"`
	Enhanced bool           `json:"enhanced"`
	Filters  map[string]any `json:"filters"`
}

// RecommendFromURLRequest is the body of POST /recommend-from-url.
type RecommendFromURLRequest struct {
	URL      string         `json:"url"`
	TopK     *int           `json:"top_k"`
	Enhanced bool           `json:"enhanced"`
	Filters  map[string]any `json:"filters"`
}

// Index handles GET / with an endpoint listing.
func (s *Server) Index(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Assessment recommender API",
		"endpoints": map[string]string{
			"/recommend":          "POST or GET to get recommendations based on text",
			"/recommend-from-url": "POST to get recommendations based on a URL",
			"/health":             "GET dependency status",
			"/metrics":            "GET Prometheus metrics",
		},
	})
}

// Recommend handles POST /recommend.
func (s *Server) Recommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	spec, err := filter.Parse(req.Filters, s.filterMode)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	results, err := s.recommender.Recommend(r.Context(), recommenduc.Request{
		Query:    req.Query,
		TopK:     topK(req.TopK),
		Enhanced: req.Enhanced,
		Filters:  spec,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resultsToJSON(results))
}

// RecommendQuery handles GET /recommend. Filters come from the remote_testing,
// adaptive_irt and test_type (comma-separated) query parameters.
func (s *Server) RecommendQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	n := DefaultTopK
	if v := q.Get("top_k"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, "top_k must be an integer")
			return
		}
		n = parsed
	}

	enhanced := false
	if v := q.Get("enhanced"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, "enhanced must be a boolean")
			return
		}
		enhanced = parsed
	}

	raw := map[string]any{}
	for _, key := range []string{assessment.FieldRemoteTesting, assessment.FieldAdaptiveIRT} {
		if v := q.Get(key); v != "" {
			raw[key] = v
		}
	}
	if v := q.Get(assessment.FieldTestType); v != "" {
		raw[assessment.FieldTestType] = assessment.SplitTypes(v)
	}
	spec, err := filter.Parse(raw, s.filterMode)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	results, err := s.recommender.Recommend(r.Context(), recommenduc.Request{
		Query:    q.Get("query"),
		TopK:     n,
		Enhanced: enhanced,
		Filters:  spec,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resultsToJSON(results))
}

// RecommendFromURL handles POST /recommend-from-url.
func (s *Server) RecommendFromURL(w http.ResponseWriter, r *http.Request) {
	var req RecommendFromURLRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "URL is required")
		return
	}

	spec, err := filter.Parse(req.Filters, s.filterMode)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	results, err := s.recommender.RecommendFromURL(r.Context(), req.URL, topK(req.TopK), req.Enhanced, spec)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resultsToJSON(results))
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

func topK(p *int) int {
	if p == nil {
		return DefaultTopK
	}
	return *p
}

// resultsToJSON renders each record payload with its relevance_score.
func resultsToJSON(results []assessment.Ranked) []map[string]any {
	out := make([]map[string]any, len(results))
	for i, r := range results {
		item := r.Payload()
		item["relevance_score"] = r.RelevanceScore
		out[i] = item
	}
	return out
}
