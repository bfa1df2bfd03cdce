// Package recommend turns free text or a job-description URL into ranked assessments.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/kailas-cloud/assessrec/internal/domain"
	"github.com/kailas-cloud/assessrec/internal/domain/assessment"
	"github.com/kailas-cloud/assessrec/internal/domain/filter"
	logpkg "github.com/kailas-cloud/assessrec/internal/logger"
	"github.com/kailas-cloud/assessrec/internal/metrics"
)

// DefaultEnhancementTimeout bounds one rewriter call.
const DefaultEnhancementTimeout = 30 * time.Second

// Fallback reasons reported when enhancement degrades to the original query.
const (
	ReasonNoRewriter    = "no_rewriter"
	ReasonTimeout       = "timeout"
	ReasonProviderError = "provider_error"
	ReasonEmptyResponse = "empty_response"
)

const (
	modeDirect   = "direct"
	modeEnhanced = "enhanced"
)

// Request is one recommendation call.
type Request struct {
	Query    string
	TopK     int
	Enhanced bool
	Filters  filter.Spec
	// SourceURL names where Query came from; used only in the enhancement prompt.
	SourceURL string
}

// Service embeds queries and searches the catalog index.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	embed          Embedder
	index          Searcher
	rewriter       domain.Rewriter
	fetcher        domain.SourceFetcher
	enhanceTimeout time.Duration
	tracer         trace.Tracer
	logger         *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithRewriter enables query enhancement.
func WithRewriter(r domain.Rewriter) Option {
	return func(s *Service) { s.rewriter = r }
}

// WithFetcher enables RecommendFromURL.
func WithFetcher(f domain.SourceFetcher) Option {
	return func(s *Service) { s.fetcher = f }
}

// WithEnhancementTimeout overrides DefaultEnhancementTimeout.
func WithEnhancementTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.enhanceTimeout = d
		}
	}
}

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// New creates a recommendation service.
func New(embed Embedder, index Searcher, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		embed:          embed,
		index:          index,
		enhanceTimeout: DefaultEnhancementTimeout,
		tracer:         otel.Tracer("assessrec/recommend"),
		logger:         logger,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Recommend returns up to TopK assessments ranked by relevance to the query.
// In enhanced mode a failed rewrite falls back to the original query.
func (s *Service) Recommend(ctx context.Context, req Request) ([]assessment.Ranked, error) {
	mode := modeDirect
	if req.Enhanced {
		mode = modeEnhanced
	}

	ctx, span := s.tracer.Start(ctx, "recommend", trace.WithAttributes(
		attribute.String("recommend.mode", mode),
		attribute.Int("recommend.top_k", req.TopK),
		attribute.Int("recommend.filters", len(req.Filters.Predicates())),
	))
	defer span.End()

	results, err := s.recommend(ctx, req, span)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.RecommendRequestsTotal.WithLabelValues(mode, "error").Inc()
		return nil, err
	}

	span.SetAttributes(attribute.Int("recommend.results", len(results)))
	metrics.RecommendRequestsTotal.WithLabelValues(mode, "ok").Inc()
	return results, nil
}

// RecommendFromURL fetches a job description and recommends against its text.
func (s *Service) RecommendFromURL(
	ctx context.Context, url string, topK int, enhanced bool, filters filter.Spec,
) ([]assessment.Ranked, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("%w: url is required", domain.ErrInvalidArgument)
	}
	if s.fetcher == nil {
		return nil, fmt.Errorf("%w: no source fetcher", domain.ErrProviderNotConfigured)
	}

	text, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		if errors.Is(err, domain.ErrSourceFetch) {
			return nil, err //nolint:wrapcheck // already carries the URL
		}
		return nil, domain.NewSourceFetch(url, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, domain.NewSourceFetch(url, errors.New("no text extracted"))
	}

	return s.Recommend(ctx, Request{
		Query:     text,
		TopK:      topK,
		Enhanced:  enhanced,
		Filters:   filters,
		SourceURL: url,
	})
}

func (s *Service) recommend(ctx context.Context, req Request, span trace.Span) ([]assessment.Ranked, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrInvalidArgument)
	}
	if req.TopK <= 0 {
		return nil, fmt.Errorf("%w: top_k must be positive, got %d", domain.ErrInvalidArgument, req.TopK)
	}

	input := req.Query
	if req.Enhanced {
		rewritten, reason := s.enhance(ctx, req.Query, req.SourceURL)
		if reason != "" {
			metrics.EnhancementFallbacksTotal.WithLabelValues(reason).Inc()
			span.AddEvent("enhancement_fallback", trace.WithAttributes(attribute.String("reason", reason)))
		} else {
			input = req.Query + " " + rewritten
		}
	}

	emb, err := s.embed.Embed(ctx, input)
	if err != nil {
		if errors.Is(err, domain.ErrEmbeddingProvider) {
			return nil, fmt.Errorf("embed query: %w", err)
		}
		return nil, fmt.Errorf("embed query: %w: %w", domain.ErrEmbeddingProvider, err)
	}

	start := time.Now()
	results, err := s.index.Search(ctx, emb.Embedding, req.TopK, req.Filters)
	if err != nil {
		metrics.SearchDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("search: %w", err)
	}
	metrics.SearchDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())

	return results, nil
}

// enhance asks the rewriter for extracted requirements. A non-empty reason means
// the caller must use the original query.
func (s *Service) enhance(ctx context.Context, query, sourceURL string) (string, string) {
	log := logpkg.FromContext(ctx, s.logger)
	if s.rewriter == nil {
		log.Warn("Query enhancement requested without a rewriter, using original query")
		return "", ReasonNoRewriter
	}

	ctx, cancel := context.WithTimeout(ctx, s.enhanceTimeout)
	defer cancel()

	rewritten, err := s.rewriter.Rewrite(ctx, enhancementPrompt(query, sourceURL))
	if err != nil {
		reason := ReasonProviderError
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			reason = ReasonTimeout
		}
		log.Warn("Query enhancement failed, using original query",
			zap.String("reason", reason), zap.Error(err))
		return "", reason
	}

	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" {
		log.Warn("Query enhancement returned empty text, using original query")
		return "", ReasonEmptyResponse
	}
	return rewritten, ""
}
