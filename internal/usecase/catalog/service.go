// Package catalog builds the vector index from a catalog data file.
package catalog

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/assessrec/internal/domain"
	"github.com/kailas-cloud/assessrec/internal/domain/assessment"
	"github.com/kailas-cloud/assessrec/internal/metrics"
)

// Defaults for catalog embedding.
const (
	DefaultBatchSize  = 100
	DefaultBatchPause = 500 * time.Millisecond
)

// Failure records a catalog item embedded as a zero vector.
type Failure struct {
	Index int
	Name  string
	Err   error
}

// BuildReport summarises one catalog build.
type BuildReport struct {
	Records      int
	Points       int
	Batches      int
	Failures     []Failure
	PromptTokens int
	TotalTokens  int
	Duration     time.Duration
}

// Service embeds catalog records and writes them to the index.
type Service struct {
	load      LoadFunc
	index     Indexer
	embed     domain.Embedder
	batchSize int
	limiter   *rate.Limiter
	logger    *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithBatchSize sets the number of records per embedding request.
func WithBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithBatchPause sets the minimum spacing between embedding requests. Zero disables throttling.
func WithBatchPause(d time.Duration) Option {
	return func(s *Service) {
		if d <= 0 {
			s.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		s.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// New creates a catalog build service.
func New(load LoadFunc, index Indexer, embed domain.Embedder, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		load:      load,
		index:     index,
		embed:     embed,
		batchSize: DefaultBatchSize,
		limiter:   rate.NewLimiter(rate.Every(DefaultBatchPause), 1),
		logger:    logger,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Build loads dataFile, embeds every record and upserts the whole catalog.
// Items whose embedding fails are stored with a zero vector and listed in the report.
func (s *Service) Build(ctx context.Context, dataFile string) (BuildReport, error) {
	start := time.Now()

	cat, err := s.load(dataFile)
	if err != nil {
		return BuildReport{}, fmt.Errorf("load catalog: %w", err)
	}
	records := cat.Records()
	s.logger.Info("Loaded catalog", zap.String("file", dataFile), zap.Int("records", len(records)))

	if err := s.index.EnsureCollection(ctx); err != nil {
		return BuildReport{}, fmt.Errorf("ensure collection: %w", err)
	}

	report := BuildReport{Records: len(records)}
	vectors, err := s.embedAll(ctx, cat.CombinedTexts(), records, &report)
	if err != nil {
		return report, err
	}

	if err := s.index.Upsert(ctx, vectors, records); err != nil {
		return report, fmt.Errorf("upsert catalog: %w", err)
	}

	points, err := s.index.Count(ctx)
	if err != nil {
		return report, fmt.Errorf("count points: %w", err)
	}
	report.Points = points
	report.Duration = time.Since(start)

	s.logger.Info("Catalog build completed",
		zap.Int("records", report.Records),
		zap.Int("points", report.Points),
		zap.Int("fallbacks", len(report.Failures)),
		zap.Int("total_tokens", report.TotalTokens),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

func (s *Service) embedAll(
	ctx context.Context, texts []string, records []assessment.Record, report *BuildReport,
) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))

	for offset := 0; offset < len(texts); offset += s.batchSize {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("wait for batch %d: %w", report.Batches, err)
		}
		end := min(offset+s.batchSize, len(texts))

		batch, err := s.embedBatch(ctx, texts[offset:end], records[offset:end], offset, report)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
		report.Batches++

		s.logger.Debug("Embedded catalog batch",
			zap.Int("offset", offset), zap.Int("size", end-offset), zap.Int("total", len(texts)))
	}
	return vectors, nil
}

// embedBatch tries one batch request and retries item by item when it fails.
func (s *Service) embedBatch(
	ctx context.Context, texts []string, records []assessment.Record, offset int, report *BuildReport,
) ([][]float32, error) {
	if be, ok := s.embed.(domain.BatchEmbedder); ok {
		res, err := be.BatchEmbed(ctx, texts)
		if err == nil && len(res.Embeddings) == len(texts) {
			report.PromptTokens += res.PromptTokens
			report.TotalTokens += res.TotalTokens
			metrics.CatalogItemsTotal.WithLabelValues("ok").Add(float64(len(texts)))
			return res.Embeddings, nil
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("batch at %d: %w", offset, ctx.Err())
		}
		s.logger.Warn("Batch embedding failed, retrying items individually",
			zap.Int("offset", offset), zap.Int("size", len(texts)), zap.Error(err))
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		res, err := s.embed.Embed(ctx, text)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("item %d: %w", offset+i, ctx.Err())
			}
			s.logger.Warn("Embedding failed, storing zero vector",
				zap.Int("index", offset+i), zap.String("name", records[i].Name), zap.Error(err))
			report.Failures = append(report.Failures, Failure{Index: offset + i, Name: records[i].Name, Err: err})
			metrics.CatalogItemsTotal.WithLabelValues("fallback").Inc()
			out[i] = domain.ZeroVector(s.index.Dimensions())
			continue
		}
		report.PromptTokens += res.PromptTokens
		report.TotalTokens += res.TotalTokens
		metrics.CatalogItemsTotal.WithLabelValues("ok").Inc()
		out[i] = res.Embedding
	}
	return out, nil
}
