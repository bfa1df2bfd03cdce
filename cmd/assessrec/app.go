package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/kailas-cloud/assessrec/internal/config"
	dbRedis "github.com/kailas-cloud/assessrec/internal/db/redis"
	"github.com/kailas-cloud/assessrec/internal/domain"
	"github.com/kailas-cloud/assessrec/internal/domain/filter"
	logpkg "github.com/kailas-cloud/assessrec/internal/logger"
	"github.com/kailas-cloud/assessrec/internal/metrics"
	"github.com/kailas-cloud/assessrec/internal/repository/embcache"
	"github.com/kailas-cloud/assessrec/internal/repository/memory"
	"github.com/kailas-cloud/assessrec/internal/repository/qdrant"
	"github.com/kailas-cloud/assessrec/internal/repository/vector"
	"github.com/kailas-cloud/assessrec/internal/secrets"
	"github.com/kailas-cloud/assessrec/internal/transport/gemini"
	openaiTransport "github.com/kailas-cloud/assessrec/internal/transport/openai"
	"github.com/kailas-cloud/assessrec/internal/transport/web"
	embeddinguc "github.com/kailas-cloud/assessrec/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/assessrec/internal/usecase/health"
	indexuc "github.com/kailas-cloud/assessrec/internal/usecase/index"
	recommenduc "github.com/kailas-cloud/assessrec/internal/usecase/recommend"
	"github.com/kailas-cloud/assessrec/internal/version"
)

// application is the composition root shared by every command.
type application struct {
	env         string
	cfg         config.Config
	logger      *zap.Logger
	embedder    *domain.TruncatingEmbedder
	index       *indexuc.Service
	recommender *recommenduc.Service
	health      *healthuc.Service
	closers     []func()
}

// newApplication loads configuration, resolves credentials and wires every dependency.
// override, when non-nil, adjusts the loaded config before anything is built (CLI flags).
func newApplication(ctx context.Context, v *viper.Viper, override func(*config.Config)) (*application, error) {
	env := v.GetString(flagEnv)
	if env == "" {
		env = config.GetEnv()
	}

	var (
		cfg config.Config
		err error
	)
	if path := v.GetString(flagConfig); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if override != nil {
		override(&cfg)
	}

	level := v.GetString(flagLogLevel)
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logpkg.NewLogger(env, level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	a := &application{env: env, cfg: cfg, logger: logger}
	if err := a.wire(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *application) wire(ctx context.Context) error {
	cfg := a.cfg

	creds, err := cfg.ResolveCredentials(secrets.NewResolver())
	if err != nil {
		return err //nolint:wrapcheck // already names every source searched
	}

	metrics.Register()

	a.logger.Info("Starting assessrec",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", a.env),
		zap.String("vector_store", cfg.VectorStore.Driver),
		zap.String("collection", cfg.VectorStore.Collection),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	backend, cache, err := a.buildBackend(ctx, creds)
	if err != nil {
		return err
	}
	a.index = indexuc.New(backend, cfg.VectorStore.Collection, cfg.Embedding.Dimensions)
	a.embedder = a.buildEmbedder(creds, cache)

	opts := []recommenduc.Option{
		recommenduc.WithFetcher(web.NewFetcher(seconds(cfg.Fetcher.TimeoutSec), a.logger)),
		recommenduc.WithEnhancementTimeout(seconds(cfg.Enhancement.TimeoutSec)),
	}
	rewriter, err := a.buildRewriter(ctx, creds)
	if err != nil {
		return err
	}
	if rewriter != nil {
		opts = append(opts, recommenduc.WithRewriter(rewriter))
	}
	a.recommender = recommenduc.New(a.embedder, a.index, a.logger, opts...)
	a.health = healthuc.New(a.index, a.embedder)
	return nil
}

// buildBackend returns the index backend and, for valkey/redis, the KV store used by the embedding cache.
func (a *application) buildBackend(ctx context.Context, creds config.Credentials) (indexuc.Backend, *dbRedis.Store, error) {
	vs := a.cfg.VectorStore
	switch vs.Driver {
	case config.DriverValkey, config.DriverRedis:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    vs.Addrs,
			Username: vs.Username,
			Password: vs.Password,
			DB:       vs.DB,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create %s store: %w", vs.Driver, err)
		}
		a.closers = append(a.closers, store.Close)
		if err := store.WaitForReady(ctx, seconds(vs.ReadinessTimeout)); err != nil {
			return nil, nil, fmt.Errorf("%s not ready: %w", vs.Driver, err)
		}
		a.logger.Info("Connected to vector store", zap.Strings("addrs", vs.Addrs))
		return vector.New(store, vector.HNSWConfig{M: vs.HNSWM, EFConstruct: vs.HNSWEFConstruct}), store, nil
	case config.DriverQdrant:
		repo, err := qdrant.New(vs.URL, qdrant.WithAPIKey(creds.Qdrant), qdrant.WithTimeout(seconds(vs.TimeoutSec)))
		if err != nil {
			return nil, nil, fmt.Errorf("create qdrant repository: %w", err)
		}
		return repo, nil, nil
	default:
		return memory.New(vs.DataDir), nil, nil
	}
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Truncating.
func (a *application) buildEmbedder(creds config.Credentials, cache *dbRedis.Store) *domain.TruncatingEmbedder {
	emb := a.cfg.Embedding

	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     creds.Embedding,
		BaseURL:    emb.BaseURL,
		Model:      emb.Model,
		Dimensions: emb.Dimensions,
		Provider:   emb.Provider,
		Timeout:    seconds(emb.TimeoutSec),
		Logger:     a.logger,
	})

	var embedder domain.Embedder = base
	if cache != nil {
		embedder = embcache.New(base, cache, embcache.Options{
			Model: emb.Model,
			TTL:   time.Duration(emb.CacheTTLHours) * time.Hour,
		}, metrics.EmbeddingCacheTotal, a.logger)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, emb.Provider, emb.Model, a.logger,
		embeddinguc.WithDimensions(emb.Dimensions),
		embeddinguc.WithMaxBatchSize(emb.BatchSize),
	)

	return domain.NewTruncatingEmbedder(embedder, emb.MaxInputWords)
}

// buildRewriter returns nil when enhancement is disabled or has no key; enhanced requests then fall back.
func (a *application) buildRewriter(ctx context.Context, creds config.Credentials) (domain.Rewriter, error) {
	enh := a.cfg.Enhancement
	if enh.Provider == config.ProviderNone {
		return nil, nil
	}
	if creds.Enhancement == "" {
		a.logger.Warn("Query enhancement disabled: no API key", zap.String("provider", enh.Provider))
		return nil, nil
	}

	switch enh.Provider {
	case config.ProviderGemini:
		r, err := gemini.NewRewriter(ctx, &gemini.Config{
			APIKey:    creds.Enhancement,
			Model:     enh.Model,
			MaxTokens: enh.MaxTokens,
			Logger:    a.logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini rewriter: %w", err)
		}
		return r, nil
	default:
		baseURL := enh.BaseURL
		if baseURL == "" {
			baseURL = a.cfg.Embedding.BaseURL
		}
		return openaiTransport.NewRewriter(&openaiTransport.RewriterConfig{
			APIKey:    creds.Enhancement,
			BaseURL:   baseURL,
			Model:     enh.Model,
			MaxTokens: enh.MaxTokens,
			Timeout:   seconds(enh.TimeoutSec),
			Logger:    a.logger,
		}), nil
	}
}

func (a *application) filterMode() filter.Mode {
	if a.cfg.VectorStore.LenientFilters {
		return filter.Lenient
	}
	return filter.Strict
}

// Close releases connections and flushes the logger.
func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	_ = a.logger.Sync()
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
