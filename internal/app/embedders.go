package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/findfit/internal/config"
	"github.com/kailas-cloud/findfit/internal/domain"
	"github.com/kailas-cloud/findfit/internal/metrics"
	"github.com/kailas-cloud/findfit/internal/repository/embcache"
	"github.com/kailas-cloud/findfit/internal/transport/clip"
	openaiEmb "github.com/kailas-cloud/findfit/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/findfit/internal/usecase/embedding"
)

const warmTimeout = 2 * time.Minute

// Provider is a provider handle that knows the model tag it stamps on vectors.
type Provider interface {
	domain.Embedder
	domain.HealthChecker
	Model() string
}

// NewProvider builds the configured provider once. The local CLIP server is
// warmed with one request unless warm is false.
func NewProvider(ctx context.Context, cfg *config.Config, warm bool, logger *zap.Logger) (Provider, error) {
	pc := cfg.ActiveProvider()
	var httpClient *http.Client
	if pc.TimeoutSec > 0 {
		httpClient = &http.Client{Timeout: time.Duration(pc.TimeoutSec) * time.Second}
	}

	switch cfg.Embedding.Provider {
	case config.ProviderCLIP:
		e, err := clip.NewEmbedder(&clip.Config{
			BaseURL:    pc.BaseURL,
			APIKey:     pc.APIKey,
			Model:      pc.Model,
			HTTPClient: httpClient,
			Logger:     logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create clip provider: %w", err)
		}
		if warm {
			warmCtx, cancel := context.WithTimeout(ctx, warmTimeout)
			defer cancel()
			if err := e.Warm(warmCtx); err != nil {
				return nil, err //nolint:wrapcheck // already carries context
			}
			if native := e.NativeDimensions(); native != cfg.Index.Dimensions {
				logger.Warn("Provider width differs from index width, vectors are padded or truncated",
					zap.Int("native_dimensions", native),
					zap.Int("index_dimensions", cfg.Index.Dimensions),
				)
			}
		}
		return e, nil
	case config.ProviderOpenAI:
		return openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     pc.APIKey,
			BaseURL:    pc.BaseURL,
			Model:      pc.Model,
			Dimensions: pc.Dimensions,
			Provider:   config.ProviderOpenAI,
			HTTPClient: httpClient,
			Logger:     logger,
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

// Cache is the key-value store behind the query-embedding cache.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Embedders are the decorator chains built over one provider.
type Embedders struct {
	// Query serves search requests: adapter -> cache -> instrumented.
	Query domain.Embedder
	// Ingest serves backfill: adapter -> instrumented. Listing images are not cached.
	Ingest domain.Embedder
	// Health checks the provider through the adapter.
	Health *embeddinguc.Service
}

// BuildEmbedders assembles the decorator chains. cache may be nil.
func BuildEmbedders(provider Provider, cfg *config.Config, cache Cache, logger *zap.Logger) Embedders {
	timeout := embeddinguc.DefaultAttemptTimeout
	if sec := cfg.ActiveProvider().TimeoutSec; sec > 0 {
		timeout = time.Duration(sec) * time.Second
	}
	adapter := embeddinguc.New(provider, embeddinguc.Config{
		Provider:       cfg.Embedding.Provider,
		Dimensions:     cfg.Index.Dimensions,
		Retry:          cfg.Embedding.Retry.Policy(),
		AttemptTimeout: timeout,
	}, logger)

	var query domain.Embedder = adapter
	if cache != nil {
		query = embcache.New(adapter, cache, embcache.Options{
			Model:      provider.Model(),
			Dimensions: cfg.Index.Dimensions,
			TTL:        time.Duration(cfg.Cache.TTLSec) * time.Second,
		}, metrics.EmbeddingCacheTotal, logger)
	}

	return Embedders{
		Query:  embeddinguc.NewInstrumentedEmbedder(query, cfg.Embedding.Provider, provider.Model(), logger),
		Ingest: embeddinguc.NewInstrumentedEmbedder(adapter, cfg.Embedding.Provider, provider.Model(), logger),
		Health: adapter,
	}
}
