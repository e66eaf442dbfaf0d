// Package app is the composition root shared by the API server and the ingest CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/findfit/internal/config"
	"github.com/kailas-cloud/findfit/internal/db"
	"github.com/kailas-cloud/findfit/internal/db/postgres"
	"github.com/kailas-cloud/findfit/internal/db/valkey"
	"github.com/kailas-cloud/findfit/internal/domain"
	"github.com/kailas-cloud/findfit/internal/metrics"
	listingrepo "github.com/kailas-cloud/findfit/internal/repository/listing"
	searchrepo "github.com/kailas-cloud/findfit/internal/repository/search"
	"github.com/kailas-cloud/findfit/internal/transport/imagefetch"
	healthuc "github.com/kailas-cloud/findfit/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/findfit/internal/usecase/ingest"
	searchuc "github.com/kailas-cloud/findfit/internal/usecase/search"
)

// Options selects optional startup steps.
type Options struct {
	// Migrate creates the schema and vector index before anything else runs.
	Migrate bool
	// SkipWarm skips the provider warmup; for commands that never embed.
	SkipWarm bool
}

// App holds the wired services. Close releases every connection it opened.
type App struct {
	Config config.Config
	Logger *zap.Logger

	Store *postgres.Store
	Cache *valkey.Store // nil when the query cache is disabled

	// Model is the provider/model tag stored next to every vector.
	Model          string
	QueryEmbedder  domain.Embedder
	IngestEmbedder domain.Embedder

	Listings *listingrepo.Repo
	Search   *searchuc.Service
	Ingest   *ingestuc.Service
	Health   *healthuc.Service
}

// New connects to the store, builds the embedder chains and wires the use cases.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts Options) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	store, err := OpenStore(ctx, &cfg, opts.Migrate, logger)
	if err != nil {
		return nil, err
	}
	a.Store = store

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()
	metrics.RegisterIngestMetrics()
	metrics.RegisterPoolMetrics(func() metrics.PoolStats {
		st := store.PoolStats()
		return metrics.PoolStats{Acquired: st.Acquired, Idle: st.Idle, Total: st.Total, Max: st.Max}
	})

	if cfg.Cache.Enabled {
		cache, err := OpenCache(ctx, &cfg)
		if err != nil {
			logger.Warn("Embedding cache disabled", zap.Error(err))
		} else {
			a.Cache = cache
			logger.Info("Connected to embedding cache", zap.Strings("addrs", cfg.Cache.Addrs))
		}
	}

	provider, err := NewProvider(ctx, &cfg, !opts.SkipWarm, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Model = provider.Model()

	var cache Cache
	if a.Cache != nil {
		cache = a.Cache
	}
	chains := BuildEmbedders(provider, &cfg, cache, logger)
	a.QueryEmbedder = chains.Query
	a.IngestEmbedder = chains.Ingest
	logger.Info("Embedders created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", a.Model),
		zap.Int("dimensions", cfg.Index.Dimensions),
		zap.Bool("cache", a.Cache != nil),
	)

	metric, err := db.ParseDistanceMetric(cfg.Index.Metric)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("index metric: %w", err)
	}
	a.Listings = listingrepo.New(store, cfg.Index.Dimensions)
	searchRepo := searchrepo.New(store, searchrepo.Config{
		Distance:      metric,
		EFSearch:      cfg.Search.EFSearch,
		IterativeScan: cfg.Search.IterativeScan,
	})
	a.Search = searchuc.New(searchuc.NewEngine(searchRepo, cfg.Index.Dimensions), a.Listings, a.QueryEmbedder)

	sources, err := NewSources(&cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	images := imagefetch.New(imagefetch.Config{
		Timeout:   time.Duration(cfg.Ingest.ImageTimeoutSec) * time.Second,
		MaxBytes:  int64(cfg.Ingest.ImageMaxMB) << 20,
		UserAgent: cfg.Ingest.UserAgent,
	})
	a.Ingest = ingestuc.New(a.Listings, a.IngestEmbedder, images, sources, ingestuc.Config{
		Terms:       cfg.Ingest.Terms,
		Pages:       cfg.Ingest.Pages,
		BatchSize:   cfg.Ingest.Backfill.BatchSize,
		MaxBatches:  cfg.Ingest.Backfill.MaxBatches,
		Concurrency: cfg.Ingest.Backfill.Concurrency,
	}, logger)

	deps := healthuc.Deps{Database: store, Embedding: chains.Health, Stats: a.Listings}
	if a.Cache != nil {
		deps.Cache = a.Cache
	}
	a.Health = healthuc.New(deps, healthuc.DefaultCheckTimeout, logger)

	return a, nil
}

// Close releases the store and cache connections.
func (a *App) Close() {
	if a.Cache != nil {
		a.Cache.Close()
	}
	if a.Store != nil {
		a.Store.Close()
	}
}

// OpenStore opens the listing store and waits until it answers. With migrate
// the schema is created first.
func OpenStore(ctx context.Context, cfg *config.Config, migrate bool, logger *zap.Logger) (*postgres.Store, error) {
	table := cfg.Database.Table
	if table == "" {
		table = postgres.DefaultTable
	}
	store, err := postgres.NewStore(ctx, postgres.Config{
		URL:              cfg.Database.URL,
		MinConns:         cfg.Database.MinConns,
		MaxConns:         cfg.Database.MaxConns,
		StatementTimeout: time.Duration(cfg.Database.StatementTimeoutSec) * time.Second,
		Table:            table,
	})
	if err != nil {
		return nil, fmt.Errorf("create listing store: %w", err)
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database", zap.String("table", table))

	if migrate {
		if err := store.Migrate(ctx, cfg.IndexDefinition(table)); err != nil {
			store.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		logger.Info("Schema migrated",
			zap.Int("dimensions", cfg.Index.Dimensions),
			zap.String("metric", cfg.Index.Metric),
		)
	}
	return store, nil
}

// OpenCache connects to the query-embedding cache.
func OpenCache(ctx context.Context, cfg *config.Config) (*valkey.Store, error) {
	cache, err := valkey.NewStore(valkey.Config{
		Addrs:    cfg.Cache.Addrs,
		Password: cfg.Cache.Password,
		DB:       cfg.Cache.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	if err := cache.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		cache.Close()
		return nil, fmt.Errorf("cache not ready: %w", err)
	}
	return cache, nil
}
