// Package ingest pulls marketplace listings into the store and attaches vectors.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/findfit/internal/domain"
	"github.com/kailas-cloud/findfit/internal/domain/listing"
	"github.com/kailas-cloud/findfit/internal/logger"
	"github.com/kailas-cloud/findfit/internal/metrics"
)

// Config holds the ingestion settings.
type Config struct {
	Terms       []string
	Pages       int // result pages per term and source
	BatchSize   int // listings per backfill batch
	MaxBatches  int // 0 means until none remain
	Concurrency int // parallel backfill items
}

// Defaults for Config zero values.
const (
	DefaultPages       = 3
	DefaultBatchSize   = 50
	DefaultConcurrency = 4
)

// BatchResult counts the outcome of one IngestBatch call.
type BatchResult struct {
	Created int
	Updated int
	Skipped int
	Failed  int
}

// Upserted returns the number of records written.
func (r BatchResult) Upserted() int { return r.Created + r.Updated }

func (r *BatchResult) add(o BatchResult) {
	r.Created += o.Created
	r.Updated += o.Updated
	r.Skipped += o.Skipped
	r.Failed += o.Failed
}

// RunReport summarizes one ingestion run across sources and terms.
type RunReport struct {
	RunID       string
	StartedAt   time.Time
	Duration    time.Duration
	Fetched     int
	FetchErrors int
	BatchResult
}

// BackfillReport summarizes one backfill pass.
type BackfillReport struct {
	Batches  int
	Embedded int
	Failed   int
}

// Service orchestrates ingestion runs and embedding backfill.
type Service struct {
	listings   ListingWriter
	embed      Embedder
	images     ImageFetcher
	sources    []Source
	normalizer *Normalizer
	cfg        Config
	logger     *zap.Logger
}

// New creates an ingestion service.
func New(
	listings ListingWriter, embed Embedder, images ImageFetcher,
	sources []Source, cfg Config, log *zap.Logger,
) *Service {
	if cfg.Pages <= 0 {
		cfg.Pages = DefaultPages
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		listings:   listings,
		embed:      embed,
		images:     images,
		sources:    sources,
		normalizer: NewNormalizer(),
		cfg:        cfg,
		logger:     log,
	}
}

// IngestBatch normalizes and upserts records from source. Invalid records are
// skipped and per-record write failures are counted; only an unreachable store
// or a cancelled context aborts the batch.
func (s *Service) IngestBatch(ctx context.Context, source listing.Source, records []listing.RawRecord) (BatchResult, error) {
	log := logger.FromContext(ctx, s.logger)
	var res BatchResult

	for i := range records {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		rec := &records[i]
		if rec.Source == "" {
			rec.Source = source
		}

		l, err := s.normalizer.Normalize(rec)
		if err != nil {
			log.Debug("Skipping record", zap.String("external_id", rec.ExternalID), zap.Error(err))
			metrics.IngestListingsTotal.WithLabelValues(string(source), "skipped").Inc()
			res.Skipped++
			continue
		}

		_, created, err := s.listings.Upsert(ctx, &l)
		switch {
		case errors.Is(err, domain.ErrStoreUnavailable):
			metrics.IngestListingsTotal.WithLabelValues(string(source), "failed").Inc()
			res.Failed++
			return res, fmt.Errorf("ingest %s: %w", source, err)
		case err != nil:
			log.Warn("Upsert failed", zap.String("external_id", l.ExternalID), zap.Error(err))
			metrics.IngestListingsTotal.WithLabelValues(string(source), "failed").Inc()
			res.Failed++
		case created:
			metrics.IngestListingsTotal.WithLabelValues(string(source), "created").Inc()
			res.Created++
		default:
			metrics.IngestListingsTotal.WithLabelValues(string(source), "updated").Inc()
			res.Updated++
		}
	}
	return res, nil
}

// Run fetches every configured page of every term from every source and ingests
// the results. A page that fails after retries is dropped for this run.
func (s *Service) Run(ctx context.Context, terms []string) (RunReport, error) {
	if len(terms) == 0 {
		terms = s.cfg.Terms
	}
	report := RunReport{RunID: uuid.NewString(), StartedAt: time.Now()}
	ctx = logger.With(ctx, zap.String("run_id", report.RunID))
	log := logger.FromContext(ctx, s.logger)

	log.Info("Ingestion run started",
		zap.Int("sources", len(s.sources)),
		zap.Int("terms", len(terms)),
		zap.Int("pages", s.cfg.Pages),
	)

	for _, src := range s.sources {
		for _, term := range terms {
			if err := s.ingestTerm(ctx, src, term, &report); err != nil {
				report.Duration = time.Since(report.StartedAt)
				return report, err
			}
		}
	}

	report.Duration = time.Since(report.StartedAt)
	log.Info("Ingestion run finished",
		zap.Int("fetched", report.Fetched),
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Int("fetch_errors", report.FetchErrors),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

func (s *Service) ingestTerm(ctx context.Context, src Source, term string, report *RunReport) error {
	log := logger.FromContext(ctx, s.logger).With(zap.String("source", string(src.Name())), zap.String("term", term))

	for page := 1; page <= s.cfg.Pages; page++ {
		records, err := src.Search(ctx, term, page)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			log.Warn("Dropping page", zap.Int("page", page), zap.Error(err))
			report.FetchErrors++
			return nil
		}
		if len(records) == 0 {
			return nil
		}
		report.Fetched += len(records)

		res, err := s.IngestBatch(ctx, src.Name(), records)
		report.add(res)
		if err != nil {
			return err
		}
		log.Debug("Page ingested", zap.Int("page", page), zap.Int("records", len(records)), zap.Int("upserted", res.Upserted()))
	}
	return nil
}

// BackfillOptions tunes one backfill pass. Zero values fall back to Config.
type BackfillOptions struct {
	BatchSize  int
	MaxBatches int
	// OnItem is called after each item with its outcome.
	OnItem func(embedded bool)
}

// Backfill attaches vectors to listings that lack one, batch by batch, until
// none remain or the batch limit is reached. Item failures are logged and
// counted; they never abort the pass. Items that fail are not retried within
// the same pass.
func (s *Service) Backfill(ctx context.Context, opts BackfillOptions) (BackfillReport, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = s.cfg.BatchSize
	}
	if opts.MaxBatches <= 0 {
		opts.MaxBatches = s.cfg.MaxBatches
	}
	log := logger.FromContext(ctx, s.logger)

	var (
		report BackfillReport
		after  listing.Cursor
	)
	for opts.MaxBatches <= 0 || report.Batches < opts.MaxBatches {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		// failed rows stay unembedded, so the scan resumes past the batch
		batch, err := s.listings.FetchUnembedded(ctx, after, opts.BatchSize)
		if err != nil {
			return report, fmt.Errorf("fetch unembedded: %w", err)
		}
		if len(batch) == 0 {
			break
		}
		after = batch[len(batch)-1].Cursor()

		embedded, failed := s.backfillBatch(ctx, batch, opts.OnItem)
		report.Batches++
		report.Embedded += embedded
		report.Failed += failed
		log.Info("Backfill batch done",
			zap.Int("batch", report.Batches),
			zap.Int("embedded", embedded),
			zap.Int("failed", failed),
		)
	}
	return report, nil
}

func (s *Service) backfillBatch(ctx context.Context, batch []listing.Listing, onItem func(bool)) (embedded, failed int) {
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, s.cfg.Concurrency)
	)
	for i := range batch {
		wg.Add(1)
		sem <- struct{}{}
		go func(l *listing.Listing) {
			defer wg.Done()
			defer func() { <-sem }()

			err := s.embedListing(ctx, l)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.FromContext(ctx, s.logger).Warn("Backfill item failed",
					zap.Int64("listing_id", l.ID),
					zap.String("image_url", l.ImageURL),
					zap.Error(err),
				)
				metrics.BackfillItemsTotal.WithLabelValues("failed").Inc()
				failed++
			} else {
				metrics.BackfillItemsTotal.WithLabelValues("embedded").Inc()
				embedded++
			}
			if onItem != nil {
				onItem(err == nil)
			}
		}(&batch[i])
	}
	wg.Wait()
	return embedded, failed
}

func (s *Service) embedListing(ctx context.Context, l *listing.Listing) error {
	img, err := s.images.Fetch(ctx, l.ImageURL)
	if err != nil {
		return err
	}
	res, err := s.embed.Embed(ctx, domain.EmbeddingInput{Image: img, Text: l.EmbeddingText()})
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	if err := s.listings.AttachVector(ctx, l.ID, res.Embedding, res.Model); err != nil {
		return fmt.Errorf("attach vector: %w", err)
	}
	return nil
}
