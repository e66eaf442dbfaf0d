package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/findfit/internal/scheduler"
	ingestuc "github.com/kailas-cloud/findfit/internal/usecase/ingest"
)

// Scheduled job names.
const (
	JobIngest   = "ingest"
	JobBackfill = "backfill"
)

// Ingester is the part of the ingest service the recurring jobs drive.
type Ingester interface {
	Run(ctx context.Context, terms []string) (ingestuc.RunReport, error)
	Backfill(ctx context.Context, opts ingestuc.BackfillOptions) (ingestuc.BackfillReport, error)
}

// Jobs returns the ingestion and backfill jobs for the given cron specs.
func Jobs(ing Ingester, ingestSpec, backfillSpec string) []scheduler.Job {
	return []scheduler.Job{
		{
			Name: JobIngest,
			Spec: ingestSpec,
			Run: func(ctx context.Context) error {
				_, err := ing.Run(ctx, nil)
				return err //nolint:wrapcheck // logged by the scheduler with the job name
			},
		},
		{
			Name: JobBackfill,
			Spec: backfillSpec,
			Run: func(ctx context.Context) error {
				_, err := ing.Backfill(ctx, ingestuc.BackfillOptions{})
				return err //nolint:wrapcheck // logged by the scheduler with the job name
			},
		},
	}
}

// NewScheduler registers the recurring jobs from the scheduler config.
func (a *App) NewScheduler() (*scheduler.Scheduler, error) {
	cfg := a.Config.Scheduler
	s := scheduler.New(time.Duration(cfg.JobTimeoutMin)*time.Minute, a.Logger)
	for _, job := range Jobs(a.Ingest, cfg.IngestCron, cfg.BackfillCron) {
		if err := s.Add(job); err != nil {
			return nil, fmt.Errorf("register job %s: %w", job.Name, err)
		}
	}
	return s, nil
}

// Reembed drops vectors not produced by the active model and backfills them
// again. With all set every vector is dropped.
func (a *App) Reembed(ctx context.Context, all bool, opts ingestuc.BackfillOptions) (int64, ingestuc.BackfillReport, error) {
	keep := a.Model
	if all {
		keep = ""
	}
	cleared, err := a.Listings.ClearVectors(ctx, keep)
	if err != nil {
		return 0, ingestuc.BackfillReport{}, fmt.Errorf("clear vectors: %w", err)
	}
	a.Logger.Info("Vectors cleared", zap.Int64("cleared", cleared), zap.String("kept_model", keep))

	report, err := a.Ingest.Backfill(ctx, opts)
	if err != nil {
		return cleared, report, fmt.Errorf("backfill: %w", err)
	}
	return cleared, report, nil
}
