package main

import (
	"context"
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/findfit/internal/app"
	"github.com/kailas-cloud/findfit/internal/scheduler"
	ingestuc "github.com/kailas-cloud/findfit/internal/usecase/ingest"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the listings table and its vector index",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := app.OpenStore(cmd.Context(), &cfg, true, logger)
		if err != nil {
			return err //nolint:wrapcheck // already carries context
		}
		store.Close()
		fmt.Println("Schema is up to date")
		return nil
	},
}

var (
	scrapeTerms    []string
	scrapePages    int
	scrapeBackfill bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Fetch listings from every configured marketplace",
	RunE: func(cmd *cobra.Command, args []string) error {
		if scrapePages > 0 {
			cfg.Ingest.Pages = scrapePages
		}
		a, err := openApp(cmd.Context(), app.Options{SkipWarm: !scrapeBackfill})
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.Ingest.Run(cmd.Context(), scrapeTerms)
		if err != nil {
			return fmt.Errorf("ingestion run: %w", err)
		}
		fmt.Printf("Run %s: fetched %d, created %d, updated %d, skipped %d, failed %d, dropped pages %d in %s\n",
			report.RunID, report.Fetched, report.Created, report.Updated, report.Skipped, report.Failed,
			report.FetchErrors, report.Duration.Round(time.Millisecond))

		if !scrapeBackfill {
			return nil
		}
		return runBackfill(cmd.Context(), a, ingestuc.BackfillOptions{})
	},
}

var (
	backfillBatchSize  int
	backfillMaxBatches int
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Embed listings that have no vector yet",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		return runBackfill(cmd.Context(), a, ingestuc.BackfillOptions{
			BatchSize:  backfillBatchSize,
			MaxBatches: backfillMaxBatches,
		})
	},
}

var reembedAll bool

var reembedCmd = &cobra.Command{
	Use:   "reembed",
	Short: "Drop vectors from other models and embed those listings again",
	Long: `Vectors are tagged with the provider/model that produced them. After switching
embedding.provider or its model, reembed clears every vector the active model did
not produce and backfills them. --all clears every vector.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		bar := newProgressBar(cmd.Context(), a, "Re-embedding", false)
		cleared, report, err := a.Reembed(cmd.Context(), reembedAll, ingestuc.BackfillOptions{
			BatchSize:  backfillBatchSize,
			MaxBatches: backfillMaxBatches,
			OnItem:     bar.onItem,
		})
		_ = bar.Finish()
		if err != nil {
			return err //nolint:wrapcheck // already carries context
		}
		fmt.Printf("Cleared %d vectors; embedded %d, failed %d in %d batches\n",
			cleared, report.Embedded, report.Failed, report.Batches)
		return nil
	},
}

var scheduleRunNow bool

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run ingestion and backfill on their cron schedules until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.NewScheduler()
		if err != nil {
			return err //nolint:wrapcheck // already carries context
		}
		s.Start()
		for _, e := range s.Entries() {
			logger.Info("Next run", zap.String("job", e.Name), zap.Time("at", e.Next))
		}

		if scheduleRunNow {
			go runJobsNow(s)
		}

		<-ctx.Done()
		logger.Info("Received shutdown signal")

		stopCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
		defer cancel()
		return s.Stop(stopCtx) //nolint:wrapcheck // already carries context
	},
}

func init() {
	scrapeCmd.Flags().StringSliceVarP(&scrapeTerms, "terms", "t", nil, "search terms (default ingest.terms)")
	scrapeCmd.Flags().IntVarP(&scrapePages, "pages", "p", 0, "result pages per term and source (default ingest.pages)")
	scrapeCmd.Flags().BoolVar(&scrapeBackfill, "backfill", false, "embed new listings after the run")

	for _, c := range []*cobra.Command{backfillCmd, reembedCmd} {
		c.Flags().IntVar(&backfillBatchSize, "batch-size", 0, "listings per batch (default ingest.backfill.batch_size)")
		c.Flags().IntVar(&backfillMaxBatches, "max-batches", 0, "stop after this many batches (default until none remain)")
	}
	reembedCmd.Flags().BoolVar(&reembedAll, "all", false, "clear every vector, not only those from other models")
	scheduleCmd.Flags().BoolVar(&scheduleRunNow, "run-now", false, "run ingest then backfill once at startup")
}

func runJobsNow(s *scheduler.Scheduler) {
	for _, name := range []string{app.JobIngest, app.JobBackfill} {
		if err := s.RunNow(name); err != nil {
			logger.Error("Run now failed", zap.String("job", name), zap.Error(err))
		}
	}
}

func runBackfill(ctx context.Context, a *app.App, opts ingestuc.BackfillOptions) error {
	bar := newProgressBar(ctx, a, "Embedding", true)
	opts.OnItem = bar.onItem
	report, err := a.Ingest.Backfill(ctx, opts)
	_ = bar.Finish()
	if err != nil {
		return fmt.Errorf("backfill: %w", err)
	}
	fmt.Printf("Embedded %d, failed %d in %d batches\n", report.Embedded, report.Failed, report.Batches)
	return nil
}

// backfillBar counts backfill items; failures are shown in the description.
type backfillBar struct {
	*progressbar.ProgressBar
	label  string
	failed int
}

// newProgressBar sizes the bar by the listings still lacking a vector. Unsized
// or when the count is unavailable it is a spinner.
func newProgressBar(ctx context.Context, a *app.App, label string, sized bool) *backfillBar {
	total := int64(-1)
	if sized {
		if st, err := a.Listings.Stats(ctx); err == nil && st.Total > st.Embedded {
			total = st.Total - st.Embedded
		}
	}
	return &backfillBar{
		label: label,
		ProgressBar: progressbar.NewOptions64(total,
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("listings"),
			progressbar.OptionSetDescription("[cyan]"+label+"[reset]"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionOnCompletion(func() {
				fmt.Println()
			}),
		),
	}
}

// onItem runs under the backfill service's result lock.
func (b *backfillBar) onItem(embedded bool) {
	if !embedded {
		b.failed++
		b.Describe(fmt.Sprintf("[cyan]%s[reset] [red]%d failed[reset]", b.label, b.failed))
	}
	_ = b.Add(1)
}
