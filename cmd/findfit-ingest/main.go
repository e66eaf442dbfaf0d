package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/findfit/internal/app"
	"github.com/kailas-cloud/findfit/internal/config"
	logpkg "github.com/kailas-cloud/findfit/internal/logger"
	"github.com/kailas-cloud/findfit/internal/version"
)

var (
	envName string
	cfg     config.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "findfit-ingest",
	Short: "Marketplace ingestion and embedding backfill for findfit",
	Long: `findfit-ingest fills the listing store and keeps its vectors current.

Example usage:
  findfit-ingest migrate                       # Create the schema and vector index
  findfit-ingest scrape -t "vintage tee"       # Fetch listings for one term
  findfit-ingest backfill                      # Embed listings that have no vector
  findfit-ingest reembed                       # Re-embed vectors from another model
  findfit-ingest schedule                      # Run ingest and backfill on cron`,
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; real environment variables win
		_ = godotenv.Load()

		if envName == "" {
			envName = config.GetEnv()
		}

		var err error
		cfg, err = config.Load(envName)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger, err = logpkg.NewLogger(envName, logpkg.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		logger = logpkg.Component(logger, "ingest")
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&envName, "env", "e", "", "config environment: local, dev, prod (default $ENV or local)")
	rootCmd.AddCommand(migrateCmd, scrapeCmd, backfillCmd, reembedCmd, scheduleCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

// openApp wires the services with the schema migrated.
func openApp(ctx context.Context, opts app.Options) (*app.App, error) {
	opts.Migrate = true
	a, err := app.New(ctx, cfg, logger, opts)
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	return a, nil
}
