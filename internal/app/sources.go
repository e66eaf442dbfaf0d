package app

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/findfit/internal/config"
	"github.com/kailas-cloud/findfit/internal/domain/listing"
	"github.com/kailas-cloud/findfit/internal/transport/marketplace"
	ingestuc "github.com/kailas-cloud/findfit/internal/usecase/ingest"
)

// NewSources builds one marketplace client per configured source name.
func NewSources(cfg *config.Config, logger *zap.Logger) ([]ingestuc.Source, error) {
	opts := []marketplace.ClientOption{
		marketplace.WithMinDelay(time.Duration(cfg.Ingest.MinDelayMS) * time.Millisecond),
		marketplace.WithRetry(cfg.Ingest.Retry.Policy()),
		marketplace.WithLogger(logger),
	}
	if cfg.Ingest.UserAgent != "" {
		opts = append(opts, marketplace.WithUserAgent(cfg.Ingest.UserAgent))
	}

	sources := make([]ingestuc.Source, 0, len(cfg.Ingest.Sources))
	for _, name := range cfg.Ingest.Sources {
		switch listing.Source(name) {
		case listing.SourceDepop:
			sources = append(sources, marketplace.NewDepop(opts...))
		case listing.SourceGrailed:
			sources = append(sources, marketplace.NewGrailed(opts...))
		case listing.SourceVinted:
			sources = append(sources, marketplace.NewVinted(opts...))
		default:
			return nil, fmt.Errorf("unknown ingest source %q", name)
		}
	}
	return sources, nil
}
