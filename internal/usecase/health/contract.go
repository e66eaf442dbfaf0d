package health

import (
	"context"

	"github.com/kailas-cloud/findfit/internal/domain/listing"
)

// Pinger checks a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// StatsReader reports listing counts.
type StatsReader interface {
	Stats(ctx context.Context) (listing.Stats, error)
}
