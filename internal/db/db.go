package db

import (
	"context"
	"time"
)

// Store is the listing database facade combining all sub-interfaces.
//
//nolint:interfacebloat // consumers declare narrow sub-interfaces
type Store interface {
	Pinger
	Migrator
	ListingStore
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Migrator creates the schema and the vector index.
type Migrator interface {
	Migrate(ctx context.Context, def *IndexDefinition) error
}

// ListingStore provides row-level listing operations.
type ListingStore interface {
	UpsertListing(ctx context.Context, row *ListingRow) (UpsertResult, error)
	GetListing(ctx context.Context, id int64) (*ListingRow, error)
	FetchUnembedded(ctx context.Context, after Cursor, limit int) ([]ListingRow, error)
	AttachVector(ctx context.Context, id int64, vector []float32, model string) error
	ClearVectors(ctx context.Context, keepModel string) (int64, error)
	DistinctValues(ctx context.Context, column string, limit int) ([]string, error)
	CountListings(ctx context.Context) (ListingStats, error)
}

// Searcher provides nearest-neighbor queries over the vector index.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
}

// KVStore provides simple key-value operations (cache backend).
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
