package db

import (
	"time"

	"github.com/kailas-cloud/findfit/internal/domain/search/filter"
)

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	Vector    []float32
	K         int
	Filters   filter.Filters
	Distance  DistanceMetric
	EFSearch  int    // hnsw.ef_search for this query; 0 keeps the server default
	Iterative string // hnsw.iterative_scan: off, relaxed_order, strict_order; "" keeps the server default
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Entries []SearchEntry
}

// SearchEntry is a single listing hit.
type SearchEntry struct {
	Row      ListingRow
	Distance float64
}

// ListingRow mirrors one row of the listings table.
type ListingRow struct {
	ID             int64
	Source         string
	ExternalID     string
	Title          string
	Description    string
	Price          float64
	Currency       string
	URL            string
	ImageURL       string
	SellerName     string
	Brand          string
	Category       string
	Color          string
	Condition      string
	Size           string
	Embedding      []float32 // nil when absent
	EmbeddingModel string
	EmbeddedAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Cursor is a keyset position in newest-first listing order. The zero value
// starts at the newest row.
type Cursor struct {
	CreatedAt time.Time
	ID        int64
}

// UpsertResult reports the row id and whether the row was inserted.
type UpsertResult struct {
	ID      int64
	Created bool
}

// ListingStats counts listings and how many carry a vector.
type ListingStats struct {
	Total    int64
	Embedded int64
}
