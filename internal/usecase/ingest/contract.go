package ingest

import (
	"context"

	"github.com/kailas-cloud/findfit/internal/domain"
	"github.com/kailas-cloud/findfit/internal/domain/listing"
)

// Source returns search result pages from one marketplace.
type Source interface {
	Name() listing.Source
	Search(ctx context.Context, term string, page int) ([]listing.RawRecord, error)
}

// ListingWriter persists listings and their vectors.
type ListingWriter interface {
	Upsert(ctx context.Context, l *listing.Listing) (int64, bool, error)
	FetchUnembedded(ctx context.Context, after listing.Cursor, limit int) ([]listing.Listing, error)
	AttachVector(ctx context.Context, id int64, vector []float32, model string) error
}

// Embedder vectorizes listing images and text.
type Embedder interface {
	Embed(ctx context.Context, in domain.EmbeddingInput) (domain.EmbeddingResult, error)
}

// ImageFetcher downloads listing images.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}
