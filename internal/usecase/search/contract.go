package search

import (
	"context"

	"github.com/kailas-cloud/findfit/internal/domain"
	domlisting "github.com/kailas-cloud/findfit/internal/domain/listing"
	"github.com/kailas-cloud/findfit/internal/domain/search/filter"
	"github.com/kailas-cloud/findfit/internal/domain/search/result"
)

// Repository defines the storage contract for nearest-neighbour search.
type Repository interface {
	SearchKNN(ctx context.Context, vector []float32, filters filter.Filters, topK int) ([]result.Result, error)
}

// ListingReader reads listings and filter facets.
type ListingReader interface {
	Get(ctx context.Context, id int64) (domlisting.Listing, error)
	FilterOptions(ctx context.Context) (domlisting.FilterOptions, error)
}

// Embedder turns a query into a vector.
type Embedder interface {
	Embed(ctx context.Context, in domain.EmbeddingInput) (domain.EmbeddingResult, error)
}
