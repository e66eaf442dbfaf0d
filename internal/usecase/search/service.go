package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/findfit/internal/domain"
	domlisting "github.com/kailas-cloud/findfit/internal/domain/listing"
	"github.com/kailas-cloud/findfit/internal/domain/search/request"
	"github.com/kailas-cloud/findfit/internal/domain/search/result"
	"github.com/kailas-cloud/findfit/internal/metrics"
	"github.com/kailas-cloud/findfit/internal/usecase/embedding"
)

// Service answers visual similarity queries.
type Service struct {
	engine   *Engine
	listings ListingReader
	embed    Embedder
}

// New creates a search service.
func New(engine *Engine, listings ListingReader, embed Embedder) *Service {
	return &Service{engine: engine, listings: listings, embed: embed}
}

// Search embeds the request's image and/or text once and returns the nearest listings.
func (s *Service) Search(ctx context.Context, req *request.Request) ([]result.Result, error) {
	mode := embedding.Mode(req.Input())

	results, err := s.search(ctx, req)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(mode, statusOf(err)).Inc()
		return nil, err
	}
	metrics.SearchRequestsTotal.WithLabelValues(mode, "success").Inc()
	metrics.SearchResults.Observe(float64(len(results)))
	return results, nil
}

func (s *Service) search(ctx context.Context, req *request.Request) ([]result.Result, error) {
	in := req.Input()
	if in.IsEmpty() {
		return nil, fmt.Errorf("image or query required: %w", domain.ErrInvalidInput)
	}

	emb, err := s.embed.Embed(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}
	return s.engine.Search(ctx, emb.Embedding, req.TopK(), req.Filters())
}

// Get returns one listing.
func (s *Service) Get(ctx context.Context, id int64) (domlisting.Listing, error) {
	l, err := s.listings.Get(ctx, id)
	if err != nil {
		return domlisting.Listing{}, fmt.Errorf("get listing: %w", err)
	}
	return l, nil
}

// FilterOptions returns the facet values clients can filter by.
func (s *Service) FilterOptions(ctx context.Context) (domlisting.FilterOptions, error) {
	opts, err := s.listings.FilterOptions(ctx)
	if err != nil {
		return domlisting.FilterOptions{}, fmt.Errorf("filter options: %w", err)
	}
	return opts, nil
}

func statusOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrEmbeddingUnavailable), errors.Is(err, domain.ErrEmbeddingProviderError):
		return "embedding_error"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "error"
	}
}
