// Package search is the nearest-neighbor repository over the listing vector index.
package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/findfit/internal/db"
	"github.com/kailas-cloud/findfit/internal/domain"
	"github.com/kailas-cloud/findfit/internal/domain/search/filter"
	"github.com/kailas-cloud/findfit/internal/domain/search/result"
	"github.com/kailas-cloud/findfit/internal/repository/listing"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Config tunes the index scan per query.
type Config struct {
	Distance      db.DistanceMetric
	EFSearch      int
	IterativeScan string
}

// Repo implements usecase/search.Repository.
type Repo struct {
	store store
	cfg   Config
}

// New creates a search repository.
func New(s store, cfg Config) *Repo {
	if cfg.Distance == "" {
		cfg.Distance = db.DistanceCosine
	}
	return &Repo{store: s, cfg: cfg}
}

// SearchKNN returns up to topK embedded listings nearest to vector that satisfy filters,
// in the order the store returned them.
func (r *Repo) SearchKNN(
	ctx context.Context, vector []float32, filters filter.Filters, topK int,
) ([]result.Result, error) {
	q := &db.KNNQuery{
		Vector:    vector,
		K:         topK,
		Filters:   filters,
		Distance:  r.cfg.Distance,
		EFSearch:  r.cfg.EFSearch,
		Iterative: r.cfg.IterativeScan,
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		if errors.Is(err, db.ErrUnavailable) {
			return nil, fmt.Errorf("search knn: %w: %w", domain.ErrStoreUnavailable, err)
		}
		return nil, fmt.Errorf("search knn: %w", err)
	}

	return parseKNNResults(sr), nil
}

// parseKNNResults converts db.SearchResult into []result.Result.
func parseKNNResults(sr *db.SearchResult) []result.Result {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}
	results := make([]result.Result, 0, len(sr.Entries))
	for i := range sr.Entries {
		entry := &sr.Entries[i]
		l := listing.FromRow(&entry.Row)
		// Stored vectors are not part of a search response.
		l.Embedding = nil
		results = append(results, result.New(l, entry.Distance))
	}
	return results
}
