package search

import (
	"context"
	"testing"

	"github.com/kailas-cloud/findfit/internal/db"
)

// fakeIndex records every KNN query it receives.
type fakeIndex struct {
	queries     []db.KNNQuery
	searchKNNFn func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

func (f *fakeIndex) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	f.queries = append(f.queries, *q)
	if f.searchKNNFn != nil {
		return f.searchKNNFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func newTestRepo(t *testing.T, cfg Config) (*Repo, *fakeIndex) {
	t.Helper()
	idx := &fakeIndex{}
	return New(idx, cfg), idx
}

// unitVector is a 4-wide query vector of norm 1.
func unitVector() []float32 {
	return []float32{0.5, 0.5, 0.5, 0.5}
}
