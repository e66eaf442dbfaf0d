package search

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/kailas-cloud/findfit/internal/domain"
	"github.com/kailas-cloud/findfit/internal/domain/search/filter"
	"github.com/kailas-cloud/findfit/internal/domain/search/request"
	"github.com/kailas-cloud/findfit/internal/domain/search/result"
	"github.com/kailas-cloud/findfit/internal/logger"
	"github.com/kailas-cloud/findfit/internal/metrics"
)

// Engine ranks stored listings against a query vector.
type Engine struct {
	repo       Repository
	dimensions int
}

// NewEngine creates a query engine for vectors of the given width.
func NewEngine(repo Repository, dimensions int) *Engine {
	return &Engine{repo: repo, dimensions: dimensions}
}

// Search returns at most topK listings ordered by ascending distance, ties broken
// by id. Every returned listing satisfies filters.
func (e *Engine) Search(
	ctx context.Context, vector []float32, topK int, filters filter.Filters,
) ([]result.Result, error) {
	if len(vector) != e.dimensions {
		return nil, fmt.Errorf("query vector: %w: got %d, want %d",
			domain.ErrVectorDimMismatch, len(vector), e.dimensions)
	}
	topK = request.ClampTopK(topK)

	hits, err := e.repo.SearchKNN(ctx, vector, filters, topK)
	if err != nil {
		return nil, fmt.Errorf("search knn: %w", err)
	}

	kept := hits[:0]
	for i := range hits {
		if !filters.Allows(hits[i].Listing()) {
			logger.FromContext(ctx).Warn("dropping result outside filters", zap.Int64("listing_id", hits[i].ID()))
			metrics.SearchDroppedTotal.Inc()
			continue
		}
		kept = append(kept, hits[i])
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Distance() != kept[j].Distance() {
			return kept[i].Distance() < kept[j].Distance()
		}
		return kept[i].ID() < kept[j].ID()
	})
	if len(kept) > topK {
		kept = kept[:topK]
	}
	return rank(kept), nil
}

// rank assigns 1-based positions and a similarity relative to the farthest hit.
func rank(results []result.Result) []result.Result {
	maxDist := 0.0
	for i := range results {
		if d := results[i].Distance(); d > maxDist {
			maxDist = d
		}
	}
	out := make([]result.Result, len(results))
	for i, r := range results {
		sim := 1.0
		if maxDist > 0 {
			sim = clamp01(1 - r.Distance()/maxDist)
		}
		out[i] = r.WithRank(i+1, sim)
	}
	return out
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
