package result

import "github.com/kailas-cloud/findfit/internal/domain/listing"

// Result is a single search hit. Lower distance is closer.
type Result struct {
	listing    listing.Listing
	distance   float64
	similarity float64
	rank       int
}

// New creates a search result. Rank and similarity are assigned by the query engine.
func New(l listing.Listing, distance float64) Result {
	return Result{listing: l, distance: distance}
}

// Listing returns the matched listing.
func (r *Result) Listing() *listing.Listing { return &r.listing }

// ID returns the listing identifier.
func (r *Result) ID() int64 { return r.listing.ID }

// Distance returns the metric distance to the query vector.
func (r *Result) Distance() float64 { return r.distance }

// Similarity returns the page-relative similarity in [0, 1].
func (r *Result) Similarity() float64 { return r.similarity }

// Rank returns the 1-based position in the result list.
func (r *Result) Rank() int { return r.rank }

// WithRank returns a copy positioned at rank with the given similarity.
func (r Result) WithRank(rank int, similarity float64) Result {
	r.rank = rank
	r.similarity = similarity
	return r
}
