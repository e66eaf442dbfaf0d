// Package listing is the listing repository over the relational store.
package listing

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kailas-cloud/findfit/internal/db"
	"github.com/kailas-cloud/findfit/internal/domain"
	domlisting "github.com/kailas-cloud/findfit/internal/domain/listing"
)

// brandOptionsLimit caps the brand list; the other filter columns are small sets.
const (
	brandOptionsLimit = 100
	optionsLimit      = 500
)

// store is the consumer interface for listings (ISP).
type store interface {
	UpsertListing(ctx context.Context, row *db.ListingRow) (db.UpsertResult, error)
	GetListing(ctx context.Context, id int64) (*db.ListingRow, error)
	FetchUnembedded(ctx context.Context, after db.Cursor, limit int) ([]db.ListingRow, error)
	AttachVector(ctx context.Context, id int64, vector []float32, model string) error
	ClearVectors(ctx context.Context, keepModel string) (int64, error)
	DistinctValues(ctx context.Context, column string, limit int) ([]string, error)
	CountListings(ctx context.Context) (db.ListingStats, error)
}

// Repo implements listing persistence for the ingest and search use cases.
type Repo struct {
	store      store
	dimensions int
}

// New creates a listing repository. Vectors must have exactly dimensions components.
func New(s store, dimensions int) *Repo {
	return &Repo{store: s, dimensions: dimensions}
}

// Upsert stores l by its (source, external id) identity. Returns the row id and
// whether the row was created. A listing without a vector keeps any stored one.
func (r *Repo) Upsert(ctx context.Context, l *domlisting.Listing) (int64, bool, error) {
	if err := l.Validate(); err != nil {
		return 0, false, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	if l.HasEmbedding() && len(l.Embedding) != r.dimensions {
		return 0, false, fmt.Errorf("listing %s/%s: %w: got %d, want %d",
			l.Source, l.ExternalID, domain.ErrVectorDimMismatch, len(l.Embedding), r.dimensions)
	}
	res, err := r.store.UpsertListing(ctx, toRow(l))
	if err != nil {
		return 0, false, mapError(fmt.Sprintf("upsert %s/%s", l.Source, l.ExternalID), err)
	}
	return res.ID, res.Created, nil
}

// Get returns one listing by id.
func (r *Repo) Get(ctx context.Context, id int64) (domlisting.Listing, error) {
	row, err := r.store.GetListing(ctx, id)
	if err != nil {
		return domlisting.Listing{}, mapError(fmt.Sprintf("get listing %d", id), err)
	}
	return FromRow(row), nil
}

// FetchUnembedded returns up to limit listings with an image and no vector,
// newest first, starting after the after cursor.
func (r *Repo) FetchUnembedded(ctx context.Context, after domlisting.Cursor, limit int) ([]domlisting.Listing, error) {
	rows, err := r.store.FetchUnembedded(ctx, db.Cursor{CreatedAt: after.CreatedAt, ID: after.ID}, limit)
	if err != nil {
		return nil, mapError("fetch unembedded", err)
	}
	out := make([]domlisting.Listing, 0, len(rows))
	for i := range rows {
		out = append(out, FromRow(&rows[i]))
	}
	return out, nil
}

// AttachVector stores vector on listing id. Vectors of the wrong width are rejected
// before any write.
func (r *Repo) AttachVector(ctx context.Context, id int64, vector []float32, model string) error {
	if len(vector) != r.dimensions {
		return fmt.Errorf("listing %d: %w: got %d, want %d", id, domain.ErrVectorDimMismatch, len(vector), r.dimensions)
	}
	if err := r.store.AttachVector(ctx, id, vector, model); err != nil {
		return mapError(fmt.Sprintf("attach vector %d", id), err)
	}
	return nil
}

// ClearVectors removes vectors not produced by keepModel ("" clears all).
func (r *Repo) ClearVectors(ctx context.Context, keepModel string) (int64, error) {
	n, err := r.store.ClearVectors(ctx, keepModel)
	if err != nil {
		return 0, mapError("clear vectors", err)
	}
	return n, nil
}

// Stats reports listing counts.
func (r *Repo) Stats(ctx context.Context) (domlisting.Stats, error) {
	st, err := r.store.CountListings(ctx)
	if err != nil {
		return domlisting.Stats{}, mapError("count listings", err)
	}
	return domlisting.Stats{Total: st.Total, Embedded: st.Embedded}, nil
}

// FilterOptions reads the distinct values of every filterable column concurrently.
func (r *Repo) FilterOptions(ctx context.Context) (domlisting.FilterOptions, error) {
	var opts domlisting.FilterOptions
	targets := []struct {
		column string
		limit  int
		dst    *[]string
	}{
		{"category", optionsLimit, &opts.Categories},
		{"brand", brandOptionsLimit, &opts.Brands},
		{"color", optionsLimit, &opts.Colors},
		{"condition", optionsLimit, &opts.Conditions},
		{"size", optionsLimit, &opts.Sizes},
		{"source", optionsLimit, &opts.Sources},
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, tgt := range targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			values, err := r.store.DistinctValues(ctx, tgt.column, tgt.limit)
			if err != nil {
				mu.Lock()
				errs = append(errs, mapError("distinct "+tgt.column, err))
				mu.Unlock()
				return
			}
			if values == nil {
				values = []string{}
			}
			*tgt.dst = values
		}()
	}
	wg.Wait()

	if len(errs) > 0 {
		return domlisting.FilterOptions{}, errors.Join(errs...)
	}
	return opts, nil
}

// mapError translates driver errors into domain sentinels.
func mapError(op string, err error) error {
	switch {
	case errors.Is(err, db.ErrRowNotFound):
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	case errors.Is(err, db.ErrUnavailable):
		return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
