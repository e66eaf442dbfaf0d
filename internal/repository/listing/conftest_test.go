package listing

import (
	"context"
	"testing"

	"github.com/kailas-cloud/findfit/internal/db"
	domlisting "github.com/kailas-cloud/findfit/internal/domain/listing"
)

const testDim = 4

// mockStore implements the consumer interface for tests.
type mockStore struct {
	upsertFn   func(ctx context.Context, row *db.ListingRow) (db.UpsertResult, error)
	getFn      func(ctx context.Context, id int64) (*db.ListingRow, error)
	fetchFn    func(ctx context.Context, after db.Cursor, limit int) ([]db.ListingRow, error)
	attachFn   func(ctx context.Context, id int64, vector []float32, model string) error
	clearFn    func(ctx context.Context, keepModel string) (int64, error)
	distinctFn func(ctx context.Context, column string, limit int) ([]string, error)
	countFn    func(ctx context.Context) (db.ListingStats, error)
}

func (m *mockStore) UpsertListing(ctx context.Context, row *db.ListingRow) (db.UpsertResult, error) {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, row)
	}
	return db.UpsertResult{ID: 1, Created: true}, nil
}

func (m *mockStore) GetListing(ctx context.Context, id int64) (*db.ListingRow, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, db.ErrRowNotFound
}

func (m *mockStore) FetchUnembedded(ctx context.Context, after db.Cursor, limit int) ([]db.ListingRow, error) {
	if m.fetchFn != nil {
		return m.fetchFn(ctx, after, limit)
	}
	return nil, nil
}

func (m *mockStore) AttachVector(ctx context.Context, id int64, vector []float32, model string) error {
	if m.attachFn != nil {
		return m.attachFn(ctx, id, vector, model)
	}
	return nil
}

func (m *mockStore) ClearVectors(ctx context.Context, keepModel string) (int64, error) {
	if m.clearFn != nil {
		return m.clearFn(ctx, keepModel)
	}
	return 0, nil
}

func (m *mockStore) DistinctValues(ctx context.Context, column string, limit int) ([]string, error) {
	if m.distinctFn != nil {
		return m.distinctFn(ctx, column, limit)
	}
	return nil, nil
}

func (m *mockStore) CountListings(ctx context.Context) (db.ListingStats, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return db.ListingStats{}, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, testDim), ms
}

func testListing(t *testing.T) *domlisting.Listing {
	t.Helper()
	return &domlisting.Listing{
		Source:     domlisting.SourceDepop,
		ExternalID: "123",
		Title:      "Vintage Nike tee",
		Price:      25,
		URL:        "https://depop.com/products/vintage-nike-tee",
		ImageURL:   "https://media.depop.com/tee.jpg",
		Brand:      "Nike",
		Category:   "t-shirt",
		Color:      "black",
	}
}
