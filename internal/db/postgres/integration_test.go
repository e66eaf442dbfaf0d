package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/kailas-cloud/findfit/internal/db"
	"github.com/kailas-cloud/findfit/internal/domain/search/filter"
)

// openTestStore connects to FINDFIT_TEST_DATABASE_URL with a fresh table.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("FINDFIT_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("FINDFIT_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	table := fmt.Sprintf("listings_test_%d", time.Now().UnixNano())

	s, err := NewStore(ctx, Config{URL: url, Table: table})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.WaitForReady(ctx, 5*time.Second); err != nil {
		t.Fatalf("wait: %v", err)
	}
	def := db.NewIndex(table).Dimensions(3).Distance(db.DistanceL2).MustBuild()
	if err := s.Migrate(ctx, def); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		_, _ = s.pool.Exec(context.Background(), "DROP TABLE IF EXISTS "+table)
		s.Close()
	})
	return s
}

func testRow(ext, brand string, price float64) *db.ListingRow {
	return &db.ListingRow{
		Source: "depop", ExternalID: ext, Title: "tee " + ext, Price: price, Currency: "USD",
		URL: "https://depop.com/products/" + ext, ImageURL: "https://img/" + ext + ".jpg",
		Brand: brand, Category: "t-shirt", Color: "black", Condition: "Good", Size: "M",
	}
}

func TestIntegration_UpsertPreservesVector(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	res, err := s.UpsertListing(ctx, testRow("a1", "Nike", 10))
	if err != nil || !res.Created {
		t.Fatalf("first upsert: %+v %v", res, err)
	}
	if err := s.AttachVector(ctx, res.ID, []float32{1, 0, 0}, "clip"); err != nil {
		t.Fatalf("attach: %v", err)
	}

	again, err := s.UpsertListing(ctx, testRow("a1", "Nike", 12))
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if again.Created || again.ID != res.ID {
		t.Fatalf("expected update of id %d, got %+v", res.ID, again)
	}

	row, err := s.GetListing(ctx, res.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if row.Price != 12 {
		t.Errorf("price = %v, want 12", row.Price)
	}
	if len(row.Embedding) != 3 || row.EmbeddingModel != "clip" || row.EmbeddedAt == nil {
		t.Errorf("vector not preserved: %+v", row)
	}
}

func TestIntegration_FetchUnembeddedAndSearch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	vecs := map[string][]float32{"a": {1, 0, 0}, "b": {0, 1, 0}, "c": {1, 1, 0}}
	brands := map[string]string{"a": "Nike", "b": "Adidas", "c": "Nike"}
	for _, ext := range []string{"a", "b", "c", "d"} {
		if _, err := s.UpsertListing(ctx, testRow(ext, brands[ext], 20)); err != nil {
			t.Fatalf("upsert %s: %v", ext, err)
		}
	}

	pending, err := s.FetchUnembedded(ctx, db.Cursor{}, 10)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(pending) != 4 {
		t.Fatalf("pending = %d, want 4", len(pending))
	}

	first, err := s.FetchUnembedded(ctx, db.Cursor{}, 2)
	if err != nil || len(first) != 2 {
		t.Fatalf("first page = %d, %v", len(first), err)
	}
	last := first[1]
	rest, err := s.FetchUnembedded(ctx, db.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, 10)
	if err != nil {
		t.Fatalf("next page: %v", err)
	}
	if len(rest) != 2 || rest[0].ID != pending[2].ID || rest[1].ID != pending[3].ID {
		t.Fatalf("next page = %+v, want the two oldest rows", rest)
	}
	for _, r := range pending {
		if v, ok := vecs[r.ExternalID]; ok {
			if err := s.AttachVector(ctx, r.ID, v, "clip"); err != nil {
				t.Fatalf("attach: %v", err)
			}
		}
	}

	stats, err := s.CountListings(ctx)
	if err != nil || stats.Total != 4 || stats.Embedded != 3 {
		t.Fatalf("stats = %+v, %v", stats, err)
	}

	f, _ := filter.New(filter.Params{Brand: "nike"})
	res, err := s.SearchKNN(ctx, &db.KNNQuery{
		Vector: []float32{1, 0, 0}, K: 5, Filters: f, Distance: db.DistanceL2, EFSearch: 40,
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(res.Entries))
	}
	if res.Entries[0].Row.ExternalID != "a" || res.Entries[0].Distance != 0 {
		t.Errorf("first hit = %+v", res.Entries[0])
	}

	brandsOut, err := s.DistinctValues(ctx, "brand", 10)
	if err != nil || len(brandsOut) != 2 {
		t.Errorf("distinct brands = %v, %v", brandsOut, err)
	}

	cleared, err := s.ClearVectors(ctx, "")
	if err != nil || cleared != 3 {
		t.Errorf("cleared = %d, %v", cleared, err)
	}
}

func TestIntegration_AttachVectorMissingRow(t *testing.T) {
	s := openTestStore(t)
	err := s.AttachVector(context.Background(), 999999, []float32{1, 2, 3}, "clip")
	if !errors.Is(err, db.ErrRowNotFound) {
		t.Fatalf("expected ErrRowNotFound, got %v", err)
	}
}

func TestIntegration_GetMissing(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetListing(context.Background(), 999999)
	if !errors.Is(err, db.ErrRowNotFound) {
		t.Fatalf("expected ErrRowNotFound, got %v", err)
	}
}
