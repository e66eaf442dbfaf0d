package search

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/kailas-cloud/findfit/internal/domain"
	domlisting "github.com/kailas-cloud/findfit/internal/domain/listing"
	"github.com/kailas-cloud/findfit/internal/domain/search/filter"
	"github.com/kailas-cloud/findfit/internal/domain/search/request"
	"github.com/kailas-cloud/findfit/internal/domain/search/result"
	"github.com/kailas-cloud/findfit/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterSearchMetrics()
	os.Exit(m.Run())
}

// --- Mocks ---

const testDims = 3

type mockRepo struct {
	results  []result.Result
	err      error
	called   bool
	lastTopK int
	lastVec  []float32
}

func (m *mockRepo) SearchKNN(
	_ context.Context, vector []float32, _ filter.Filters, topK int,
) ([]result.Result, error) {
	m.called = true
	m.lastTopK = topK
	m.lastVec = vector
	return m.results, m.err
}

type mockListings struct {
	listing domlisting.Listing
	opts    domlisting.FilterOptions
	err     error
}

func (m *mockListings) Get(_ context.Context, _ int64) (domlisting.Listing, error) {
	return m.listing, m.err
}

func (m *mockListings) FilterOptions(_ context.Context) (domlisting.FilterOptions, error) {
	return m.opts, m.err
}

type mockEmbedder struct {
	vec    []float32
	err    error
	called bool
	lastIn domain.EmbeddingInput
}

func (m *mockEmbedder) Embed(_ context.Context, in domain.EmbeddingInput) (domain.EmbeddingResult, error) {
	m.called = true
	m.lastIn = in
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec, Model: "clip/test"}, nil
}

func hit(id int64, distance float64) result.Result {
	return result.New(domlisting.Listing{ID: id, Source: domlisting.SourceDepop, Category: "tops"}, distance)
}

func newService(repo *mockRepo, emb *mockEmbedder) *Service {
	return New(NewEngine(repo, testDims), &mockListings{}, emb)
}

func mustRequest(t *testing.T, image []byte, text string, topK int) *request.Request {
	t.Helper()
	req, err := request.New(image, text, filter.Filters{}, topK)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return &req
}

// --- Engine ---

func TestEngine_OrdersByDistanceThenID(t *testing.T) {
	repo := &mockRepo{results: []result.Result{hit(9, 0.3), hit(4, 0.1), hit(2, 0.3), hit(7, 0.1)}}
	e := NewEngine(repo, testDims)

	got, err := e.Search(context.Background(), []float32{1, 0, 0}, 10, filter.Filters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantIDs := []int64{4, 7, 2, 9}
	if len(got) != len(wantIDs) {
		t.Fatalf("expected %d results, got %d", len(wantIDs), len(got))
	}
	for i, id := range wantIDs {
		if got[i].ID() != id {
			t.Errorf("result[%d].ID() = %d, want %d", i, got[i].ID(), id)
		}
		if got[i].Rank() != i+1 {
			t.Errorf("result[%d].Rank() = %d, want %d", i, got[i].Rank(), i+1)
		}
	}
}

func TestEngine_Similarity(t *testing.T) {
	repo := &mockRepo{results: []result.Result{hit(1, 0), hit(2, 0.2), hit(3, 0.4)}}
	got, err := NewEngine(repo, testDims).Search(context.Background(), []float32{1, 0, 0}, 10, filter.Filters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []float64{1, 0.5, 0}
	for i, w := range want {
		if diff := got[i].Similarity() - w; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("result[%d].Similarity() = %f, want %f", i, got[i].Similarity(), w)
		}
	}
}

func TestEngine_SimilarityAllZeroDistance(t *testing.T) {
	repo := &mockRepo{results: []result.Result{hit(1, 0), hit(2, 0)}}
	got, err := NewEngine(repo, testDims).Search(context.Background(), []float32{1, 0, 0}, 10, filter.Filters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, r := range got {
		if r.Similarity() != 1 {
			t.Errorf("identical hits must have similarity 1, got %f", r.Similarity())
		}
	}
}

func TestEngine_ClampsTopK(t *testing.T) {
	tests := []struct {
		name string
		topK int
		want int
	}{
		{"default", 0, request.DefaultTopK},
		{"negative", -5, request.DefaultTopK},
		{"within range", 7, 7},
		{"above max", 500, request.MaxTopK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := &mockRepo{}
			if _, err := NewEngine(repo, testDims).Search(context.Background(), []float32{1, 0, 0}, tc.topK, filter.Filters{}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if repo.lastTopK != tc.want {
				t.Errorf("topK = %d, want %d", repo.lastTopK, tc.want)
			}
		})
	}
}

func TestEngine_TruncatesToTopK(t *testing.T) {
	repo := &mockRepo{results: []result.Result{hit(1, 0.1), hit(2, 0.2), hit(3, 0.3)}}
	got, err := NewEngine(repo, testDims).Search(context.Background(), []float32{1, 0, 0}, 2, filter.Filters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
}

func TestEngine_DropsFilterViolators(t *testing.T) {
	f, err := filter.New(filter.Params{Category: "tops"})
	if err != nil {
		t.Fatal(err)
	}
	outside := result.New(domlisting.Listing{ID: 5, Category: "shoes"}, 0.05)
	repo := &mockRepo{results: []result.Result{outside, hit(1, 0.1)}}

	got, err := NewEngine(repo, testDims).Search(context.Background(), []float32{1, 0, 0}, 10, f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID() != 1 {
		t.Fatalf("expected only listing 1, got %d results", len(got))
	}
	if got[0].Rank() != 1 {
		t.Errorf("rank = %d, want 1", got[0].Rank())
	}
}

func TestEngine_DimensionMismatch(t *testing.T) {
	repo := &mockRepo{}
	_, err := NewEngine(repo, testDims).Search(context.Background(), []float32{1, 0}, 10, filter.Filters{})
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
	if repo.called {
		t.Error("store must not be queried with a wrong-width vector")
	}
}

func TestEngine_StoreUnavailable(t *testing.T) {
	repo := &mockRepo{err: domain.ErrStoreUnavailable, results: []result.Result{hit(1, 0.1)}}
	got, err := NewEngine(repo, testDims).Search(context.Background(), []float32{1, 0, 0}, 10, filter.Filters{})
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if got != nil {
		t.Error("no partial results on failure")
	}
}

func TestEngine_EmptyStore(t *testing.T) {
	got, err := NewEngine(&mockRepo{}, testDims).Search(context.Background(), []float32{1, 0, 0}, 10, filter.Filters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty result, got %d", len(got))
	}
}

// --- Service ---

func TestService_SearchMultimodalEmbedsOnce(t *testing.T) {
	repo := &mockRepo{results: []result.Result{hit(1, 0.1)}}
	emb := &mockEmbedder{vec: []float32{0, 1, 0}}
	svc := newService(repo, emb)

	got, err := svc.Search(context.Background(), mustRequest(t, []byte{1, 2, 3}, "red hoodie", 5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 result, got %d", len(got))
	}
	if !emb.lastIn.HasImage() || emb.lastIn.Text != "red hoodie" {
		t.Errorf("embedder got %+v", emb.lastIn)
	}
	if repo.lastVec[1] != 1 {
		t.Errorf("store got vector %v", repo.lastVec)
	}
}

func TestService_SearchEmptyInput(t *testing.T) {
	repo := &mockRepo{}
	emb := &mockEmbedder{vec: []float32{1, 0, 0}}

	_, err := newService(repo, emb).Search(context.Background(), &request.Request{})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if emb.called || repo.called {
		t.Error("no work may happen for an empty request")
	}
}

func TestService_SearchEmbeddingUnavailable(t *testing.T) {
	repo := &mockRepo{}
	emb := &mockEmbedder{err: domain.ErrEmbeddingUnavailable}

	_, err := newService(repo, emb).Search(context.Background(), mustRequest(t, nil, "jeans", 0))
	if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
	}
	if repo.called {
		t.Error("store must not be queried when embedding fails")
	}
}

func TestService_Get(t *testing.T) {
	svc := New(NewEngine(&mockRepo{}, testDims), &mockListings{listing: domlisting.Listing{ID: 3, Title: "Carhartt jacket"}}, &mockEmbedder{})

	l, err := svc.Get(context.Background(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Title != "Carhartt jacket" {
		t.Errorf("Title = %q", l.Title)
	}
}

func TestService_GetNotFound(t *testing.T) {
	svc := New(NewEngine(&mockRepo{}, testDims), &mockListings{err: domain.ErrNotFound}, &mockEmbedder{})

	if _, err := svc.Get(context.Background(), 3); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_FilterOptions(t *testing.T) {
	opts := domlisting.FilterOptions{Categories: []string{"tops"}, Brands: []string{"Nike"}}
	svc := New(NewEngine(&mockRepo{}, testDims), &mockListings{opts: opts}, &mockEmbedder{})

	got, err := svc.FilterOptions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Categories) != 1 || got.Brands[0] != "Nike" {
		t.Errorf("unexpected options: %+v", got)
	}
}
