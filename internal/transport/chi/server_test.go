package chi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/findfit/internal/domain"
	domlisting "github.com/kailas-cloud/findfit/internal/domain/listing"
	"github.com/kailas-cloud/findfit/internal/domain/search/request"
	"github.com/kailas-cloud/findfit/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/findfit/internal/usecase/health"
)

type fakeSearcher struct {
	results []result.Result
	err     error
	calls   int
	lastReq *request.Request

	listing domlisting.Listing
	getErr  error
	options domlisting.FilterOptions
	optErr  error
}

func (f *fakeSearcher) Search(_ context.Context, req *request.Request) ([]result.Result, error) {
	f.calls++
	f.lastReq = req
	return f.results, f.err
}

func (f *fakeSearcher) Get(_ context.Context, id int64) (domlisting.Listing, error) {
	if f.getErr != nil {
		return domlisting.Listing{}, f.getErr
	}
	l := f.listing
	l.ID = id
	return l, nil
}

func (f *fakeSearcher) FilterOptions(context.Context) (domlisting.FilterOptions, error) {
	return f.options, f.optErr
}

type fakeHealth struct{ report healthuc.Report }

func (f *fakeHealth) Check(context.Context) healthuc.Report { return f.report }

func newTestRouter(s Searcher, h HealthReporter) http.Handler {
	srv := NewServer(s, h, Config{DefaultTopK: 20, MaxTopK: 50, MaxBodyBytes: 1 << 10}, zap.NewNop())
	return NewRouter(srv, nil)
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp
}

func sampleResults() []result.Result {
	a := domlisting.Listing{
		ID: 7, Source: domlisting.SourceDepop, ExternalID: "tee-1", Title: "Band tee",
		Price: 25, Currency: "GBP", URL: "https://www.depop.com/products/tee-1/",
		Brand: "Nike", Category: "t-shirt", Color: "black", Condition: "used", Size: "M",
	}
	b := domlisting.Listing{
		ID: 9, Source: domlisting.SourceGrailed, ExternalID: "42", Title: "Denim",
		Price: 80, Currency: "USD", Brand: "Levi's", Category: "jeans",
	}
	return []result.Result{
		result.New(a, 0.1).WithRank(1, 1),
		result.New(b, 0.4).WithRank(2, 0),
	}
}

func TestSearch_Success(t *testing.T) {
	s := &fakeSearcher{results: sampleResults()}
	h := newTestRouter(s, &fakeHealth{})

	rr := doJSON(t, h, http.MethodPost, "/api/v1/search", `{"query":"black band tee"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}

	var resp searchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 2 || len(resp.Items) != 2 {
		t.Fatalf("total = %d, items = %d", resp.Total, len(resp.Items))
	}
	first := resp.Items[0]
	if first.ID != 7 || first.Rank != 1 || first.Distance != 0.1 || first.Similarity != 1 {
		t.Errorf("unexpected first item: %+v", first)
	}
	if first.RedirectURL != "depop://product/tee-1" {
		t.Errorf("redirect_url = %q", first.RedirectURL)
	}
	if resp.Items[1].RedirectURL != "https://www.grailed.com/listings/42" {
		t.Errorf("redirect_url = %q", resp.Items[1].RedirectURL)
	}
	if s.lastReq.TopK() != 20 {
		t.Errorf("top_k = %d, want default 20", s.lastReq.TopK())
	}
}

func TestSearch_AliasRoute(t *testing.T) {
	s := &fakeSearcher{}
	rr := doJSON(t, newTestRouter(s, &fakeHealth{}), http.MethodPost, "/search", `{"query":"tee"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var resp searchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Items == nil || len(resp.Items) != 0 {
		t.Errorf("expected empty items array, got %v", resp.Items)
	}
}

func TestSearch_ImageDecoded(t *testing.T) {
	img := []byte{0xff, 0xd8, 0xff, 0xe0}
	encoded := base64.StdEncoding.EncodeToString(img)

	for name, field := range map[string]string{
		"plain":    encoded,
		"data_uri": "data:image/jpeg;base64," + encoded,
	} {
		t.Run(name, func(t *testing.T) {
			s := &fakeSearcher{}
			body := fmt.Sprintf(`{"image_base64":%q,"query":"red","top_k":5}`, field)
			rr := doJSON(t, newTestRouter(s, &fakeHealth{}), http.MethodPost, "/api/v1/search", body)
			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
			}
			in := s.lastReq.Input()
			if !bytes.Equal(in.Image, img) || in.Text != "red" {
				t.Errorf("unexpected input: %+v", in)
			}
			if s.lastReq.TopK() != 5 {
				t.Errorf("top_k = %d", s.lastReq.TopK())
			}
		})
	}
}

func TestSearch_TopKClampedToConfiguredMax(t *testing.T) {
	s := &fakeSearcher{}
	rr := doJSON(t, newTestRouter(s, &fakeHealth{}), http.MethodPost, "/api/v1/search", `{"query":"tee","top_k":1000}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if s.lastReq.TopK() != 50 {
		t.Errorf("top_k = %d, want 50", s.lastReq.TopK())
	}
}

func TestSearch_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"blank query", `{"query":"   "}`},
		{"bad base64", `{"image_base64":"***not base64***"}`},
		{"malformed json", `{"query":`},
		{"price range inverted", `{"query":"tee","filters":{"min_price":50,"max_price":10}}`},
		{"negative price", `{"query":"tee","filters":{"min_price":-1}}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := &fakeSearcher{}
			rr := doJSON(t, newTestRouter(s, &fakeHealth{}), http.MethodPost, "/api/v1/search", tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rr.Code)
			}
			if got := decodeError(t, rr).Code; got != codeInvalidInput {
				t.Errorf("code = %s", got)
			}
			if s.calls != 0 {
				t.Error("search must not run on invalid input")
			}
		})
	}
}

func TestSearch_BodyTooLarge(t *testing.T) {
	s := &fakeSearcher{}
	body := `{"query":"` + strings.Repeat("a", 2048) + `"}`
	rr := doJSON(t, newTestRouter(s, &fakeHealth{}), http.MethodPost, "/api/v1/search", body)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rr.Code)
	}
}

func TestSearch_ErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   errorCode
	}{
		{fmt.Errorf("embed: %w", domain.ErrInvalidInput), http.StatusBadRequest, codeInvalidInput},
		{fmt.Errorf("after 5 attempts: %w", domain.ErrEmbeddingUnavailable), http.StatusServiceUnavailable, codeEmbeddingUnavailable},
		{fmt.Errorf("knn: %w: dial tcp", domain.ErrStoreUnavailable), http.StatusServiceUnavailable, codeStoreUnavailable},
		{fmt.Errorf("clip: %w", domain.ErrEmbeddingProviderError), http.StatusBadGateway, codeEmbeddingProviderError},
		{fmt.Errorf("got 512: %w", domain.ErrVectorDimMismatch), http.StatusInternalServerError, codeVectorDimMismatch},
		{errors.New("pq: secret internals"), http.StatusInternalServerError, codeInternal},
	}
	for _, tc := range tests {
		t.Run(string(tc.code), func(t *testing.T) {
			s := &fakeSearcher{err: tc.err}
			rr := doJSON(t, newTestRouter(s, &fakeHealth{}), http.MethodPost, "/api/v1/search", `{"query":"tee"}`)
			if rr.Code != tc.status {
				t.Fatalf("status = %d, want %d", rr.Code, tc.status)
			}
			resp := decodeError(t, rr)
			if resp.Code != tc.code {
				t.Errorf("code = %s, want %s", resp.Code, tc.code)
			}
			if strings.Contains(resp.Message, "secret") || strings.Contains(resp.Message, "dial") {
				t.Errorf("message leaks internals: %q", resp.Message)
			}
		})
	}
}

func TestGetListing(t *testing.T) {
	s := &fakeSearcher{listing: domlisting.Listing{
		Source: domlisting.SourceVinted, ExternalID: "555", Title: "Coat", URL: "https://www.vinted.com/items/555-coat",
	}}
	h := newTestRouter(s, &fakeHealth{})

	rr := doJSON(t, h, http.MethodGet, "/api/v1/listings/12", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp listingResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID != 12 || resp.RedirectURL != "https://www.vinted.com/items/555" {
		t.Errorf("unexpected listing: %+v", resp)
	}
}

func TestGetListing_BadID(t *testing.T) {
	for _, id := range []string{"abc", "0", "-4"} {
		rr := doJSON(t, newTestRouter(&fakeSearcher{}, &fakeHealth{}), http.MethodGet, "/api/v1/listings/"+id, "")
		if rr.Code != http.StatusBadRequest {
			t.Errorf("id %q: status = %d, want 400", id, rr.Code)
		}
	}
}

func TestGetListing_NotFound(t *testing.T) {
	s := &fakeSearcher{getErr: fmt.Errorf("get listing 3: %w", domain.ErrNotFound)}
	rr := doJSON(t, newTestRouter(s, &fakeHealth{}), http.MethodGet, "/api/v1/listings/3", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
	if got := decodeError(t, rr).Code; got != codeNotFound {
		t.Errorf("code = %s", got)
	}
}

func TestFilterOptions(t *testing.T) {
	s := &fakeSearcher{options: domlisting.FilterOptions{
		Categories: []string{"jeans", "t-shirt"},
		Brands:     []string{"Nike"},
		Colors:     []string{},
		Conditions: []string{"used"},
		Sizes:      []string{"M"},
		Sources:    []string{"depop"},
	}}
	rr := doJSON(t, newTestRouter(s, &fakeHealth{}), http.MethodGet, "/api/v1/filters", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp filterOptionsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Categories) != 2 || resp.Brands[0] != "Nike" || resp.Colors == nil {
		t.Errorf("unexpected options: %+v", resp)
	}
}

func TestFilterOptions_StoreUnavailable(t *testing.T) {
	s := &fakeSearcher{optErr: fmt.Errorf("distinct brand: %w", domain.ErrStoreUnavailable)}
	rr := doJSON(t, newTestRouter(s, &fakeHealth{}), http.MethodGet, "/api/v1/filters", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name   string
		report healthuc.Report
		status int
	}{
		{
			name: "healthy",
			report: healthuc.Report{
				Status:   healthuc.Healthy,
				Checks:   map[string]healthuc.CheckResult{"database": healthuc.CheckOK, "embedding": healthuc.CheckOK},
				Listings: &domlisting.Stats{Total: 10, Embedded: 8},
			},
			status: http.StatusOK,
		},
		{
			name: "degraded",
			report: healthuc.Report{
				Status: healthuc.Degraded,
				Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckError, "embedding": healthuc.CheckOK},
			},
			status: http.StatusServiceUnavailable,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := doJSON(t, newTestRouter(&fakeSearcher{}, &fakeHealth{report: tc.report}), http.MethodGet, "/health", "")
			if rr.Code != tc.status {
				t.Fatalf("status = %d, want %d", rr.Code, tc.status)
			}
			var resp healthResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != string(tc.report.Status) || resp.Checks["database"] != string(tc.report.Checks["database"]) {
				t.Errorf("unexpected body: %+v", resp)
			}
			if (resp.Listings != nil) != (tc.report.Listings != nil) {
				t.Errorf("listings presence mismatch: %+v", resp.Listings)
			}
		})
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	rr := doJSON(t, newTestRouter(&fakeSearcher{}, &fakeHealth{}), http.MethodGet, "/nope", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
	if got := decodeError(t, rr).Code; got != codeNotFound {
		t.Errorf("code = %s", got)
	}
}

func TestRouter_AuthRequiredWhenKeysSet(t *testing.T) {
	srv := NewServer(&fakeSearcher{}, &fakeHealth{report: healthuc.Report{Status: healthuc.Healthy}}, Config{}, zap.NewNop())
	h := NewRouter(srv, []string{"k1"})

	rr := doJSON(t, h, http.MethodPost, "/api/v1/search", `{"query":"tee"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
	if rr := doJSON(t, h, http.MethodGet, "/health", ""); rr.Code != http.StatusOK {
		t.Errorf("health must stay open, got %d", rr.Code)
	}
}

func TestJSONRecoverer(t *testing.T) {
	h := JSONRecoverer(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	if got := decodeError(t, rr).Code; got != codeInternal {
		t.Errorf("code = %s", got)
	}
}
