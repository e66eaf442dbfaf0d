// Package chi is the HTTP API over the go-chi router.
package chi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	domlisting "github.com/kailas-cloud/findfit/internal/domain/listing"
	"github.com/kailas-cloud/findfit/internal/domain/search/request"
	"github.com/kailas-cloud/findfit/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/findfit/internal/usecase/health"
	"github.com/kailas-cloud/findfit/internal/version"
)

// Searcher is the consumer interface for the search use case (ISP).
type Searcher interface {
	Search(ctx context.Context, req *request.Request) ([]result.Result, error)
	Get(ctx context.Context, id int64) (domlisting.Listing, error)
	FilterOptions(ctx context.Context) (domlisting.FilterOptions, error)
}

// HealthReporter is the consumer interface for the health use case (ISP).
type HealthReporter interface {
	Check(ctx context.Context) healthuc.Report
}

// Config holds request limits.
type Config struct {
	DefaultTopK  int
	MaxTopK      int
	MaxBodyBytes int64
}

// Server serves the search API.
type Server struct {
	search        Searcher
	health        HealthReporter
	cfg           Config
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search Searcher, health HealthReporter, cfg Config, logger *zap.Logger) *Server {
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = request.DefaultTopK
	}
	if cfg.MaxTopK <= 0 || cfg.MaxTopK > request.MaxTopK {
		cfg.MaxTopK = request.MaxTopK
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 15 << 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		search:        search,
		health:        health,
		cfg:           cfg,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// Routes registers the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Post("/api/v1/search", s.Search)
	r.Post("/search", s.Search)
	r.Get("/api/v1/listings/{id}", s.GetListing)
	r.Get("/api/v1/filters", s.FilterOptions)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Search handles POST /api/v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)

	var body searchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, codeBodyTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, codeInvalidInput, "invalid request body")
		return
	}

	if strings.TrimSpace(body.ImageBase64) == "" && strings.TrimSpace(body.Query) == "" {
		writeError(w, http.StatusBadRequest, codeInvalidInput, "image_base64 or query is required")
		return
	}

	image, err := decodeImage(body.ImageBase64)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidInput, "image_base64 is not valid base64")
		return
	}

	filters, err := body.Filters.toDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidInput, "invalid filters")
		return
	}

	req, err := request.New(image, body.Query, filters, s.topK(body.TopK))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	results, err := s.search.Search(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]searchItem, len(results))
	for i := range results {
		items[i] = searchItemFromResult(&results[i])
	}
	writeJSON(w, http.StatusOK, searchResponse{Items: items, Total: len(items), TopK: req.TopK()})
}

// GetListing handles GET /api/v1/listings/{id}.
func (s *Server) GetListing(w http.ResponseWriter, r *http.Request) {
	var id int64
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, codeInvalidInput, "listing id must be a positive integer")
		return
	}

	l, err := s.search.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listingFromDomain(&l))
}

// FilterOptions handles GET /api/v1/filters.
func (s *Server) FilterOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := s.search.FilterOptions(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, filterOptionsResponse(opts))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	resp := healthResponse{Status: string(report.Status), Version: version.String(), Checks: checks}
	if report.Listings != nil {
		resp.Listings = &listingStats{Total: report.Listings.Total, Embedded: report.Listings.Embedded}
	}
	writeJSON(w, httpStatus, resp)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// topK applies the configured default and ceiling to the requested count.
func (s *Server) topK(requested *int) int {
	if requested == nil || *requested <= 0 {
		return s.cfg.DefaultTopK
	}
	if *requested > s.cfg.MaxTopK {
		return s.cfg.MaxTopK
	}
	return *requested
}

// decodeImage accepts plain base64 or a data URI. Empty input yields no image.
func decodeImage(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, nil
	}
	if strings.HasPrefix(encoded, "data:") {
		if i := strings.Index(encoded, ","); i >= 0 {
			encoded = encoded[i+1:]
		}
	}
	img, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err //nolint:wrapcheck // mapped to invalid_input by the caller
	}
	return img, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
