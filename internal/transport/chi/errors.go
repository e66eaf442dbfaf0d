package chi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/findfit/internal/domain"
	"github.com/kailas-cloud/findfit/internal/logger"
)

type errorCode string

// Stable error codes returned to clients.
const (
	codeInvalidInput           errorCode = "invalid_input"
	codeEmbeddingUnavailable   errorCode = "embedding_unavailable"
	codeEmbeddingProviderError errorCode = "embedding_provider_error"
	codeStoreUnavailable       errorCode = "store_unavailable"
	codeNotFound               errorCode = "not_found"
	codeVectorDimMismatch      errorCode = "vector_dim_mismatch"
	codeBodyTooLarge           errorCode = "body_too_large"
	codeUnauthorized           errorCode = "unauthorized"
	codeInternal               errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, codeInvalidInput),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrEmbeddingUnavailable, http.StatusServiceUnavailable, codeEmbeddingUnavailable),
		sentinelHandler(domain.ErrStoreUnavailable, http.StatusServiceUnavailable, codeStoreUnavailable),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProviderError),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusInternalServerError, codeVectorDimMismatch),
	}
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// The sentinel's own text is the message, so internals never leak.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context(), s.logger)
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}
