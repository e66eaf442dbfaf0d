package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/findfit/internal/domain"
	"github.com/kailas-cloud/findfit/internal/logger"
	"github.com/kailas-cloud/findfit/internal/metrics"
)

// InstrumentedEmbedder is the outermost decorator: it logs every embedding with
// its input mode and counts failures by domain error type.
// Transport metrics (requests, duration) are recorded by the providers.
type InstrumentedEmbedder struct {
	inner    domain.Embedder
	provider string
	model    string
	logger   *zap.Logger
}

// NewInstrumentedEmbedder wraps an embedder with observability.
func NewInstrumentedEmbedder(inner domain.Embedder, provider, model string, log *zap.Logger) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{
		inner:    inner,
		provider: provider,
		model:    model,
		logger:   log,
	}
}

// Embed delegates to the inner embedder and records the outcome.
func (p *InstrumentedEmbedder) Embed(ctx context.Context, in domain.EmbeddingInput) (domain.EmbeddingResult, error) {
	log := logger.FromContext(ctx, p.logger)
	start := time.Now()

	result, err := p.inner.Embed(ctx, in)

	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingErrorsTotal.WithLabelValues(p.provider, p.model, errorType(err)).Inc()
		log.Error("Embedding request failed",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.String("mode", Mode(in)),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	log.Debug("Embedding request completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.String("mode", Mode(in)),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Embedding)),
	)

	return result, nil
}

// HealthCheck delegates to the inner embedder when it supports health checks.
func (p *InstrumentedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := p.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // pass-through
	}
	return nil
}

// Mode names the input combination: image, text, or multimodal.
func Mode(in domain.EmbeddingInput) string {
	switch {
	case in.HasImage() && in.HasText():
		return "multimodal"
	case in.HasImage():
		return "image"
	default:
		return "text"
	}
}

func errorType(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrEmbeddingUnavailable):
		return "unavailable"
	case errors.Is(err, domain.ErrEmbeddingProviderError):
		return "provider_error"
	default:
		return "other"
	}
}
