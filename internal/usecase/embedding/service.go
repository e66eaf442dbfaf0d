// Package embedding turns an image, a text, or both into a normalized vector of fixed width.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/findfit/internal/domain"
	"github.com/kailas-cloud/findfit/internal/metrics"
	"github.com/kailas-cloud/findfit/internal/retry"
)

// DefaultAttemptTimeout bounds one provider call.
const DefaultAttemptTimeout = 30 * time.Second

// Config tunes the adapter.
type Config struct {
	Provider       string // metrics label
	Dimensions     int
	Retry          retry.Policy
	AttemptTimeout time.Duration
}

// Service validates input, calls the provider with retries, and fits the result
// to the configured width with unit L2 norm. Safe for concurrent use.
type Service struct {
	provider domain.Embedder
	cfg      Config
	logger   *zap.Logger
}

// New creates the adapter over a provider handle.
func New(provider domain.Embedder, cfg Config, logger *zap.Logger) *Service {
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = domain.DefaultDimensions
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = DefaultAttemptTimeout
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = retry.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{provider: provider, cfg: cfg, logger: logger}
}

// Dimensions returns the output width.
func (s *Service) Dimensions() int { return s.cfg.Dimensions }

// Embed implements domain.Embedder.
func (s *Service) Embed(ctx context.Context, in domain.EmbeddingInput) (domain.EmbeddingResult, error) {
	if in.IsEmpty() {
		return domain.EmbeddingResult{}, fmt.Errorf("image or text required: %w", domain.ErrInvalidInput)
	}
	if in.HasImage() {
		info, err := ValidateImage(in.Image)
		if err != nil {
			return domain.EmbeddingResult{}, err
		}
		metrics.EmbeddingImagesTotal.WithLabelValues(info.Format).Inc()
	}

	var res domain.EmbeddingResult
	err := retry.Do(ctx, s.cfg.Retry, func(ctx context.Context, attempt int) error {
		attemptCtx, cancel := context.WithTimeout(ctx, s.cfg.AttemptTimeout)
		defer cancel()

		r, err := s.provider.Embed(attemptCtx, in)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidInput) {
				return retry.Permanent(err)
			}
			return err
		}
		res = r
		return nil
	}, func(attempt int, err error, wait time.Duration) {
		metrics.EmbeddingRetriesTotal.WithLabelValues(s.cfg.Provider).Inc()
		s.logger.Warn("Embedding attempt failed, retrying",
			zap.String("provider", s.cfg.Provider),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	})
	if err != nil {
		return domain.EmbeddingResult{}, classify(err)
	}

	vec := domain.FitDimensions(res.Embedding, s.cfg.Dimensions)
	if !domain.Normalize(vec) {
		return domain.EmbeddingResult{}, fmt.Errorf("provider returned a zero vector: %w", domain.ErrEmbeddingProviderError)
	}
	return domain.EmbeddingResult{Embedding: vec, Model: res.Model}, nil
}

// HealthCheck delegates to the provider when it supports health checks.
func (s *Service) HealthCheck(ctx context.Context) error {
	hc, ok := s.provider.(domain.HealthChecker)
	if !ok {
		return nil
	}
	if err := hc.HealthCheck(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	return nil
}

// classify maps a failed retry loop to a domain error. Input errors and
// non-retryable provider errors keep their identity; the rest is an outage.
func classify(err error) error {
	var exhausted *retry.ExhaustedError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return err
	case errors.As(err, &exhausted):
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	case errors.Is(err, domain.ErrEmbeddingProviderError):
		return err
	default:
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
}
