// Package openai is the hosted embedding provider over an OpenAI-compatible API.
package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/findfit/internal/domain"
	"github.com/kailas-cloud/findfit/internal/metrics"
	"github.com/kailas-cloud/findfit/internal/retry"
)

// ProviderName labels metrics and the stored embedding model.
const ProviderName = "openai"

// Embedder is the hosted provider. Image and text travel in one multimodal input object.
type Embedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	user       string
	provider   string
	logger     *zap.Logger
}

// Config holds the embedding provider settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int // requested output width; 0 keeps the model default
	User       string
	Provider   string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// multimodalInput is one element of the embeddings request input array.
type multimodalInput struct {
	Image string `json:"image,omitempty"`
	Text  string `json:"text,omitempty"`
}

// NewEmbedder creates a hosted embedding provider.
func NewEmbedder(cfg *Config) *Embedder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}
	provider := cfg.Provider
	if provider == "" {
		provider = ProviderName
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Embedder{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
		user:       cfg.User,
		provider:   provider,
		logger:     logger,
	}
}

// Model returns "<provider>/<model>", the value stored next to each vector.
func (e *Embedder) Model() string {
	return e.provider + "/" + string(e.model)
}

// Embed implements domain.Embedder. The vector is returned as the provider produced it.
func (e *Embedder) Embed(ctx context.Context, in domain.EmbeddingInput) (domain.EmbeddingResult, error) {
	if in.IsEmpty() {
		return domain.EmbeddingResult{}, fmt.Errorf("image or text required: %w", domain.ErrInvalidInput)
	}

	item := multimodalInput{Text: strings.TrimSpace(in.Text)}
	if in.HasImage() {
		item.Image = base64.StdEncoding.EncodeToString(in.Image)
	}
	req := openai.EmbeddingRequest{
		Input:          []multimodalInput{item},
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		User:           e.user,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	start := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, req)
	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, string(e.model), "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, string(e.model), "api_error").Inc()
		return domain.EmbeddingResult{}, parseAPIError(err)
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, string(e.model), "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, string(e.model), "empty_response").Inc()
		return domain.EmbeddingResult{}, fmt.Errorf("empty embedding response: %w", domain.ErrEmbeddingProviderError)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, string(e.model), "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(e.provider, string(e.model)).Observe(duration.Seconds())

	return domain.EmbeddingResult{
		Embedding: resp.Data[0].Embedding,
		Model:     e.Model(),
	}, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// parseAPIError extracts a human-readable error from the API response.
// All errors wrap domain.ErrEmbeddingProviderError. Client errors other than
// timeouts and rate limits are marked permanent so they are not retried.
func parseAPIError(err error) error {
	wrap := domain.ErrEmbeddingProviderError

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return classifyStatus(reqErr.HTTPStatusCode,
			fmt.Errorf("embedding API error %d: %s: %w", reqErr.HTTPStatusCode, detail, wrap))
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.HTTPStatusCode,
			fmt.Errorf("embedding API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, wrap))
	}

	return fmt.Errorf("embedding request failed: %w: %w", wrap, err)
}

func classifyStatus(status int, err error) error {
	switch {
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests:
		return err
	case status >= 400 && status < 500:
		return retry.Permanent(err)
	default:
		return err
	}
}

// extractDetail extracts the "detail" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
