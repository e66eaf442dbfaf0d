// Package clip is the local CLIP inference provider. The server speaks the
// OpenAI-compatible /v1/embeddings protocol and accepts images as data URIs.
package clip

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/findfit/internal/domain"
	"github.com/kailas-cloud/findfit/internal/metrics"
	"github.com/kailas-cloud/findfit/internal/retry"
)

// ProviderName labels metrics and the stored embedding model.
const ProviderName = "clip"

const warmupText = "a photo of a t-shirt"

// Config holds the local server settings.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Embedder is a warmed handle to a local CLIP server. Safe for concurrent use.
type Embedder struct {
	client    *openai.Client
	model     openai.EmbeddingModel
	nativeDim atomic.Int64
	logger    *zap.Logger
}

// NewEmbedder creates the provider. Call Warm before serving traffic.
func NewEmbedder(cfg *Config) (*Embedder, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("clip base url is required")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Embedder{
		client: openai.NewClientWithConfig(clientCfg),
		model:  openai.EmbeddingModel(cfg.Model),
		logger: logger,
	}, nil
}

// Warm sends one request so the model is loaded and records its native width.
func (e *Embedder) Warm(ctx context.Context) error {
	vecs, err := e.create(ctx, []string{warmupText})
	if err != nil {
		return fmt.Errorf("warm clip model: %w", err)
	}
	e.nativeDim.Store(int64(len(vecs[0])))
	e.logger.Info("CLIP model warmed",
		zap.String("model", string(e.model)),
		zap.Int("native_dimensions", len(vecs[0])),
	)
	return nil
}

// NativeDimensions returns the width observed by Warm, or 0 before warming.
func (e *Embedder) NativeDimensions() int {
	return int(e.nativeDim.Load())
}

// Model returns "<provider>/<model>", the value stored next to each vector.
func (e *Embedder) Model() string {
	return ProviderName + "/" + string(e.model)
}

// Embed implements domain.Embedder. With both image and text the two embeddings
// are normalized, averaged and normalized again.
func (e *Embedder) Embed(ctx context.Context, in domain.EmbeddingInput) (domain.EmbeddingResult, error) {
	var inputs []string
	if in.HasImage() {
		inputs = append(inputs, dataURI(in.Image))
	}
	if in.HasText() {
		inputs = append(inputs, strings.TrimSpace(in.Text))
	}
	if len(inputs) == 0 {
		return domain.EmbeddingResult{}, fmt.Errorf("image or text required: %w", domain.ErrInvalidInput)
	}

	start := time.Now()
	vecs, err := e.create(ctx, inputs)
	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(ProviderName, string(e.model), "error").Inc()
		return domain.EmbeddingResult{}, err
	}
	metrics.EmbeddingRequestsTotal.WithLabelValues(ProviderName, string(e.model), "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(ProviderName, string(e.model)).Observe(time.Since(start).Seconds())

	vec := vecs[0]
	if len(vecs) > 1 {
		for _, v := range vecs {
			domain.Normalize(v)
		}
		vec = domain.Average(vecs...)
		domain.Normalize(vec)
	}
	return domain.EmbeddingResult{Embedding: vec, Model: e.Model()}, nil
}

// HealthCheck embeds a short warmup text.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.create(ctx, []string{warmupText}); err != nil {
		return fmt.Errorf("clip health check: %w", err)
	}
	return nil
}

// create returns one vector per input, in input order.
func (e *Embedder) create(ctx context.Context, inputs []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input:          inputs,
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	})
	if err != nil {
		metrics.EmbeddingErrorsTotal.WithLabelValues(ProviderName, string(e.model), "api_error").Inc()
		return nil, parseAPIError(err)
	}
	if len(resp.Data) != len(inputs) {
		metrics.EmbeddingErrorsTotal.WithLabelValues(ProviderName, string(e.model), "count_mismatch").Inc()
		return nil, fmt.Errorf("expected %d embeddings, got %d: %w",
			len(inputs), len(resp.Data), domain.ErrEmbeddingProviderError)
	}

	data := resp.Data
	sort.Slice(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	out := make([][]float32, len(data))
	for i := range data {
		if len(data[i].Embedding) == 0 {
			metrics.EmbeddingErrorsTotal.WithLabelValues(ProviderName, string(e.model), "empty_response").Inc()
			return nil, fmt.Errorf("empty embedding at index %d: %w", i, domain.ErrEmbeddingProviderError)
		}
		out[i] = data[i].Embedding
	}
	return out, nil
}

func dataURI(img []byte) string {
	return "data:" + http.DetectContentType(img) + ";base64," + base64.StdEncoding.EncodeToString(img)
}

// parseAPIError wraps every failure with domain.ErrEmbeddingProviderError.
// A 4xx other than 408/429 means the server rejected the input and is not retried.
func parseAPIError(err error) error {
	wrapped := fmt.Errorf("clip server: %w: %w", domain.ErrEmbeddingProviderError, err)

	status := 0
	var reqErr *openai.RequestError
	var apiErr *openai.APIError
	switch {
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	}
	if status >= 400 && status < 500 && status != http.StatusRequestTimeout && status != http.StatusTooManyRequests {
		return retry.Permanent(wrapped)
	}
	return wrapped
}
