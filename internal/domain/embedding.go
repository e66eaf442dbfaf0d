package domain

import (
	"context"
	"math"
	"strings"
)

// DefaultDimensions is the stored vector width when none is configured.
const DefaultDimensions = 768

// KeyPrefix namespaces every key findfit writes to the cache.
const KeyPrefix = "findfit:"

// EmbeddingInput is an image, a text, or both. Image holds raw encoded bytes.
type EmbeddingInput struct {
	Image []byte
	Text  string
}

// HasImage reports whether image bytes are present.
func (in EmbeddingInput) HasImage() bool { return len(in.Image) > 0 }

// HasText reports whether non-blank text is present.
func (in EmbeddingInput) HasText() bool { return strings.TrimSpace(in.Text) != "" }

// IsEmpty reports whether neither image nor text is present.
func (in EmbeddingInput) IsEmpty() bool { return !in.HasImage() && !in.HasText() }

// Embedder is the shared vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, in EmbeddingInput) (EmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector through the decorator chain.
// Model names the provider/model pair that produced the vector.
type EmbeddingResult struct {
	Embedding []float32
	Model     string
}

// FitDimensions right-pads v with zeros or truncates it to exactly dim components.
// Truncation drops information; vectors from providers of different widths are
// comparable only approximately.
func FitDimensions(v []float32, dim int) []float32 {
	out := make([]float32, dim)
	copy(out, v)
	return out
}

// Normalize scales v to unit L2 norm in place. Returns false for a zero vector.
func Normalize(v []float32) bool {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return false
	}
	inv := 1 / math.Sqrt(sum)
	for i, x := range v {
		v[i] = float32(float64(x) * inv)
	}
	return true
}

// Average returns the component-wise mean of vectors of equal length.
func Average(vs ...[]float32) []float32 {
	if len(vs) == 0 {
		return nil
	}
	out := make([]float32, len(vs[0]))
	for _, v := range vs {
		for i := range out {
			if i < len(v) {
				out[i] += v[i]
			}
		}
	}
	n := float32(len(vs))
	for i := range out {
		out[i] /= n
	}
	return out
}
