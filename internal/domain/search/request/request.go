package request

import (
	"fmt"

	"github.com/kailas-cloud/findfit/internal/domain"
	"github.com/kailas-cloud/findfit/internal/domain/search/filter"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed text query length.
	MaxQueryLength = 2048
	DefaultTopK    = 20
	MaxTopK        = 100
)

// Request is a validated search query: an image, a text, or both.
type Request struct {
	image   []byte
	text    string
	filters filter.Filters
	topK    int
}

// New validates the input and clamps topK into [1, MaxTopK].
// A non-positive topK selects DefaultTopK.
func New(image []byte, text string, filters filter.Filters, topK int) (Request, error) {
	in := domain.EmbeddingInput{Image: image, Text: text}
	if in.IsEmpty() {
		return Request{}, fmt.Errorf("%w: image or query is required", domain.ErrInvalidInput)
	}
	if len(text) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidInput, MaxQueryLength)
	}
	return Request{image: image, text: text, filters: filters, topK: ClampTopK(topK)}, nil
}

// ClampTopK applies the default and upper bound to a requested result count.
func ClampTopK(k int) int {
	if k <= 0 {
		return DefaultTopK
	}
	if k > MaxTopK {
		return MaxTopK
	}
	return k
}

// Input returns the embedding input for this request.
func (r *Request) Input() domain.EmbeddingInput {
	return domain.EmbeddingInput{Image: r.image, Text: r.text}
}

// Filters returns the metadata filters.
func (r *Request) Filters() filter.Filters { return r.filters }

// TopK returns the clamped result count.
func (r *Request) TopK() int { return r.topK }
