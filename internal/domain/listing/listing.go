package listing

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Source is a marketplace identifier.
type Source string

const (
	// SourceDepop is depop.com.
	SourceDepop Source = "depop"
	// SourceGrailed is grailed.com.
	SourceGrailed Source = "grailed"
	// SourceVinted is vinted.com.
	SourceVinted Source = "vinted"
)

// Sentinels for unresolved metadata. They are stored as-is and are filterable.
const (
	UnknownColor     = "unknown"
	OtherCategory    = "other"
	UnknownBrand     = "Unknown"
	UnknownCondition = "unknown"
	UnknownSize      = "unknown"
	DefaultCurrency  = "USD"
)

// Listing is one marketplace item. (Source, ExternalID) is its natural identity.
type Listing struct {
	ID          int64
	Source      Source
	ExternalID  string
	Title       string
	Description string
	Price       float64
	Currency    string
	URL         string
	ImageURL    string
	SellerName  string

	Brand     string
	Category  string
	Color     string
	Condition string
	Size      string

	Embedding      []float32
	EmbeddingModel string
	EmbeddedAt     time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Cursor is a position in newest-first listing order. The zero value is the
// start.
type Cursor struct {
	CreatedAt time.Time
	ID        int64
}

// Cursor returns the position of l, for resuming a scan right after it.
func (l *Listing) Cursor() Cursor {
	return Cursor{CreatedAt: l.CreatedAt, ID: l.ID}
}

// Validate checks the identity and applies metadata sentinels.
func (l *Listing) Validate() error {
	if l.Source == "" {
		return errors.New("source is required")
	}
	if strings.TrimSpace(l.ExternalID) == "" {
		return errors.New("external_id is required")
	}
	if l.Price < 0 {
		return fmt.Errorf("price must not be negative, got %v", l.Price)
	}
	l.ApplySentinels()
	return nil
}

// ApplySentinels replaces empty metadata with the explicit unresolved values.
func (l *Listing) ApplySentinels() {
	l.Brand = orDefault(l.Brand, UnknownBrand)
	l.Category = orDefault(l.Category, OtherCategory)
	l.Color = orDefault(l.Color, UnknownColor)
	l.Condition = orDefault(l.Condition, UnknownCondition)
	l.Size = orDefault(l.Size, UnknownSize)
	l.Currency = orDefault(strings.ToUpper(l.Currency), DefaultCurrency)
}

// HasEmbedding reports whether a vector is attached.
func (l *Listing) HasEmbedding() bool { return len(l.Embedding) > 0 }

// EmbeddingText is the text paired with the listing image for multimodal embedding.
func (l *Listing) EmbeddingText() string {
	title := strings.TrimSpace(l.Title)
	desc := strings.TrimSpace(l.Description)
	switch {
	case title == "":
		return desc
	case desc == "":
		return title
	default:
		return title + ". " + desc
	}
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return strings.TrimSpace(v)
}
