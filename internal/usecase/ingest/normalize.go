package ingest

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kailas-cloud/findfit/internal/domain"
	"github.com/kailas-cloud/findfit/internal/domain/listing"
)

// Normalizer turns raw marketplace records into listings.
type Normalizer struct {
	validate *validator.Validate
}

// NewNormalizer creates a Normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Normalize validates rec and maps free-text metadata onto the standard
// vocabularies. Fields the marketplace left unresolved are read from the
// title and description; whatever is still missing gets the sentinel values.
func (n *Normalizer) Normalize(rec *listing.RawRecord) (listing.Listing, error) {
	rec.ExternalID = strings.TrimSpace(rec.ExternalID)
	rec.ImageURL = strings.TrimSpace(rec.ImageURL)
	rec.Currency = strings.ToUpper(strings.TrimSpace(rec.Currency))

	if err := n.validate.Struct(rec); err != nil {
		return listing.Listing{}, fmt.Errorf("%w: %s/%s: %w", domain.ErrInvalidInput, rec.Source, rec.ExternalID, err)
	}

	l := listing.Listing{
		Source:      rec.Source,
		ExternalID:  rec.ExternalID,
		Title:       strings.TrimSpace(rec.Title),
		Description: strings.TrimSpace(rec.Description),
		Price:       rec.Price,
		Currency:    rec.Currency,
		URL:         strings.TrimSpace(rec.URL),
		ImageURL:    rec.ImageURL,
		SellerName:  strings.TrimSpace(rec.SellerName),
		Brand:       strings.TrimSpace(rec.Brand),
		Category:    listing.NormalizeCategory(rec.Category),
		Color:       listing.NormalizeColor(rec.Color),
		Condition:   listing.NormalizeCondition(rec.Condition),
		Size:        strings.TrimSpace(rec.Size),
	}
	if l.Currency == "" {
		l.Currency = listing.DefaultCurrency
	}
	l.InferFromText()
	l.ApplySentinels()
	return l, nil
}
