package listing

import (
	"time"

	"github.com/kailas-cloud/findfit/internal/db"
	domlisting "github.com/kailas-cloud/findfit/internal/domain/listing"
)

// toRow converts a domain listing into a store row.
func toRow(l *domlisting.Listing) *db.ListingRow {
	row := &db.ListingRow{
		ID:             l.ID,
		Source:         string(l.Source),
		ExternalID:     l.ExternalID,
		Title:          l.Title,
		Description:    l.Description,
		Price:          l.Price,
		Currency:       l.Currency,
		URL:            l.URL,
		ImageURL:       l.ImageURL,
		SellerName:     l.SellerName,
		Brand:          l.Brand,
		Category:       l.Category,
		Color:          l.Color,
		Condition:      l.Condition,
		Size:           l.Size,
		Embedding:      l.Embedding,
		EmbeddingModel: l.EmbeddingModel,
	}
	if !l.EmbeddedAt.IsZero() {
		at := l.EmbeddedAt
		row.EmbeddedAt = &at
	}
	return row
}

// FromRow converts a store row into a domain listing.
func FromRow(row *db.ListingRow) domlisting.Listing {
	var embeddedAt time.Time
	if row.EmbeddedAt != nil {
		embeddedAt = *row.EmbeddedAt
	}
	return domlisting.Listing{
		ID:             row.ID,
		Source:         domlisting.Source(row.Source),
		ExternalID:     row.ExternalID,
		Title:          row.Title,
		Description:    row.Description,
		Price:          row.Price,
		Currency:       row.Currency,
		URL:            row.URL,
		ImageURL:       row.ImageURL,
		SellerName:     row.SellerName,
		Brand:          row.Brand,
		Category:       row.Category,
		Color:          row.Color,
		Condition:      row.Condition,
		Size:           row.Size,
		Embedding:      row.Embedding,
		EmbeddingModel: row.EmbeddingModel,
		EmbeddedAt:     embeddedAt,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}
