package chi

import (
	"time"

	domlisting "github.com/kailas-cloud/findfit/internal/domain/listing"
	"github.com/kailas-cloud/findfit/internal/domain/search/filter"
	"github.com/kailas-cloud/findfit/internal/domain/search/result"
)

type searchRequest struct {
	ImageBase64 string       `json:"image_base64"`
	Query       string       `json:"query"`
	Filters     *filtersBody `json:"filters"`
	TopK        *int         `json:"top_k"`
}

type filtersBody struct {
	Category  string   `json:"category"`
	Brand     string   `json:"brand"`
	Color     string   `json:"color"`
	Condition string   `json:"condition"`
	Size      string   `json:"size"`
	Source    string   `json:"source"`
	MinPrice  *float64 `json:"min_price"`
	MaxPrice  *float64 `json:"max_price"`
}

// toDomain validates the filter block. A missing block is unconstrained.
func (f *filtersBody) toDomain() (filter.Filters, error) {
	if f == nil {
		return filter.Filters{}, nil
	}
	return filter.New(filter.Params{ //nolint:wrapcheck // mapped to invalid_input by the caller
		Category:  f.Category,
		Brand:     f.Brand,
		Color:     f.Color,
		Condition: f.Condition,
		Size:      f.Size,
		Source:    f.Source,
		MinPrice:  f.MinPrice,
		MaxPrice:  f.MaxPrice,
	})
}

type listingResponse struct {
	ID          int64      `json:"id"`
	ExternalID  string     `json:"external_id"`
	Source      string     `json:"source"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Price       float64    `json:"price"`
	Currency    string     `json:"currency"`
	URL         string     `json:"url"`
	ImageURL    string     `json:"image_url"`
	RedirectURL string     `json:"redirect_url"`
	SellerName  string     `json:"seller_name,omitempty"`
	Brand       string     `json:"brand"`
	Category    string     `json:"category"`
	Color       string     `json:"color"`
	Condition   string     `json:"condition"`
	Size        string     `json:"size"`
	EmbeddedAt  *time.Time `json:"embedded_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

type searchItem struct {
	listingResponse
	Distance   float64 `json:"distance"`
	Similarity float64 `json:"similarity"`
	Rank       int     `json:"rank"`
}

type searchResponse struct {
	Items []searchItem `json:"items"`
	Total int          `json:"total"`
	TopK  int          `json:"top_k"`
}

// filterOptionsResponse mirrors domlisting.FilterOptions field for field.
type filterOptionsResponse struct {
	Categories []string `json:"categories"`
	Brands     []string `json:"brands"`
	Colors     []string `json:"colors"`
	Conditions []string `json:"conditions"`
	Sizes      []string `json:"sizes"`
	Sources    []string `json:"sources"`
}

type listingStats struct {
	Total    int64 `json:"total"`
	Embedded int64 `json:"embedded"`
}

type healthResponse struct {
	Status   string            `json:"status"`
	Version  string            `json:"version"`
	Checks   map[string]string `json:"checks"`
	Listings *listingStats     `json:"listings,omitempty"`
}

func listingFromDomain(l *domlisting.Listing) listingResponse {
	resp := listingResponse{
		ID:          l.ID,
		ExternalID:  l.ExternalID,
		Source:      string(l.Source),
		Title:       l.Title,
		Description: l.Description,
		Price:       l.Price,
		Currency:    l.Currency,
		URL:         l.URL,
		ImageURL:    l.ImageURL,
		RedirectURL: l.RedirectURL(),
		SellerName:  l.SellerName,
		Brand:       l.Brand,
		Category:    l.Category,
		Color:       l.Color,
		Condition:   l.Condition,
		Size:        l.Size,
	}
	if !l.EmbeddedAt.IsZero() {
		t := l.EmbeddedAt.UTC()
		resp.EmbeddedAt = &t
	}
	if !l.UpdatedAt.IsZero() {
		t := l.UpdatedAt.UTC()
		resp.UpdatedAt = &t
	}
	return resp
}

func searchItemFromResult(r *result.Result) searchItem {
	return searchItem{
		listingResponse: listingFromDomain(r.Listing()),
		Distance:        r.Distance(),
		Similarity:      r.Similarity(),
		Rank:            r.Rank(),
	}
}
