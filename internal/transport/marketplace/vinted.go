package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/kailas-cloud/findfit/internal/domain/listing"
)

const (
	vintedBaseURL  = "https://www.vinted.com"
	vintedPageSize = 96
)

// Vinted searches the vinted.com catalog.
type Vinted struct {
	client *Client
}

// NewVinted creates a Vinted source.
func NewVinted(opts ...ClientOption) *Vinted {
	return &Vinted{client: newClient(string(listing.SourceVinted), vintedBaseURL, opts...)}
}

// Name implements the ingest source contract.
func (v *Vinted) Name() listing.Source { return listing.SourceVinted }

// Search fetches one result page (1-based) for term.
func (v *Vinted) Search(ctx context.Context, term string, page int) ([]listing.RawRecord, error) {
	params := url.Values{}
	params.Set("search_text", term)
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(vintedPageSize))

	body, err := v.client.get(ctx, "/api/v2/catalog/items", params, "application/json")
	if err != nil {
		return nil, err
	}
	return parseVintedJSON(body)
}

type vintedCatalogResponse struct {
	Items []vintedItem `json:"items"`
}

type vintedItem struct {
	ID              flexString `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	BrandTitle      string     `json:"brand_title"`
	CatalogBranchID int        `json:"catalog_branch_id"`
	CatalogPath     string     `json:"catalog_path"`
	ColorTitle      string     `json:"color_title"`
	Color1ID        int        `json:"color1_id"`
	SizeTitle       string     `json:"size_title"`
	Status          string     `json:"status"`
	Price           flexString `json:"price"`
	Currency        string     `json:"currency"`
	URL             string     `json:"url"`
	Photo           *struct {
		URL string `json:"url"`
	} `json:"photo"`
	User struct {
		Login string `json:"login"`
	} `json:"user"`
}

func parseVintedJSON(body []byte) ([]listing.RawRecord, error) {
	var resp vintedCatalogResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode vinted response: %w", err)
	}

	out := make([]listing.RawRecord, 0, len(resp.Items))
	for i := range resp.Items {
		it := &resp.Items[i]
		rec := listing.RawRecord{
			Source:      listing.SourceVinted,
			ExternalID:  string(it.ID),
			Title:       it.Title,
			Description: it.Description,
			Currency:    it.Currency,
			URL:         it.URL,
			SellerName:  it.User.Login,
			Brand:       it.BrandTitle,
			Color:       it.ColorTitle,
			Condition:   it.Status,
			Size:        it.SizeTitle,
		}
		if rec.Color == "" {
			rec.Color = listing.VintedColors[it.Color1ID]
		}
		if c, ok := listing.VintedCategories[it.CatalogBranchID]; ok {
			rec.Category = c
		} else {
			rec.Category = it.CatalogPath
		}
		if it.Photo != nil {
			rec.ImageURL = it.Photo.URL
		}
		rec.Price, _ = ParsePrice(string(it.Price))
		out = append(out, rec)
	}
	return out, nil
}
