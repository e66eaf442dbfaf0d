package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/kailas-cloud/findfit/internal/domain/listing"
)

const (
	grailedBaseURL  = "https://www.grailed.com"
	grailedPageSize = 40
)

// Grailed searches grailed.com.
type Grailed struct {
	client *Client
}

// NewGrailed creates a Grailed source.
func NewGrailed(opts ...ClientOption) *Grailed {
	return &Grailed{client: newClient(string(listing.SourceGrailed), grailedBaseURL, opts...)}
}

// Name implements the ingest source contract.
func (g *Grailed) Name() listing.Source { return listing.SourceGrailed }

// Search fetches one result page (1-based) for term.
func (g *Grailed) Search(ctx context.Context, term string, page int) ([]listing.RawRecord, error) {
	params := url.Values{}
	params.Set("query", term)
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(grailedPageSize))

	body, err := g.client.get(ctx, "/api/listings/search", params, "application/json")
	if err != nil {
		return nil, err
	}
	return parseGrailedJSON(body)
}

type grailedSearchResponse struct {
	Data []grailedListing `json:"data"`
}

type grailedListing struct {
	ID          flexString `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Price       flexString `json:"price"`
	Color       string     `json:"color"`
	Size        flexString `json:"size"`
	Condition   string     `json:"condition"`
	Designer    *struct {
		Name string `json:"name"`
	} `json:"designer"`
	Category *struct {
		Path       []string `json:"path"`
		PathString string   `json:"path_string"`
	} `json:"category"`
	CoverPhoto *struct {
		URL string `json:"url"`
	} `json:"cover_photo"`
	Seller struct {
		Username string `json:"username"`
	} `json:"seller"`
}

func parseGrailedJSON(body []byte) ([]listing.RawRecord, error) {
	var resp grailedSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode grailed response: %w", err)
	}

	out := make([]listing.RawRecord, 0, len(resp.Data))
	for i := range resp.Data {
		l := &resp.Data[i]
		rec := listing.RawRecord{
			Source:      listing.SourceGrailed,
			ExternalID:  string(l.ID),
			Title:       l.Title,
			Description: l.Description,
			Currency:    listing.DefaultCurrency,
			SellerName:  l.Seller.Username,
			Color:       l.Color,
			Condition:   l.Condition,
			Size:        string(l.Size),
			Category:    grailedCategory(l),
		}
		if rec.ExternalID != "" {
			rec.URL = grailedBaseURL + "/listings/" + rec.ExternalID
		}
		if l.Designer != nil {
			rec.Brand = l.Designer.Name
		}
		if l.CoverPhoto != nil {
			rec.ImageURL = l.CoverPhoto.URL
		}
		rec.Price, _ = ParsePrice(string(l.Price))
		out = append(out, rec)
	}
	return out, nil
}

// grailedCategory resolves the category path through the known table, falling
// back to the free-text path string.
func grailedCategory(l *grailedListing) string {
	if l.Category == nil {
		return ""
	}
	if c, ok := listing.GrailedCategories[strings.Join(l.Category.Path, " > ")]; ok {
		return c
	}
	return l.Category.PathString
}
