package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kailas-cloud/findfit/internal/domain/listing"
)

const (
	depopAPIBaseURL  = "https://webapi.depop.com"
	depopSiteBaseURL = "https://www.depop.com"
	depopPageSize    = 100
)

// Depop searches depop.com through its public web API.
type Depop struct {
	client *Client
}

// NewDepop creates a Depop source.
func NewDepop(opts ...ClientOption) *Depop {
	return &Depop{client: newClient(string(listing.SourceDepop), depopAPIBaseURL, opts...)}
}

// Name implements the ingest source contract.
func (d *Depop) Name() listing.Source { return listing.SourceDepop }

// Search fetches one result page (1-based) for term.
func (d *Depop) Search(ctx context.Context, term string, page int) ([]listing.RawRecord, error) {
	params := url.Values{}
	params.Set("q", term)
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(depopPageSize))

	body, err := d.client.get(ctx, "/api/v2/search/", params, "application/json")
	if err != nil {
		return nil, err
	}
	// The API occasionally serves the web page instead of JSON.
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '<' {
		return parseDepopHTML(body)
	}
	return parseDepopJSON(body)
}

type depopSearchResponse struct {
	Products []depopProduct `json:"products"`
}

type depopProduct struct {
	ID            flexString `json:"id"`
	Slug          string     `json:"slug"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	PriceAmount   flexString `json:"priceAmount"`
	PriceCurrency string     `json:"priceCurrency"`
	BrandID       int        `json:"brandId"`
	CategoryID    int        `json:"categoryId"`
	Colour        string     `json:"colour"`
	Condition     string     `json:"condition"`
	Size          struct {
		Text string `json:"text"`
	} `json:"size"`
	Pictures []struct {
		Formats map[string]struct {
			URL string `json:"url"`
		} `json:"formats"`
	} `json:"pictures"`
	Seller struct {
		Username string `json:"username"`
	} `json:"seller"`
}

func parseDepopJSON(body []byte) ([]listing.RawRecord, error) {
	var resp depopSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode depop response: %w", err)
	}

	out := make([]listing.RawRecord, 0, len(resp.Products))
	for i := range resp.Products {
		p := &resp.Products[i]
		rec := listing.RawRecord{
			Source:      listing.SourceDepop,
			ExternalID:  string(p.ID),
			Title:       p.Title,
			Description: p.Description,
			Currency:    p.PriceCurrency,
			ImageURL:    p.imageURL(),
			SellerName:  p.Seller.Username,
			Brand:       listing.DepopBrands[p.BrandID],
			Category:    listing.DepopCategories[p.CategoryID],
			Color:       p.Colour,
			Condition:   p.Condition,
			Size:        p.Size.Text,
		}
		if p.Slug != "" {
			rec.URL = depopSiteBaseURL + "/products/" + p.Slug + "/"
		}
		// Amounts are in minor units.
		if cents, ok := ParsePrice(string(p.PriceAmount)); ok {
			rec.Price = cents / 100
		}
		out = append(out, rec)
	}
	return out, nil
}

// imageURL prefers the large P6 rendition, then the original P0.
func (p *depopProduct) imageURL() string {
	if len(p.Pictures) == 0 {
		return ""
	}
	formats := p.Pictures[0].Formats
	for _, key := range []string{"P6", "P0"} {
		if f, ok := formats[key]; ok && f.URL != "" {
			return f.URL
		}
	}
	return ""
}

// parseDepopHTML reads product cards from a search page. Cards carry no
// description or metadata.
func parseDepopHTML(body []byte) ([]listing.RawRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse depop html: %w", err)
	}

	seen := make(map[string]struct{})
	var out []listing.RawRecord
	doc.Find(`a[href*="/products/"]`).Each(func(_ int, card *goquery.Selection) {
		href, _ := card.Attr("href")
		id := strings.Trim(href, "/")
		id = id[strings.LastIndex(id, "/")+1:]
		if id == "" {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}

		rec := listing.RawRecord{
			Source:     listing.SourceDepop,
			ExternalID: id,
			URL:        href,
		}
		if strings.HasPrefix(href, "/") {
			rec.URL = depopSiteBaseURL + href
		}
		if title, ok := card.Attr("title"); ok {
			rec.Title = strings.TrimSpace(title)
		}
		if img := card.Find("img").First(); img.Length() > 0 {
			rec.ImageURL, _ = img.Attr("src")
			if rec.Title == "" {
				rec.Title, _ = img.Attr("alt")
			}
		}
		card.Find("p, span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := strings.TrimSpace(s.Text())
			if strings.ContainsAny(text, "$£€") {
				rec.Price, _ = ParsePrice(text)
				return false
			}
			return true
		})
		out = append(out, rec)
	})
	return out, nil
}
