package filter

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/findfit/internal/domain/listing"
)

// Filters is an exact-match conjunction over listing metadata plus an optional price range.
// Empty string fields and nil bounds are unconstrained.
type Filters struct {
	category  string
	brand     string
	color     string
	condition string
	size      string
	source    string
	minPrice  *float64
	maxPrice  *float64
}

// Params is the raw, unvalidated filter input.
type Params struct {
	Category  string
	Brand     string
	Color     string
	Condition string
	Size      string
	Source    string
	MinPrice  *float64
	MaxPrice  *float64
}

// New validates params and builds Filters.
func New(p Params) (Filters, error) {
	if p.MinPrice != nil && *p.MinPrice < 0 {
		return Filters{}, fmt.Errorf("min_price must not be negative")
	}
	if p.MaxPrice != nil && *p.MaxPrice < 0 {
		return Filters{}, fmt.Errorf("max_price must not be negative")
	}
	if p.MinPrice != nil && p.MaxPrice != nil && *p.MinPrice > *p.MaxPrice {
		return Filters{}, fmt.Errorf("min_price %v exceeds max_price %v", *p.MinPrice, *p.MaxPrice)
	}
	return Filters{
		category:  strings.TrimSpace(p.Category),
		brand:     strings.TrimSpace(p.Brand),
		color:     strings.TrimSpace(p.Color),
		condition: strings.TrimSpace(p.Condition),
		size:      strings.TrimSpace(p.Size),
		source:    strings.TrimSpace(p.Source),
		minPrice:  p.MinPrice,
		maxPrice:  p.MaxPrice,
	}, nil
}

// Category returns the category constraint.
func (f Filters) Category() string { return f.category }

// Brand returns the brand constraint.
func (f Filters) Brand() string { return f.brand }

// Color returns the color constraint.
func (f Filters) Color() string { return f.color }

// Condition returns the condition constraint.
func (f Filters) Condition() string { return f.condition }

// Size returns the size constraint.
func (f Filters) Size() string { return f.size }

// Source returns the marketplace constraint.
func (f Filters) Source() string { return f.source }

// MinPrice returns the inclusive lower price bound.
func (f Filters) MinPrice() *float64 { return f.minPrice }

// MaxPrice returns the inclusive upper price bound.
func (f Filters) MaxPrice() *float64 { return f.maxPrice }

// IsEmpty reports whether no constraint is set.
func (f Filters) IsEmpty() bool {
	return len(f.Matches()) == 0 && f.minPrice == nil && f.maxPrice == nil
}

// Match is one exact-match constraint: column name and value.
type Match struct {
	Field string
	Value string
}

// Matches returns the set exact-match constraints in a stable order.
func (f Filters) Matches() []Match {
	all := []Match{
		{"category", f.category},
		{"brand", f.brand},
		{"color", f.color},
		{"condition", f.condition},
		{"size", f.size},
		{"source", f.source},
	}
	out := all[:0]
	for _, m := range all {
		if m.Value != "" {
			out = append(out, m)
		}
	}
	return out
}

// Allows reports whether l satisfies every constraint.
// Text fields compare case-insensitively, matching the store's behavior.
func (f Filters) Allows(l *listing.Listing) bool {
	values := map[string]string{
		"category":  l.Category,
		"brand":     l.Brand,
		"color":     l.Color,
		"condition": l.Condition,
		"size":      l.Size,
		"source":    string(l.Source),
	}
	for _, m := range f.Matches() {
		if !strings.EqualFold(values[m.Field], m.Value) {
			return false
		}
	}
	if f.minPrice != nil && l.Price < *f.minPrice {
		return false
	}
	if f.maxPrice != nil && l.Price > *f.maxPrice {
		return false
	}
	return true
}
