package db

import (
	"strconv"
	"strings"

	"github.com/kailas-cloud/findfit/internal/domain/search/filter"
)

// IndexBuilder is a fluent builder for the listing vector index definition.
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts building an index definition for table with pgvector defaults.
func NewIndex(table string) *IndexBuilder {
	return &IndexBuilder{
		def: IndexDefinition{
			Table:          table,
			Distance:       DistanceCosine,
			M:              16,
			EFConstruction: 64,
		},
	}
}

// Dimensions sets the fixed vector width.
func (b *IndexBuilder) Dimensions(dim int) *IndexBuilder {
	b.def.Dimensions = dim
	return b
}

// Distance sets the distance metric.
func (b *IndexBuilder) Distance(m DistanceMetric) *IndexBuilder {
	b.def.Distance = m
	return b
}

// HNSW sets the graph fan-out and build-time search depth. Zero values keep the defaults.
func (b *IndexBuilder) HNSW(m, efConstruction int) *IndexBuilder {
	if m > 0 {
		b.def.M = m
	}
	if efConstruction > 0 {
		b.def.EFConstruction = efConstruction
	}
	return b
}

// Build validates and returns the index definition.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	def := b.def
	return &def, nil
}

// MustBuild calls Build and panics on error.
func (b *IndexBuilder) MustBuild() *IndexDefinition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}

// filterColumns whitelists filterable columns; values never reach SQL text.
var filterColumns = map[string]string{
	"category":  "category",
	"brand":     "brand",
	"color":     "color",
	"condition": "condition",
	"size":      "size",
	"source":    "source",
}

// Where accumulates AND-joined SQL predicates with positional arguments.
type Where struct {
	clauses []string
	args    []any
}

// NewWhere starts a predicate list whose first placeholder is $(len(args)+1).
func NewWhere(args ...any) *Where {
	return &Where{args: append([]any(nil), args...)}
}

// Add appends a predicate. Each "?" in clause is replaced with the next placeholder.
func (w *Where) Add(clause string, args ...any) *Where {
	var sb strings.Builder
	i := 0
	for _, r := range clause {
		if r == '?' && i < len(args) {
			w.args = append(w.args, args[i])
			sb.WriteString("$" + strconv.Itoa(len(w.args)))
			i++
			continue
		}
		sb.WriteRune(r)
	}
	w.clauses = append(w.clauses, sb.String())
	return w
}

// Filters appends exact-match and price-range predicates.
// Text comparisons are case-insensitive.
func (w *Where) Filters(f filter.Filters) *Where {
	for _, m := range f.Matches() {
		col, ok := filterColumns[m.Field]
		if !ok {
			continue
		}
		w.Add("lower("+col+") = lower(?)", m.Value)
	}
	if f.MinPrice() != nil {
		w.Add("price >= ?", *f.MinPrice())
	}
	if f.MaxPrice() != nil {
		w.Add("price <= ?", *f.MaxPrice())
	}
	return w
}

// SQL returns " WHERE a AND b" or "" when empty.
func (w *Where) SQL() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// Args returns the positional arguments in placeholder order.
func (w *Where) Args() []any { return w.args }
