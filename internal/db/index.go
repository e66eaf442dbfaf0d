package db

import (
	"errors"
	"fmt"
	"strings"
)

// DistanceMetric used by the vector index and KNN queries.
type DistanceMetric string

const (
	// DistanceL2 is Euclidean distance.
	DistanceL2 DistanceMetric = "l2"
	// DistanceIP is negative inner product.
	DistanceIP DistanceMetric = "ip"
	// DistanceCosine is cosine distance.
	DistanceCosine DistanceMetric = "cosine"
)

// ParseDistanceMetric accepts l2, ip or cosine (case-insensitive).
func ParseDistanceMetric(s string) (DistanceMetric, error) {
	m := DistanceMetric(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case DistanceL2, DistanceIP, DistanceCosine:
		return m, nil
	default:
		return "", fmt.Errorf("unknown distance metric %q", s)
	}
}

// Operator returns the pgvector distance operator.
func (m DistanceMetric) Operator() string {
	switch m {
	case DistanceL2:
		return "<->"
	case DistanceIP:
		return "<#>"
	default:
		return "<=>"
	}
}

// OpClass returns the pgvector operator class for an HNSW index.
func (m DistanceMetric) OpClass() string {
	switch m {
	case DistanceL2:
		return "vector_l2_ops"
	case DistanceIP:
		return "vector_ip_ops"
	default:
		return "vector_cosine_ops"
	}
}

// IndexDefinition describes the listing table's vector column and HNSW index.
type IndexDefinition struct {
	Table          string
	Dimensions     int
	Distance       DistanceMetric
	M              int // HNSW max edges per node (pgvector default 16)
	EFConstruction int // HNSW build-time candidate list (pgvector default 64)
}

// Validate checks that the index definition is well-formed.
func (idx *IndexDefinition) Validate() error {
	if idx.Table == "" {
		return errors.New("table name is required")
	}
	if !IsValidIdentifier(idx.Table) {
		return errors.New("table name contains invalid characters")
	}
	if idx.Dimensions <= 0 || idx.Dimensions > 16000 {
		return fmt.Errorf("vector dimensions must be between 1 and 16000, got %d", idx.Dimensions)
	}
	if _, err := ParseDistanceMetric(string(idx.Distance)); err != nil {
		return err
	}
	if idx.M < 2 || idx.M > 100 {
		return fmt.Errorf("hnsw m must be between 2 and 100, got %d", idx.M)
	}
	if idx.EFConstruction < 2*idx.M {
		return fmt.Errorf("hnsw ef_construction must be at least 2*m (%d), got %d", 2*idx.M, idx.EFConstruction)
	}
	return nil
}

// IndexName returns the HNSW index name for the table.
func (idx *IndexDefinition) IndexName() string {
	return idx.Table + "_embedding_hnsw_idx"
}

// String returns the CREATE INDEX statement.
func (idx *IndexDefinition) String() string {
	return fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding %s) WITH (m = %d, ef_construction = %d)",
		idx.IndexName(), idx.Table, idx.Distance.OpClass(), idx.M, idx.EFConstruction,
	)
}

// IsValidIdentifier returns true if s matches [a-z_][a-z0-9_]*.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		isLower := r >= 'a' && r <= 'z'
		isDigit := r >= '0' && r <= '9'
		if !isLower && r != '_' && (i == 0 || !isDigit) {
			return false
		}
	}
	return true
}
