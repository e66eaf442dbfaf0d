package postgres

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/findfit/internal/db"
)

// Migrate creates the vector extension, the listings table and its indexes.
// It is idempotent. An existing table whose vector width differs from def fails.
func (s *Store) Migrate(ctx context.Context, def *db.IndexDefinition) error {
	if err := def.Validate(); err != nil {
		return fmt.Errorf("index definition: %w", err)
	}
	if def.Table != s.table {
		return fmt.Errorf("index definition table %q does not match store table %q", def.Table, s.table)
	}

	stmts := append([]string{"CREATE EXTENSION IF NOT EXISTS vector"}, schemaStatements(def)...)
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return classify(db.OpMigrate, fmt.Errorf("%s: %w", firstLine(stmt), err))
		}
	}

	dims, err := s.vectorDimensions(ctx)
	if err != nil {
		return err
	}
	if dims != def.Dimensions {
		return &db.Error{Op: db.OpMigrate, Err: fmt.Errorf(
			"table %s stores vector(%d) but %d dimensions are configured; re-embed into a new table",
			s.table, dims, def.Dimensions)}
	}
	return nil
}

// vectorDimensions reads the declared width of the embedding column.
func (s *Store) vectorDimensions(ctx context.Context) (int, error) {
	var typmod int
	err := s.pool.QueryRow(ctx, `
		SELECT a.atttypmod
		FROM pg_attribute a
		WHERE a.attrelid = $1::regclass AND a.attname = 'embedding' AND NOT a.attisdropped`,
		s.table,
	).Scan(&typmod)
	if err != nil {
		return 0, classify(db.OpMigrate, err)
	}
	return typmod, nil
}

func schemaStatements(def *db.IndexDefinition) []string {
	t := def.Table
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %[1]s (
	id              BIGSERIAL PRIMARY KEY,
	source          TEXT NOT NULL,
	external_id     TEXT NOT NULL,
	title           TEXT NOT NULL DEFAULT '',
	description     TEXT NOT NULL DEFAULT '',
	price           DOUBLE PRECISION NOT NULL DEFAULT 0,
	currency        TEXT NOT NULL DEFAULT 'USD',
	url             TEXT NOT NULL DEFAULT '',
	image_url       TEXT NOT NULL DEFAULT '',
	seller_name     TEXT NOT NULL DEFAULT '',
	brand           TEXT NOT NULL DEFAULT 'Unknown',
	category        TEXT NOT NULL DEFAULT 'other',
	color           TEXT NOT NULL DEFAULT 'unknown',
	condition       TEXT NOT NULL DEFAULT 'unknown',
	size            TEXT NOT NULL DEFAULT 'unknown',
	embedding       vector(%[2]d),
	embedding_model TEXT,
	embedded_at     TIMESTAMPTZ,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT %[1]s_source_external_id_key UNIQUE (source, external_id)
)`, t, def.Dimensions),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %[1]s_unembedded_idx ON %[1]s (created_at DESC) WHERE embedding IS NULL`, t),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %[1]s_category_idx ON %[1]s (lower(category))`, t),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %[1]s_brand_idx ON %[1]s (lower(brand))`, t),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %[1]s_color_idx ON %[1]s (lower(color))`, t),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %[1]s_price_idx ON %[1]s (price)`, t),
		def.String(),
	}
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' || r == '(' {
			return s[:i]
		}
	}
	return s
}
