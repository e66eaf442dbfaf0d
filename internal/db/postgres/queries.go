package postgres

import (
	"fmt"
	"strings"
)

// selectColumns is the row projection shared by every read. The vector is read as text
// so no custom type registration is needed on pooled connections.
var selectColumns = []string{
	"id", "source", "external_id", "title", "description", "price", "currency",
	"url", "image_url", "seller_name", "brand", "category", "color", "condition", "size",
	"embedding::text", "embedding_model", "embedded_at", "created_at", "updated_at",
}

// hitColumns returns selectColumns with the vector replaced by NULL. Search hits
// never carry their stored vector, and scanRow leaves a NULL vector empty.
func hitColumns() string {
	cols := make([]string, len(selectColumns))
	for i, c := range selectColumns {
		if c == "embedding::text" {
			c = "NULL::text"
		}
		cols[i] = c
	}
	return strings.Join(cols, ", ")
}

// distinctColumns whitelists columns exposed as filter options.
var distinctColumns = map[string]struct{}{
	"category":  {},
	"brand":     {},
	"color":     {},
	"condition": {},
	"size":      {},
	"source":    {},
}

// queries holds the SQL text for one table, rendered once at construction.
type queries struct {
	hitColumns      string
	upsert          string
	get             string
	fetchUnembedded string
	attachVector    string
	clearAll        string
	clearExcept     string
	count           string
}

func buildQueries(table string) queries {
	cols := strings.Join(selectColumns, ", ")
	return queries{
		hitColumns: hitColumns(),
		upsert: fmt.Sprintf(`
INSERT INTO %[1]s AS t (
	source, external_id, title, description, price, currency, url, image_url, seller_name,
	brand, category, color, condition, size, embedding, embedding_model, embedded_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9,
	$10, $11, $12, $13, $14, $15::vector, $16, CASE WHEN $15::vector IS NULL THEN NULL ELSE now() END
)
ON CONFLICT (source, external_id) DO UPDATE SET
	title           = EXCLUDED.title,
	description     = EXCLUDED.description,
	price           = EXCLUDED.price,
	currency        = EXCLUDED.currency,
	url             = EXCLUDED.url,
	image_url       = EXCLUDED.image_url,
	seller_name     = EXCLUDED.seller_name,
	brand           = EXCLUDED.brand,
	category        = EXCLUDED.category,
	color           = EXCLUDED.color,
	condition       = EXCLUDED.condition,
	size            = EXCLUDED.size,
	embedding       = COALESCE(EXCLUDED.embedding, t.embedding),
	embedding_model = CASE WHEN EXCLUDED.embedding IS NULL THEN t.embedding_model ELSE EXCLUDED.embedding_model END,
	embedded_at     = CASE WHEN EXCLUDED.embedding IS NULL THEN t.embedded_at ELSE EXCLUDED.embedded_at END,
	updated_at      = now()
RETURNING id, (xmax = 0)`, table),
		get: fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, cols, table),
		fetchUnembedded: fmt.Sprintf(`
SELECT %s FROM %s
WHERE embedding IS NULL AND image_url <> ''
	AND ($2::bigint = 0 OR (created_at, id) < ($3::timestamptz, $2::bigint))
ORDER BY created_at DESC, id DESC
LIMIT $1`, cols, table),
		attachVector: fmt.Sprintf(`
UPDATE %s SET embedding = $2::vector, embedding_model = $3, embedded_at = now(), updated_at = now()
WHERE id = $1`, table),
		clearAll: fmt.Sprintf(`
UPDATE %s SET embedding = NULL, embedding_model = NULL, embedded_at = NULL, updated_at = now()
WHERE embedding IS NOT NULL`, table),
		clearExcept: fmt.Sprintf(`
UPDATE %s SET embedding = NULL, embedding_model = NULL, embedded_at = NULL, updated_at = now()
WHERE embedding IS NOT NULL AND embedding_model IS DISTINCT FROM $1`, table),
		count: fmt.Sprintf(`SELECT count(*), count(embedding) FROM %s`, table),
	}
}

// distinctQuery renders the filter-option query for a whitelisted column.
func distinctQuery(table, column string) (string, error) {
	if _, ok := distinctColumns[column]; !ok {
		return "", fmt.Errorf("column %q is not filterable", column)
	}
	return fmt.Sprintf(`
SELECT DISTINCT %[2]s FROM %[1]s
WHERE %[2]s <> ''
ORDER BY %[2]s
LIMIT $1`, table, column), nil
}

// knnQuery renders the nearest-neighbor query. The inner query lets the HNSW index
// drive the scan; the outer one fixes the order of equal distances by id.
func knnQuery(table, cols, op, where, limitPlaceholder string) string {
	return fmt.Sprintf(`
SELECT * FROM (
	SELECT %[2]s, embedding %[3]s $1::vector AS distance
	FROM %[1]s%[4]s
	ORDER BY embedding %[3]s $1::vector
	LIMIT %[5]s
) hits
ORDER BY distance, id`, table, cols, op, where, limitPlaceholder)
}
