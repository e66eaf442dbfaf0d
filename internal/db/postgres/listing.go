package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/kailas-cloud/findfit/internal/db"
)

// UpsertListing inserts a listing or updates the row with the same (source, external_id).
// An absent vector never clears a stored one.
func (s *Store) UpsertListing(ctx context.Context, row *db.ListingRow) (db.UpsertResult, error) {
	var res db.UpsertResult
	err := s.pool.QueryRow(ctx, s.queries.upsert,
		row.Source, row.ExternalID, row.Title, row.Description, row.Price, row.Currency,
		row.URL, row.ImageURL, row.SellerName,
		row.Brand, row.Category, row.Color, row.Condition, row.Size,
		encodeVector(row.Embedding), nullString(row.EmbeddingModel),
	).Scan(&res.ID, &res.Created)
	if err != nil {
		return db.UpsertResult{}, classify(db.OpUpsert, err)
	}
	return res, nil
}

// GetListing reads one row by id.
func (s *Store) GetListing(ctx context.Context, id int64) (*db.ListingRow, error) {
	row, err := scanRow(s.pool.QueryRow(ctx, s.queries.get, id))
	if err != nil {
		return nil, classify(db.OpSelect, err)
	}
	return row, nil
}

// FetchUnembedded returns up to limit rows with an image and no vector, newest
// first, starting strictly after the after cursor.
func (s *Store) FetchUnembedded(ctx context.Context, after db.Cursor, limit int) ([]db.ListingRow, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, s.queries.fetchUnembedded, limit, after.ID, after.CreatedAt)
	if err != nil {
		return nil, classify(db.OpFetchUnembedded, err)
	}
	defer rows.Close()

	out := make([]db.ListingRow, 0, limit)
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, classify(db.OpFetchUnembedded, err)
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(db.OpFetchUnembedded, err)
	}
	return out, nil
}

// AttachVector stores vector and its model on the row with id.
func (s *Store) AttachVector(ctx context.Context, id int64, vector []float32, model string) error {
	if len(vector) == 0 {
		return &db.Error{Op: db.OpAttachVector, Err: fmt.Errorf("empty vector")}
	}
	tag, err := s.pool.Exec(ctx, s.queries.attachVector, id, pgvector.NewVector(vector), nullString(model))
	if err != nil {
		return classify(db.OpAttachVector, err)
	}
	if tag.RowsAffected() == 0 {
		return &db.Error{Op: db.OpAttachVector, Err: db.ErrRowNotFound}
	}
	return nil
}

// ClearVectors drops stored vectors so backfill re-embeds them.
// An empty keepModel clears every row; otherwise rows embedded by keepModel survive.
func (s *Store) ClearVectors(ctx context.Context, keepModel string) (int64, error) {
	var (
		query = s.queries.clearAll
		args  []any
	)
	if keepModel != "" {
		query = s.queries.clearExcept
		args = append(args, keepModel)
	}
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, classify(db.OpClearVectors, err)
	}
	return tag.RowsAffected(), nil
}

// DistinctValues lists up to limit distinct non-empty values of a filterable column.
func (s *Store) DistinctValues(ctx context.Context, column string, limit int) ([]string, error) {
	query, err := distinctQuery(s.table, column)
	if err != nil {
		return nil, &db.Error{Op: db.OpDistinct, Err: err}
	}
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, classify(db.OpDistinct, err)
	}
	values, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, classify(db.OpDistinct, err)
	}
	return values, nil
}

// CountListings reports the total row count and how many rows carry a vector.
func (s *Store) CountListings(ctx context.Context) (db.ListingStats, error) {
	var st db.ListingStats
	if err := s.pool.QueryRow(ctx, s.queries.count).Scan(&st.Total, &st.Embedded); err != nil {
		return db.ListingStats{}, classify(db.OpCount, err)
	}
	return st, nil
}

// scanRow reads the selectColumns projection, optionally followed by extra destinations.
func scanRow(r pgx.Row, extra ...any) (*db.ListingRow, error) {
	var (
		row        db.ListingRow
		vec        *string
		model      *string
		embeddedAt *time.Time
	)
	dest := []any{
		&row.ID, &row.Source, &row.ExternalID, &row.Title, &row.Description, &row.Price, &row.Currency,
		&row.URL, &row.ImageURL, &row.SellerName, &row.Brand, &row.Category, &row.Color, &row.Condition, &row.Size,
		&vec, &model, &embeddedAt, &row.CreatedAt, &row.UpdatedAt,
	}
	if err := r.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if vec != nil {
		v, err := parseVector(*vec)
		if err != nil {
			return nil, err
		}
		row.Embedding = v
	}
	if model != nil {
		row.EmbeddingModel = *model
	}
	row.EmbeddedAt = embeddedAt
	return &row, nil
}

// encodeVector returns a query argument for a vector column; nil becomes SQL NULL.
func encodeVector(v []float32) any {
	if len(v) == 0 {
		return nil
	}
	return pgvector.NewVector(v)
}

// parseVector decodes the text form "[1,2,3]".
func parseVector(s string) ([]float32, error) {
	var v pgvector.Vector
	if err := v.Scan(s); err != nil {
		return nil, fmt.Errorf("decode vector: %w", err)
	}
	return v.Slice(), nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
