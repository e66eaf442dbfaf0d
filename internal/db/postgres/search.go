package postgres

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/kailas-cloud/findfit/internal/db"
)

var iterativeModes = map[string]struct{}{
	"off":           {},
	"relaxed_order": {},
	"strict_order":  {},
}

// SearchKNN returns up to q.K rows with a vector that satisfy q.Filters, ordered by
// ascending distance and then by id. Index settings apply to this transaction only.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if len(q.Vector) == 0 {
		return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("empty query vector")}
	}
	if q.K <= 0 {
		return &db.SearchResult{}, nil
	}
	if q.Iterative != "" {
		if _, ok := iterativeModes[q.Iterative]; !ok {
			return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("unknown iterative scan mode %q", q.Iterative)}
		}
	}
	metric, err := db.ParseDistanceMetric(string(q.Distance))
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	where := db.NewWhere(pgvector.NewVector(q.Vector)).
		Add("embedding IS NOT NULL").
		Filters(q.Filters)
	args := append(where.Args(), q.K)
	query := knnQuery(s.table, s.queries.hitColumns, metric.Operator(), where.SQL(), "$"+strconv.Itoa(len(args)))

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, classify(db.OpSearch, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if q.EFSearch > 0 {
		if _, err := tx.Exec(ctx, "SELECT set_config('hnsw.ef_search', $1, true)", strconv.Itoa(q.EFSearch)); err != nil {
			return nil, classify(db.OpSearch, err)
		}
	}
	if q.Iterative != "" {
		if _, err := tx.Exec(ctx, "SELECT set_config('hnsw.iterative_scan', $1, true)", q.Iterative); err != nil {
			return nil, classify(db.OpSearch, err)
		}
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, classify(db.OpSearch, err)
	}
	defer rows.Close()

	res := &db.SearchResult{Entries: make([]db.SearchEntry, 0, q.K)}
	for rows.Next() {
		var dist float64
		row, err := scanRow(rows, &dist)
		if err != nil {
			return nil, classify(db.OpSearch, err)
		}
		res.Entries = append(res.Entries, db.SearchEntry{Row: *row, Distance: dist})
	}
	if err := rows.Err(); err != nil {
		return nil, classify(db.OpSearch, err)
	}
	return res, nil
}
