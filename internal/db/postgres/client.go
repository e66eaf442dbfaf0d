// Package postgres is the listing store on PostgreSQL with the pgvector extension.
package postgres

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kailas-cloud/findfit/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// DefaultTable is the listings table name.
const DefaultTable = "listings"

// Config holds connection and pool parameters.
type Config struct {
	URL              string
	MinConns         int32
	MaxConns         int32
	StatementTimeout time.Duration
	Table            string
}

// Store implements db.Store over a pgx connection pool.
// Connections are acquired per statement or transaction and released immediately.
type Store struct {
	pool    *pgxpool.Pool
	table   string
	queries queries
}

// NewStore parses cfg and opens a pool. No connection is made until first use.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database url is required")
	}
	table := cfg.Table
	if table == "" {
		table = DefaultTable
	}
	if !db.IsValidIdentifier(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.StatementTimeout > 0 {
		poolCfg.ConnConfig.RuntimeParams["statement_timeout"] =
			strconv.FormatInt(cfg.StatementTimeout.Milliseconds(), 10)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	return &Store{pool: pool, table: table, queries: buildQueries(table)}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", classify("PING", err))
	}
	return nil
}

// Close shuts down the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// WaitForReady polls Ping until the database responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// PoolStats is a snapshot of connection pool usage.
type PoolStats struct {
	Acquired     int32
	Idle         int32
	Total        int32
	Max          int32
	AcquireCount int64
}

// PoolStats returns current pool usage.
func (s *Store) PoolStats() PoolStats {
	st := s.pool.Stat()
	return PoolStats{
		Acquired:     st.AcquiredConns(),
		Idle:         st.IdleConns(),
		Total:        st.TotalConns(),
		Max:          st.MaxConns(),
		AcquireCount: st.AcquireCount(),
	}
}
