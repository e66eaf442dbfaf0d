package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kailas-cloud/findfit/internal/db"
)

// unavailableClasses are SQLSTATE classes meaning the server cannot serve us right now:
// 08 connection exception, 53 insufficient resources, 57 operator intervention.
var unavailableClasses = map[string]struct{}{
	"08": {},
	"53": {},
	"57": {},
}

// classify wraps err with the op and maps connectivity failures to db.ErrUnavailable.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return &db.Error{Op: op, Err: db.ErrRowNotFound}
	}
	if isUnavailable(err) {
		return &db.Error{Op: op, Err: fmt.Errorf("%w: %w", db.ErrUnavailable, err)}
	}
	return &db.Error{Op: op, Err: err}
}

func isUnavailable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if len(pgErr.Code) >= 2 {
			_, ok := unavailableClasses[pgErr.Code[:2]]
			return ok
		}
		return false
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
