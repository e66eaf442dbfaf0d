package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound = errors.New("db: key not found")
	ErrRowNotFound = errors.New("db: row not found")
	ErrUnavailable = errors.New("db: unavailable")
)

// Op names used for error context.
const (
	OpMigrate         = "MIGRATE"
	OpUpsert          = "UPSERT"
	OpSelect          = "SELECT"
	OpFetchUnembedded = "FETCH_UNEMBEDDED"
	OpAttachVector    = "ATTACH_VECTOR"
	OpClearVectors    = "CLEAR_VECTORS"
	OpDistinct        = "DISTINCT"
	OpCount           = "COUNT"
	OpSearch          = "KNN"
	OpGet             = "GET"
	OpSet             = "SET"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
