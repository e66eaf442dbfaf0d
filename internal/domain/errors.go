package domain

import "errors"

var (
	// ErrInvalidInput signals a client mistake: missing or undecodable input.
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmbeddingUnavailable signals an embedding provider outage after retries.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")
	// ErrEmbeddingProviderError signals a single failed provider call.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrStoreUnavailable signals that the listing store cannot be reached.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrExternalFetch signals a marketplace fetch that failed after retries.
	ErrExternalFetch = errors.New("external fetch failed")
	// ErrNotFound signals a missing listing.
	ErrNotFound = errors.New("not found")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
)
