package storage

import "errors"

// Sentinel errors for storage operations.
var (
	// ErrNotFound is returned when a resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict is returned when a record with the given ID already exists.
	ErrConflict = errors.New("resource already exists")

	// ErrDimensionMismatch is returned when a vector does not match the
	// dimensionality of the stored embeddings.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
