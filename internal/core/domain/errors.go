package domain

import "errors"

var (
	// ErrInvalidInput marks a caller contract violation (malformed coordinates,
	// out-of-range severity). It is distinct from a low safety score.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned by repositories when a record does not exist.
	ErrNotFound = errors.New("not found")
)
