package repository

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrVersionConflict is returned when a compare-and-swap update
	// finds the row was changed by a concurrent writer.
	ErrVersionConflict = errors.New("version conflict")
)
