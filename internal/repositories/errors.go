package repositories

import "errors"

var (
	// ErrNotFound is returned when a looked-up record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrStatusConflict is returned when a status compare-and-set finds the
	// order in a different status than expected.
	ErrStatusConflict = errors.New("order status changed concurrently")
)
