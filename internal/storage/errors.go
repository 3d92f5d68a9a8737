package storage

import "errors"

// Common storage errors
var (
	// ErrNotFound indicates that a record was not found in storage.
	// Absence is a valid outcome for get operations: the facade maps this
	// sentinel to a nil record instead of failing the call.
	ErrNotFound = errors.New("record not found")

	// ErrConflict indicates that a unique constraint was violated
	// (for example a second TravelInfo for the same user and destination)
	ErrConflict = errors.New("record conflict")
)
