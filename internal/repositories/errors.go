package repositories

import "errors"

var (
	// ErrNotFound is returned when a row does not exist. Implementations
	// wrap it with context about what was missing.
	ErrNotFound = errors.New("record not found")

	// ErrTxConflict is returned when a transaction lost a lock or
	// serialization race. The whole unit of work may be retried.
	ErrTxConflict = errors.New("transaction conflict")
)
