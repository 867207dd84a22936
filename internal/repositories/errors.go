package repositories

import "errors"

var (
	// ErrNotFound is returned when a referenced row or document is absent.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidID is returned when an identifier cannot be parsed.
	ErrInvalidID = errors.New("invalid id")
	// ErrConflict is returned when a toggle loses a race that the store's
	// unique constraint resolved in favour of another writer.
	ErrConflict = errors.New("conflicting concurrent write")
)
