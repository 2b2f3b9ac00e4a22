package repository

import "errors"

var (
	// ErrNotFound is returned when a record does not exist (or the id cannot
	// name one in the backing store).
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned when the unique email constraint fires.
	ErrDuplicateEmail = errors.New("email already exists")
)
