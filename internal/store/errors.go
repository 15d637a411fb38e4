package store

import "errors"

var (
	// ErrNotFound is returned when no user matches a lookup.
	ErrNotFound = errors.New("user not found")

	// ErrUsernameTaken and ErrEmailTaken report a write rejected by the
	// store's unique constraints.
	ErrUsernameTaken = errors.New("username already exists")
	ErrEmailTaken    = errors.New("email already exists")
)
