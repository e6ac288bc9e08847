package repositories

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the attempted write would violate a uniqueness constraint.
	ErrConflict = errors.New("record conflict")
)

// Postgres error codes mapped onto the sentinels above.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)
