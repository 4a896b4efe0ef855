package repository

import "errors"

// Common repository errors
var (
	// ErrNotFound is returned when a record is not found
	ErrNotFound = errors.New("record not found")

	// ErrUnavailable is returned when the store cannot serve the request
	ErrUnavailable = errors.New("store unavailable")

	// ErrConflict is returned when a write violates a uniqueness constraint
	ErrConflict = errors.New("record already exists")
)

const pqUniqueViolation = "23505"
