package storage

import "errors"

// Storage errors. Override and snapshot stores are append-only: any code
// path that would mutate an audit record must fail with ErrImmutable.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when attempting to insert a record
	// with a key that already exists.
	ErrDuplicateKey = errors.New("duplicate key: append-only store does not allow updates")

	// ErrImmutable is returned when an operation would modify or delete
	// an audit record. This is a programming error, never a retry case.
	ErrImmutable = errors.New("immutable record: update and delete are rejected")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
