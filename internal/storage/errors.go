package storage

import "errors"

// Storage errors shared by all backends.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when attempting to insert a record
	// at an address (or unique key) that is already in use.
	ErrDuplicateKey = errors.New("duplicate key: address already in use")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when a conditional one-shot update finds the
	// record already transitioned (executed or resolved).
	ErrConflict = errors.New("conflict: record already transitioned")

	// ErrInsufficientBalance is returned when a debit exceeds the account balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrReadOnly is returned when a mutation is attempted inside View.
	ErrReadOnly = errors.New("read-only transaction")
)
