package storage

import "errors"

// Runs and snapshots are written once and never updated.
var (
	// ErrNotFound means no run or snapshot matches the lookup.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey means a run_id, or a (run_id, tick_date, account_id)
	// snapshot key, is already stored.
	ErrDuplicateKey = errors.New("duplicate key: runs and snapshots are write-once")

	// ErrInvalidInput means a record is missing a key field or carries a
	// value the backend cannot store exactly.
	ErrInvalidInput = errors.New("invalid input")
)
