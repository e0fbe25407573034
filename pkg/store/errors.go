package store

import "errors"

// Common errors returned by the stores.
var (
	// ErrUnknownBackend is returned when Config.Backend names no store.
	ErrUnknownBackend = errors.New("unknown storage backend")

	// ErrEmptyPath is returned when a file-backed store has no path.
	ErrEmptyPath = errors.New("storage path cannot be empty")

	// ErrStoreClosed is returned when using a closed store.
	ErrStoreClosed = errors.New("store is closed")

	// ErrUnsupportedSchema is returned when the stored data was written by a
	// newer schema version than this build understands.
	ErrUnsupportedSchema = errors.New("unsupported storage schema version")
)
