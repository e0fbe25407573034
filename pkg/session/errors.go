package session

import "github.com/0xmhha/fastm8/pkg/apperr"

// Errors returned by the session package.
var (
	// ErrSessionNotFound is returned when a session ID is unknown.
	ErrSessionNotFound = apperr.New(apperr.KindNotFound, "session not found")

	// ErrEmptyID is returned when appending a session without an ID.
	ErrEmptyID = apperr.New(apperr.KindValidation, "session id cannot be empty")

	// ErrDuplicateID is returned when appending a session whose ID exists.
	ErrDuplicateID = apperr.New(apperr.KindConflict, "session id already exists")

	// ErrMissingStart is returned when a session has no start time.
	ErrMissingStart = apperr.New(apperr.KindValidation, "session start time is required")

	// ErrNonPositiveDuration is returned when a session would end at or before its start.
	ErrNonPositiveDuration = apperr.New(apperr.KindValidation, "session must end after it starts")

	// ErrInvalidPatch is returned for contradictory or empty patches.
	ErrInvalidPatch = apperr.New(apperr.KindValidation, "invalid session patch")

	// ErrActiveSessionExists is returned when a second session would be in progress.
	ErrActiveSessionExists = apperr.New(apperr.KindConflict, "a fast is already in progress")

	// ErrVersionMismatch is returned when an edit was based on a stale version.
	ErrVersionMismatch = apperr.New(apperr.KindConflict, "session was modified concurrently")

	// ErrAlreadyEnded is returned when ending a session that has already ended.
	ErrAlreadyEnded = apperr.New(apperr.KindState, "session has already ended")

	// ErrMultipleActive is returned when the log holds more than one active session.
	ErrMultipleActive = apperr.New(apperr.KindConsistency, "more than one session in progress")

	// ErrNoCatalog is returned when the manager is built without a protocol catalog.
	ErrNoCatalog = apperr.New(apperr.KindValidation, "protocol catalog is required")
)
