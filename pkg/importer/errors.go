package importer

import (
	"errors"
	"fmt"
)

// Common errors returned by the importer package.
var (
	// ErrMalformedJSON is returned when a line cannot be decoded.
	ErrMalformedJSON = errors.New("malformed JSON line")

	// ErrMissingID is returned when a record has no id.
	ErrMissingID = errors.New("record id must not be empty")

	// ErrMissingStart is returned when a record has no start time.
	ErrMissingStart = errors.New("record start time must not be zero")

	// ErrEndBeforeStart is returned when a record ends at or before its start.
	ErrEndBeforeStart = errors.New("record must end after it starts")

	// ErrUnknownProtocol is returned when a record's protocol cannot be
	// resolved and carries no hours.
	ErrUnknownProtocol = errors.New("unknown protocol")

	// ErrFileTooLarge is returned when a file exceeds MaxFileSize.
	ErrFileTooLarge = errors.New("file size exceeds maximum limit")

	// ErrUnknownFormat is returned for an unsupported export format.
	ErrUnknownFormat = errors.New("unknown export format")
)

// ParseError provides context about a rejected line.
type ParseError struct {
	Line int    // Line number where error occurred (1-indexed)
	Data string // The rejected line (truncated if too long)
	Err  error  // Underlying error
}

func (e *ParseError) Error() string {
	const maxLen = 100
	data := e.Data
	if len(data) > maxLen {
		data = data[:maxLen] + "..."
	}
	return fmt.Sprintf("line %d: %v: %s", e.Line, e.Err, data)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
