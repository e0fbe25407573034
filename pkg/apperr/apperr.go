// Package apperr defines the error taxonomy shared by the fasting engine.
//
// Every failure returned by the core carries a Kind so callers can decide
// how to surface it without string matching:
//
//   - validation, not_found, conflict and state errors are user-facing
//   - consistency and persistence errors signal bugs or broken collaborators
//     and should be logged
//
// Example usage:
//
//	_, err := mgr.End(ctx, session.EndRequest{ID: id})
//	switch {
//	case errors.Is(err, apperr.ErrState):
//	    fmt.Println("that fast has already ended")
//	case apperr.KindOf(err) == apperr.KindPersistence:
//	    log.Error("save failed", apperr.LogFields(err)...)
//	}
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error.
type Kind string

// Error kinds.
const (
	KindValidation  Kind = "validation"
	KindNotFound    Kind = "not_found"
	KindConflict    Kind = "conflict"
	KindState       Kind = "state"
	KindConsistency Kind = "consistency"
	KindPersistence Kind = "persistence"
)

// Kind sentinels. errors.Is(err, ErrConflict) reports whether err is a
// conflict error, regardless of its message.
var (
	ErrValidation  = &Error{Kind: KindValidation}
	ErrNotFound    = &Error{Kind: KindNotFound}
	ErrConflict    = &Error{Kind: KindConflict}
	ErrState       = &Error{Kind: KindState}
	ErrConsistency = &Error{Kind: KindConsistency}
	ErrPersistence = &Error{Kind: KindPersistence}
)

// Error is a classified error with optional operation and cause.
type Error struct {
	// Kind is the error class.
	Kind Kind

	// Op names the operation that failed (e.g. "session.End").
	Op string

	// Message is a short human readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches targets of the same kind. A target without a message matches
// any error of its kind; otherwise the messages must be equal too.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Message == "" || t.Message == e.Message
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap classifies err under kind, recording the failing operation.
//
// An unqualified *Error of the same kind is re-tagged rather than nested,
// so package sentinels still match by message after wrapping.
func Wrap(err error, kind Kind, op string) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok && e.Kind == kind && e.Op == "" {
		return &Error{Kind: kind, Op: op, Message: e.Message, Err: e.Err}
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Wrapf returns a copy of e with a formatted cause attached.
func (e *Error) Wrapf(format string, args ...interface{}) *Error {
	c := *e
	c.Err = fmt.Errorf(format, args...)
	return &c
}

// WithOp returns a copy of e tagged with op.
func (e *Error) WithOp(op string) *Error {
	c := *e
	c.Op = op
	return &c
}

// KindOf returns the kind of the first *Error in err's chain, or an empty
// Kind when err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsUserFacing reports whether err should be shown to the user as-is.
func IsUserFacing(err error) bool {
	switch KindOf(err) {
	case KindValidation, KindNotFound, KindConflict, KindState:
		return true
	default:
		return false
	}
}

// LogFields returns structured logging key-value pairs describing err.
func LogFields(err error) []interface{} {
	if err == nil {
		return nil
	}
	fields := []interface{}{"error", err.Error()}
	var e *Error
	if errors.As(err, &e) {
		fields = append(fields, "error_kind", string(e.Kind))
		if e.Op != "" {
			fields = append(fields, "op", e.Op)
		}
		if e.Err != nil {
			fields = append(fields, "cause", e.Err.Error())
		}
	}
	return fields
}
