package protocol

import "github.com/0xmhha/fastm8/pkg/apperr"

// Errors returned by the protocol package.
var (
	// ErrEmptyID is returned when a protocol has no identifier.
	ErrEmptyID = apperr.New(apperr.KindValidation, "protocol id cannot be empty")

	// ErrDuplicateProtocol is returned when the identifier is already registered.
	ErrDuplicateProtocol = apperr.New(apperr.KindValidation, "protocol already registered")

	// ErrHoursOutOfRange is returned when hours are negative, above 24 or not finite.
	ErrHoursOutOfRange = apperr.New(apperr.KindValidation, "protocol hours must be between 0 and 24")

	// ErrHoursSum is returned when a standard protocol does not add up to 24 hours.
	ErrHoursSum = apperr.New(apperr.KindValidation, "standard protocol hours must add up to 24")

	// ErrInvalidNotation is returned when a "F:E" string cannot be parsed.
	ErrInvalidNotation = apperr.New(apperr.KindValidation, "protocol must look like FASTING:EATING")

	// ErrProtocolNotFound is returned when resolving an unknown identifier.
	ErrProtocolNotFound = apperr.New(apperr.KindNotFound, "protocol not found")
)
