package app

import "github.com/0xmhha/fastm8/pkg/apperr"

var (
	// ErrNoActiveFast is returned when ending "the" fast while none is in progress.
	ErrNoActiveFast = apperr.New(apperr.KindState, "no fast in progress")

	// ErrNilConfig is returned when New is called without a configuration.
	ErrNilConfig = apperr.New(apperr.KindValidation, "configuration is required")
)
