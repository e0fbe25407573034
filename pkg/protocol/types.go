// Package protocol provides the catalog of fasting protocols.
//
// A protocol splits the day into a fasting window and an eating window,
// e.g. "16:8" is sixteen hours of fasting followed by eight hours of eating.
// Standard protocols always add up to 24 hours; custom ones may not, but
// neither window can be negative or longer than a day.
//
// Example usage:
//
//	catalog := protocol.NewStandardCatalog()
//	if err := catalog.Register(protocol.Protocol{
//	    ID:           "15:9",
//	    FastingHours: 15,
//	    EatingHours:  9,
//	}); err != nil {
//	    log.Fatal(err)
//	}
//
//	p, err := catalog.Resolve("16:8")
package protocol

import (
	"math"
	"time"
)

// Default is the protocol used when nothing else is configured.
const Default = "16:8"

// Protocol is a named fasting/eating hour split.
//
// Protocols are values: sessions keep their own copy, so later catalog
// changes never alter history.
type Protocol struct {
	// ID is the unique protocol name (e.g. "16:8", "OMAD").
	ID string `json:"id" yaml:"id"`

	// FastingHours is the length of the fasting window.
	FastingHours float64 `json:"fasting_hours" yaml:"fasting_hours"`

	// EatingHours is the length of the eating window.
	EatingHours float64 `json:"eating_hours" yaml:"eating_hours"`

	// Custom relaxes the 24 hour sum rule.
	Custom bool `json:"custom,omitempty" yaml:"custom,omitempty"`
}

// FastingDuration returns the fasting window length.
func (p Protocol) FastingDuration() time.Duration {
	return hours(p.FastingHours)
}

// EatingDuration returns the eating window length.
func (p Protocol) EatingDuration() time.Duration {
	return hours(p.EatingHours)
}

// Validate checks the protocol invariants.
//
// Returns ErrEmptyID, ErrHoursOutOfRange or ErrHoursSum.
func (p Protocol) Validate() error {
	if p.ID == "" {
		return ErrEmptyID
	}
	if !validHours(p.FastingHours) {
		return ErrHoursOutOfRange.Wrapf("fasting hours %v", p.FastingHours)
	}
	if !validHours(p.EatingHours) {
		return ErrHoursOutOfRange.Wrapf("eating hours %v", p.EatingHours)
	}
	if !p.Custom && math.Abs(p.FastingHours+p.EatingHours-24) > sumTolerance {
		return ErrHoursSum.Wrapf("%v + %v", p.FastingHours, p.EatingHours)
	}
	return nil
}

// sumTolerance absorbs float noise in user supplied fractions like 15.5:8.5.
const sumTolerance = 1e-9

func validHours(h float64) bool {
	return !math.IsNaN(h) && !math.IsInf(h, 0) && h >= 0 && h <= 24
}

func hours(h float64) time.Duration {
	return time.Duration(math.Round(h * float64(time.Hour)))
}

// Standard returns the built-in protocols in display order.
func Standard() []Protocol {
	return []Protocol{
		{ID: "12:12", FastingHours: 12, EatingHours: 12},
		{ID: "14:10", FastingHours: 14, EatingHours: 10},
		{ID: "16:8", FastingHours: 16, EatingHours: 8},
		{ID: "18:6", FastingHours: 18, EatingHours: 6},
		{ID: "20:4", FastingHours: 20, EatingHours: 4},
		{ID: "OMAD", FastingHours: 23, EatingHours: 1},
	}
}
