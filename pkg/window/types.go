// Package window computes where a fast currently stands.
//
// Compute is a pure function of (now, session, protocol): it never reads the
// clock and keeps no state, so it is safe to call at any cadence, e.g. once
// per tick of a live display. A fast moves through two windows:
//
//	start ──── fasting window ────▶ FastingEnds ──── eating window ────▶ EatingEnds
//
// Once the eating window has passed the state stays Eating with no remaining
// time; nothing closes a fast automatically.
//
// Example usage:
//
//	state := window.ForSession(clk.Now(), active)
//	fmt.Printf("%s %.0f%%\n", state.Phase, state.Percent*100)
package window

import (
	"time"

	"github.com/0xmhha/fastm8/pkg/session"
)

// Phase is the position of a fast relative to its protocol.
type Phase int

// Phases.
const (
	// Idle means there is no session.
	Idle Phase = iota

	// Fasting means the fasting target has not been reached yet.
	Fasting

	// Eating means the fasting target was reached.
	Eating
)

// String returns the lower-case phase name.
func (p Phase) String() string {
	switch p {
	case Fasting:
		return "fasting"
	case Eating:
		return "eating"
	default:
		return "idle"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// State is the derived view of a session at a given instant.
//
// It is never persisted and must be recomputed whenever "now" changes.
type State struct {
	// Phase is the current phase.
	Phase Phase

	// Elapsed is the time spent in the current phase. For a closed
	// session it is the length of the whole fast.
	Elapsed time.Duration

	// Remaining is the time until the next transition; nil when there is
	// none (idle, closed, or past the eating window).
	Remaining *time.Duration

	// Percent is the progress through the current phase in [0, 1].
	Percent float64

	// Session is a copy of the session the state was computed for.
	Session *session.Session

	// Completed is set for sessions that have ended.
	Completed bool

	// TargetMet is set once the fast lasted at least its fasting hours.
	TargetMet bool

	// FastingEnds is when the fasting target is reached.
	FastingEnds time.Time

	// EatingEnds is when the eating window closes.
	EatingEnds time.Time
}

// SessionID returns the session ID, or "" when idle.
func (s State) SessionID() string {
	if s.Session == nil {
		return ""
	}
	return s.Session.ID
}

// Active reports whether the state belongs to a fast in progress.
func (s State) Active() bool {
	return s.Session != nil && !s.Completed
}

// Overrun reports whether an open fast has passed its eating window.
func (s State) Overrun() bool {
	return s.Active() && s.Phase == Eating && s.Remaining == nil
}
