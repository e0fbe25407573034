// Package session provides the fasting session log and the state machine
// that governs it.
//
// A Session is one fasting attempt: it starts when the user stops eating and
// ends when they break the fast. The Manager is the only writer of the Log
// and enforces the rules that keep it consistent:
//
//   - an ended session always ends after it started
//   - at most one session is in progress at any time
//   - every change is persisted, or rolled back if persisting fails
//
// Example usage:
//
//	mgr, err := session.NewManager(ctx, session.Config{
//	    Catalog:   protocol.NewStandardCatalog(),
//	    Persister: store,
//	    Clock:     clock.System{},
//	}, logger.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fast, err := mgr.Start(ctx, session.StartRequest{ProtocolID: "16:8"})
//	...
//	fast, err = mgr.End(ctx, session.EndRequest{ID: fast.ID})
package session

import (
	"context"
	"time"

	"github.com/0xmhha/fastm8/pkg/clock"
	"github.com/0xmhha/fastm8/pkg/protocol"
)

// Session is a single fasting attempt.
type Session struct {
	// ID is the opaque unique session identifier.
	ID string `json:"id" yaml:"id"`

	// Protocol is a snapshot of the protocol at creation time.
	Protocol protocol.Protocol `json:"protocol" yaml:"protocol"`

	// Start is when the fast began.
	Start time.Time `json:"start" yaml:"start"`

	// End is when the fast was broken; nil while in progress.
	End *time.Time `json:"end,omitempty" yaml:"end,omitempty"`

	// CreatedAt is when the session was recorded.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	// UpdatedAt is the last modification time.
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`

	// Version increases on every change and guards concurrent edits.
	Version int64 `json:"version" yaml:"version"`
}

// Active reports whether the session is still in progress.
func (s Session) Active() bool {
	return s.End == nil
}

// Duration returns how long the fast lasted, or has lasted so far at now.
// A start in the future yields zero.
func (s Session) Duration(now time.Time) time.Duration {
	end := now
	if s.End != nil {
		end = *s.End
	}
	if d := end.Sub(s.Start); d > 0 {
		return d
	}
	return 0
}

// Clone returns a deep copy of s.
func (s Session) Clone() Session {
	if s.End != nil {
		end := *s.End
		s.End = &end
	}
	return s
}

// validate checks the ordering invariant.
func (s Session) validate() error {
	if s.Start.IsZero() {
		return ErrMissingStart
	}
	if s.End != nil && !s.End.After(s.Start) {
		return ErrNonPositiveDuration.Wrapf("start %s, end %s",
			s.Start.Format(time.RFC3339), s.End.Format(time.RFC3339))
	}
	return nil
}

// StartRequest describes a new fast.
type StartRequest struct {
	// ProtocolID selects the protocol from the catalog.
	ProtocolID string

	// At is the start time; zero means now.
	At time.Time
}

// EndRequest describes breaking a fast.
type EndRequest struct {
	// ID is the session to end.
	ID string

	// At is the end time; zero means now.
	At time.Time

	// ExpectedVersion, when non-zero, must match the stored version.
	ExpectedVersion int64
}

// Patch is a manual correction of a session's timestamps.
type Patch struct {
	// Start replaces the start time when set.
	Start *time.Time

	// End replaces the end time when set.
	End *time.Time

	// Reopen clears the end time, making the session active again.
	// It cannot be combined with End.
	Reopen bool

	// ExpectedVersion, when non-zero, must match the stored version.
	ExpectedVersion int64
}

// empty reports whether the patch changes nothing.
func (p Patch) empty() bool {
	return p.Start == nil && p.End == nil && !p.Reopen
}

// Persister is the persistence collaborator.
//
// Load returns the full log; Save replaces it. Implementations live in
// package store.
type Persister interface {
	Load(ctx context.Context) ([]Session, error)
	Save(ctx context.Context, sessions []Session) error
}

// Config contains session manager configuration.
type Config struct {
	// Catalog resolves protocols for new sessions. Required.
	Catalog *protocol.Catalog

	// Persister stores the log. Nil keeps the log in memory only.
	Persister Persister

	// Clock supplies "now" (default: clock.System).
	Clock clock.Clock

	// IDs generates session identifiers (default: clock.UUID).
	IDs clock.IDGenerator
}
