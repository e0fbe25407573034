// Package clock provides the time and identity collaborators of the
// fasting engine.
//
// The session manager never reads the system clock directly; it is handed
// a Clock so that tests can pin "now".
package clock

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Clock abstracts the current time.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock, normalised to UTC.
type System struct{}

// Now implements Clock.
func (System) Now() time.Time {
	return time.Now().UTC()
}

// Manual is a settable clock for tests and replays.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual returns a manual clock positioned at t.
func NewManual(t time.Time) *Manual {
	return &Manual{now: t.UTC()}
}

// Now implements Clock.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set moves the clock to t.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t.UTC()
}

// Advance moves the clock forward by d and returns the new time.
func (m *Manual) Advance(d time.Duration) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
	return m.now
}

// IDGenerator creates opaque unique session identifiers.
type IDGenerator interface {
	NewID() string
}

// UUID generates random (version 4) UUIDs.
type UUID struct{}

// NewID implements IDGenerator.
func (UUID) NewID() string {
	return uuid.NewString()
}

// Sequence generates predictable identifiers ("<prefix>-1", "<prefix>-2", ...).
type Sequence struct {
	Prefix string

	mu   sync.Mutex
	next int
}

// NewID implements IDGenerator.
func (s *Sequence) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	prefix := s.Prefix
	if prefix == "" {
		prefix = "session"
	}
	return fmt.Sprintf("%s-%d", prefix, s.next)
}
