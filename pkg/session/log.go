package session

import (
	"sort"
)

// Log is the in-memory session log, keyed by ID.
//
// All reads return copies, so callers cannot mutate stored sessions.
// A Log is not safe for concurrent use.
type Log struct {
	sessions map[string]Session
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{sessions: make(map[string]Session)}
}

// Append adds s to the log.
//
// Returns ErrEmptyID or ErrDuplicateID. Ordering and the single-active rule
// are the Manager's concern, not the log's.
func (l *Log) Append(s Session) error {
	if s.ID == "" {
		return ErrEmptyID
	}
	if _, exists := l.sessions[s.ID]; exists {
		return ErrDuplicateID.Wrapf("%q", s.ID)
	}
	l.sessions[s.ID] = s.Clone()
	return nil
}

// Get returns a copy of the session with the given id.
func (l *Log) Get(id string) (Session, error) {
	s, ok := l.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound.Wrapf("%q", id)
	}
	return s.Clone(), nil
}

// Update applies fn to a copy of the session and stores the result.
//
// If fn returns an error the stored session is left untouched. The ID
// cannot be changed through Update.
func (l *Log) Update(id string, fn func(*Session) error) error {
	current, ok := l.sessions[id]
	if !ok {
		return ErrSessionNotFound.Wrapf("%q", id)
	}

	next := current.Clone()
	if err := fn(&next); err != nil {
		return err
	}
	next.ID = id
	l.sessions[id] = next
	return nil
}

// Remove deletes the session with the given id.
func (l *Log) Remove(id string) error {
	if _, ok := l.sessions[id]; !ok {
		return ErrSessionNotFound.Wrapf("%q", id)
	}
	delete(l.sessions, id)
	return nil
}

// All returns every session ordered by start time ascending.
// Ties are broken by creation time, then ID.
func (l *Log) All() []Session {
	out := make([]Session, 0, len(l.sessions))
	for _, s := range l.sessions {
		out = append(out, s.Clone())
	}
	sortSessions(out)
	return out
}

// Active returns the session in progress, or nil when there is none.
//
// More than one active session means the log was corrupted outside the
// Manager; ErrMultipleActive is returned in that case.
func (l *Log) Active() (*Session, error) {
	var active *Session
	for _, s := range l.sessions {
		if !s.Active() {
			continue
		}
		if active != nil {
			return nil, ErrMultipleActive.Wrapf("%q and %q", active.ID, s.ID)
		}
		c := s.Clone()
		active = &c
	}
	return active, nil
}

// Len returns the number of sessions.
func (l *Log) Len() int {
	return len(l.sessions)
}

// Snapshot returns an opaque copy of the log for Restore.
func (l *Log) Snapshot() map[string]Session {
	snap := make(map[string]Session, len(l.sessions))
	for id, s := range l.sessions {
		snap[id] = s.Clone()
	}
	return snap
}

// Restore resets the log to a snapshot taken earlier.
func (l *Log) Restore(snap map[string]Session) {
	l.sessions = make(map[string]Session, len(snap))
	for id, s := range snap {
		l.sessions[id] = s.Clone()
	}
}

// Replace swaps the whole content of the log.
//
// It fails without changing the log if any ID is empty or duplicated.
func (l *Log) Replace(sessions []Session) error {
	next := NewLog()
	for _, s := range sessions {
		if err := next.Append(s); err != nil {
			return err
		}
	}
	l.sessions = next.sessions
	return nil
}

func sortSessions(sessions []Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		a, b := sessions[i], sessions[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
