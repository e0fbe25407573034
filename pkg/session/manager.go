package session

import (
	"context"
	"errors"
	"time"

	"github.com/0xmhha/fastm8/pkg/apperr"
	"github.com/0xmhha/fastm8/pkg/clock"
	"github.com/0xmhha/fastm8/pkg/logger"
	"github.com/0xmhha/fastm8/pkg/protocol"
)

// Manager is the state machine that owns the session log.
//
// Each logical slot moves NoActiveSession -> FastingInProgress (Start) ->
// Completed (End); only one slot may be in progress. Every mutating call
// either applies completely, including persistence, or leaves the log as
// it was.
//
// A Manager assumes a single logical writer and is not safe for concurrent
// use. Processes sharing a store coordinate through Session.Version.
type Manager struct {
	log       *Log
	catalog   *protocol.Catalog
	persister Persister
	clock     clock.Clock
	ids       clock.IDGenerator
	logger    logger.Logger
}

// NewManager creates a manager and loads the log from cfg.Persister.
//
// Returns:
//   - ErrNoCatalog when cfg.Catalog is nil
//   - a persistence error when the log cannot be loaded
//   - a consistency error when the stored log breaks an invariant
func NewManager(ctx context.Context, cfg Config, log logger.Logger) (*Manager, error) {
	if cfg.Catalog == nil {
		return nil, ErrNoCatalog
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.System{}
	}
	if cfg.IDs == nil {
		cfg.IDs = clock.UUID{}
	}
	if log == nil {
		log = logger.Noop()
	}

	m := &Manager{
		log:       NewLog(),
		catalog:   cfg.Catalog,
		persister: cfg.Persister,
		clock:     cfg.Clock,
		ids:       cfg.IDs,
		logger:    log.With("component", "session"),
	}

	if err := m.Reload(ctx); err != nil {
		return nil, err
	}

	m.logger.Info("session manager initialized", "sessions", m.log.Len())
	return m, nil
}

// Reload replaces the in-memory log with the persisted one.
//
// The stored log is validated before it is adopted; on any failure the
// current log is kept.
func (m *Manager) Reload(ctx context.Context) error {
	const op = "session.Reload"
	if m.persister == nil {
		return nil
	}

	sessions, err := m.persister.Load(ctx)
	if err != nil {
		return apperr.Wrap(err, apperr.KindPersistence, op)
	}

	next := NewLog()
	if err := next.Replace(sessions); err != nil {
		return apperr.Wrap(err, apperr.KindConsistency, op)
	}
	for _, s := range sessions {
		if err := s.Protocol.Validate(); err != nil {
			return apperr.Wrap(err, apperr.KindConsistency, op)
		}
		if err := s.validate(); err != nil {
			return apperr.Wrap(err, apperr.KindConsistency, op)
		}
	}
	if _, err := next.Active(); err != nil {
		return withOp(op, err)
	}

	m.log = next
	m.logger.Debug("session log loaded", "sessions", next.Len())
	return nil
}

// Start begins a new fast.
//
// Returns ErrActiveSessionExists when a fast is already in progress and
// protocol.ErrProtocolNotFound for an unknown protocol.
func (m *Manager) Start(ctx context.Context, req StartRequest) (Session, error) {
	const op = "session.Start"

	p, err := m.catalog.Resolve(req.ProtocolID)
	if err != nil {
		return Session{}, withOp(op, err)
	}

	active, err := m.log.Active()
	if err != nil {
		return Session{}, withOp(op, err)
	}
	if active != nil {
		return Session{}, ErrActiveSessionExists.Wrapf("session %s started %s",
			active.ID, active.Start.Format(time.RFC3339)).WithOp(op)
	}

	now := m.clock.Now().UTC()
	start := req.At
	if start.IsZero() {
		start = now
	}

	s := Session{
		ID:        m.ids.NewID(),
		Protocol:  p,
		Start:     start.UTC(),
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
	if err := s.validate(); err != nil {
		return Session{}, withOp(op, err)
	}

	if err := m.commit(ctx, op, func() error {
		return m.log.Append(s)
	}); err != nil {
		return Session{}, err
	}

	m.logger.Info("fast started",
		"session_id", s.ID,
		"protocol", p.ID,
		"start", s.Start)

	return s.Clone(), nil
}

// End breaks the fast identified by req.ID.
//
// Returns ErrSessionNotFound, ErrVersionMismatch, ErrAlreadyEnded, or
// ErrNonPositiveDuration when the end is not after the start.
func (m *Manager) End(ctx context.Context, req EndRequest) (Session, error) {
	const op = "session.End"

	current, err := m.log.Get(req.ID)
	if err != nil {
		return Session{}, withOp(op, err)
	}
	if err := checkVersion(current, req.ExpectedVersion); err != nil {
		return Session{}, withOp(op, err)
	}
	if !current.Active() {
		return Session{}, ErrAlreadyEnded.Wrapf("session %s ended %s",
			current.ID, current.End.Format(time.RFC3339)).WithOp(op)
	}

	now := m.clock.Now().UTC()
	end := req.At
	if end.IsZero() {
		end = now
	}
	end = end.UTC()

	next := current.Clone()
	next.End = &end
	if err := next.validate(); err != nil {
		return Session{}, withOp(op, err)
	}
	next.UpdatedAt = now
	next.Version++

	if err := m.commit(ctx, op, func() error {
		return m.log.Update(req.ID, func(s *Session) error {
			*s = next
			return nil
		})
	}); err != nil {
		return Session{}, err
	}

	m.logger.Info("fast ended",
		"session_id", next.ID,
		"duration", next.Duration(end).String(),
		"target_met", next.Duration(end) >= next.Protocol.FastingDuration())

	return next.Clone(), nil
}

// Update applies a manual correction to a session's timestamps.
//
// The patched session must still end after it starts (validation error)
// and must not become a second session in progress (ErrActiveSessionExists).
// Nothing changes when validation fails.
func (m *Manager) Update(ctx context.Context, id string, patch Patch) (Session, error) {
	const op = "session.Update"

	if patch.empty() {
		return Session{}, ErrInvalidPatch.Wrapf("nothing to change").WithOp(op)
	}
	if patch.Reopen && patch.End != nil {
		return Session{}, ErrInvalidPatch.Wrapf("cannot both reopen and set an end time").WithOp(op)
	}

	current, err := m.log.Get(id)
	if err != nil {
		return Session{}, withOp(op, err)
	}
	if err := checkVersion(current, patch.ExpectedVersion); err != nil {
		return Session{}, withOp(op, err)
	}

	next := current.Clone()
	if patch.Start != nil {
		next.Start = patch.Start.UTC()
	}
	if patch.End != nil {
		end := patch.End.UTC()
		next.End = &end
	}
	if patch.Reopen {
		next.End = nil
	}
	if err := next.validate(); err != nil {
		return Session{}, withOp(op, err)
	}

	if next.Active() {
		active, err := m.log.Active()
		if err != nil {
			return Session{}, withOp(op, err)
		}
		if active != nil && active.ID != id {
			return Session{}, ErrActiveSessionExists.Wrapf("session %s is in progress", active.ID).WithOp(op)
		}
	}

	next.UpdatedAt = m.clock.Now().UTC()
	next.Version++

	if err := m.commit(ctx, op, func() error {
		return m.log.Update(id, func(s *Session) error {
			*s = next
			return nil
		})
	}); err != nil {
		return Session{}, err
	}

	m.logger.Info("session updated",
		"session_id", id,
		"version", next.Version)

	return next.Clone(), nil
}

// Delete removes a session unconditionally.
func (m *Manager) Delete(ctx context.Context, id string) error {
	const op = "session.Delete"

	if _, err := m.log.Get(id); err != nil {
		return withOp(op, err)
	}

	if err := m.commit(ctx, op, func() error {
		return m.log.Remove(id)
	}); err != nil {
		return err
	}

	m.logger.Info("session deleted", "session_id", id)
	return nil
}

// Import merges sessions obtained elsewhere (a sync backend, an export
// file) into the log.
//
// The batch is all-or-nothing. Each session must be valid, carry a new ID,
// and the resulting log must still have at most one session in progress.
// Missing audit fields are filled in. Returns the number of sessions added.
func (m *Manager) Import(ctx context.Context, sessions []Session) (int, error) {
	const op = "session.Import"
	if len(sessions) == 0 {
		return 0, nil
	}

	now := m.clock.Now().UTC()
	active, err := m.log.Active()
	if err != nil {
		return 0, withOp(op, err)
	}

	prepared := make([]Session, 0, len(sessions))
	for _, in := range sessions {
		s := normalize(in.Clone(), now)
		if err := s.Protocol.Validate(); err != nil {
			return 0, withOp(op, err)
		}
		if err := s.validate(); err != nil {
			return 0, withOp(op, err)
		}
		if s.Active() {
			if active != nil {
				return 0, ErrActiveSessionExists.Wrapf("importing %s while %s is in progress",
					s.ID, active.ID).WithOp(op)
			}
			c := s
			active = &c
		}
		prepared = append(prepared, s)
	}

	if err := m.commit(ctx, op, func() error {
		for _, s := range prepared {
			if err := m.log.Append(s); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return 0, err
	}

	m.logger.Info("sessions imported", "count", len(prepared))
	return len(prepared), nil
}

// Get returns a copy of the session with the given id.
func (m *Manager) Get(id string) (Session, error) {
	return m.log.Get(id)
}

// Sessions returns every session ordered by start time.
func (m *Manager) Sessions() []Session {
	return m.log.All()
}

// Active returns the session in progress, or nil.
func (m *Manager) Active() (*Session, error) {
	return m.log.Active()
}

// Last returns the most recently started session, or nil for an empty log.
func (m *Manager) Last() *Session {
	all := m.log.All()
	if len(all) == 0 {
		return nil
	}
	last := all[len(all)-1]
	return &last
}

// Protocols returns the catalog the manager resolves against.
func (m *Manager) Protocols() *protocol.Catalog {
	return m.catalog
}

// Now returns the manager's current time.
func (m *Manager) Now() time.Time {
	return m.clock.Now()
}

// commit runs mutate and persists the result.
//
// On any failure the log is restored to its state before mutate ran.
func (m *Manager) commit(ctx context.Context, op string, mutate func() error) error {
	snapshot := m.log.Snapshot()

	if err := mutate(); err != nil {
		m.log.Restore(snapshot)
		return withOp(op, err)
	}

	if m.persister == nil {
		return nil
	}

	if err := m.persister.Save(ctx, m.log.All()); err != nil {
		m.log.Restore(snapshot)
		wrapped := apperr.Wrap(err, apperr.KindPersistence, op)
		logger.Err(m.logger, "failed to persist session log", wrapped)
		return wrapped
	}

	return nil
}

// checkVersion enforces optimistic concurrency when expected is set.
func checkVersion(s Session, expected int64) error {
	if expected != 0 && expected != s.Version {
		return ErrVersionMismatch.Wrapf("session %s is at version %d, expected %d",
			s.ID, s.Version, expected)
	}
	return nil
}

// normalize fills audit fields and moves timestamps to UTC.
func normalize(s Session, now time.Time) Session {
	s.Start = s.Start.UTC()
	if s.End != nil {
		end := s.End.UTC()
		s.End = &end
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = s.CreatedAt
	}
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	if s.Version <= 0 {
		s.Version = 1
	}
	return s
}

// withOp tags classified errors with the failing operation.
func withOp(op string, err error) error {
	var e *apperr.Error
	if errors.As(err, &e) {
		return apperr.Wrap(err, e.Kind, op)
	}
	return err
}
