package store

import (
	"context"
	"sync"

	"github.com/0xmhha/fastm8/pkg/session"
)

// MemoryStore keeps the session log in memory.
// Useful for testing or when persistence is not needed.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions []session.Session
	saves    int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load implements session.Persister.
func (s *MemoryStore) Load(ctx context.Context) ([]session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.sessions), nil
}

// Save implements session.Persister.
func (s *MemoryStore) Save(ctx context.Context, sessions []session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = cloneAll(sessions)
	s.saves++
	return nil
}

// Saves returns how many times Save succeeded.
func (s *MemoryStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

// Backend implements Store.
func (s *MemoryStore) Backend() string {
	return BackendMemory
}

// Path implements Store.
func (s *MemoryStore) Path() string {
	return ""
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}

func cloneAll(sessions []session.Session) []session.Session {
	if sessions == nil {
		return nil
	}
	out := make([]session.Session, len(sessions))
	for i, sess := range sessions {
		out[i] = sess.Clone()
	}
	return out
}
