// Package store provides the persistence backends of the session log.
//
// Every backend implements session.Persister: Load returns the whole log and
// Save replaces it. Timestamps round-trip exactly, including a missing end
// time for the fast in progress.
//
// Available backends:
//
//   - bolt: embedded key-value file (go.etcd.io/bbolt), the default
//   - sqlite: single-table SQLite database (modernc.org/sqlite)
//   - file: human-editable YAML document
//   - memory: volatile, for tests
//
// Example usage:
//
//	st, err := store.Open(store.Config{
//	    Backend: store.BackendBolt,
//	    Path:    "~/.fastm8/sessions.db",
//	}, log)
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
package store

import (
	"time"

	"github.com/0xmhha/fastm8/pkg/session"
)

// Backend names.
const (
	BackendBolt   = "bolt"
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// SchemaVersion is the layout version written by this build.
const SchemaVersion = 1

// Store is a session.Persister with a lifecycle.
type Store interface {
	session.Persister

	// Backend returns the backend name.
	Backend() string

	// Path returns the file the store writes, or "" for memory.
	Path() string

	// Close releases resources held by the store.
	Close() error
}

// Config contains store configuration.
type Config struct {
	// Backend selects the implementation (bolt, sqlite, file, memory).
	Backend string

	// Path is the database or document path. "~" is expanded.
	Path string

	// Timeout bounds how long to wait for a lock held by another
	// process (default: 1s). Only used by bolt.
	Timeout time.Duration
}

// Backends returns every supported backend name.
func Backends() []string {
	return []string{BackendBolt, BackendSQLite, BackendFile, BackendMemory}
}
