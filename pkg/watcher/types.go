// Package watcher reports changes to the session store made by other
// processes.
//
// It watches the directory that holds the store file, so atomic
// replace-by-rename is seen as well as in-place writes. Bursts of events
// are debounced into a single Event.
//
// Example usage:
//
//	w, err := watcher.New(watcher.Config{
//	    DebounceInterval: 200 * time.Millisecond,
//	}, logger.Default())
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
//
//	if err := w.Start(ctx, "~/.fastm8/sessions.db"); err != nil {
//	    return err
//	}
//
//	for range w.Events() {
//	    mgr.Reload(ctx)
//	}
package watcher

import (
	"context"
	"time"
)

// Op describes a file operation type.
type Op uint32

// File operation types.
const (
	OpCreate Op = 1 << iota // File created or renamed into place
	OpWrite                 // File modified
	OpRemove                // File deleted
	OpRename                // File renamed away
	OpChmod                 // File permissions changed
)

// String returns a human-readable operation name.
func (op Op) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpWrite:
		return "WRITE"
	case OpRemove:
		return "REMOVE"
	case OpRename:
		return "RENAME"
	case OpChmod:
		return "CHMOD"
	default:
		return "UNKNOWN"
	}
}

// Event reports that the watched file changed.
type Event struct {
	// Path is the file that triggered the event. It is the watched file or
	// one of its companions (e.g. a SQLite journal).
	Path string

	// Op is the last operation seen in the debounce window.
	Op Op

	// Timestamp is when the event was emitted.
	Timestamp time.Time
}

// Watcher monitors a single file.
type Watcher interface {
	// Start begins watching path and returns once the watch is in place.
	// Events stop when ctx is cancelled or Stop is called.
	Start(ctx context.Context, path string) error

	// Stop stops event processing.
	Stop() error

	// Events returns the channel of debounced change events.
	// At most one event is buffered; a pending event already signals that
	// the file must be re-read. The channel is closed by Close.
	Events() <-chan Event

	// Errors returns the channel for non-fatal watcher errors.
	// The channel is closed by Close.
	Errors() <-chan error

	// Close stops the watcher and releases resources.
	Close() error
}

// Config contains watcher configuration.
type Config struct {
	// DebounceInterval is the quiet period required before an event is
	// emitted. Default: 100ms.
	DebounceInterval time.Duration

	// CircuitBreakerThreshold is the number of consecutive fsnotify errors
	// after which ErrCircuitBreakerOpen is reported instead of the error.
	// Default: 5.
	CircuitBreakerThreshold int
}
