// Package monitor drives the live fasting view.
//
// A LiveMonitor owns one goroutine that recomputes the window state on every
// tick, reloads the session log when the watcher reports that another
// process changed the store, and passes each state to an Observer (the
// notification dispatcher). Because every call into the session manager
// happens on that goroutine, the manager's single-writer contract holds.
package monitor

import (
	"context"
	"time"

	"github.com/0xmhha/fastm8/pkg/session"
	"github.com/0xmhha/fastm8/pkg/window"
)

// Config holds the configuration for the live monitor.
type Config struct {
	// RefreshInterval is the interval between state updates.
	// Default: 1s.
	RefreshInterval time.Duration

	// StorePath is the file handed to the watcher. Empty disables
	// reloading on external changes.
	StorePath string

	// HistoryLimit is the number of most recent sessions attached to each
	// update. Zero attaches none.
	HistoryLimit int
}

// Source supplies fasting state. *app.App satisfies it.
type Source interface {
	// Now returns the current time from the source's clock.
	Now() time.Time

	// Reload re-reads the session log from persistence.
	Reload(ctx context.Context) error

	// State computes the window state at now.
	State(now time.Time) window.State

	// Sessions returns the session log, oldest first.
	Sessions() []session.Session
}

// Observer receives every computed state. *notify.Dispatcher satisfies it.
type Observer interface {
	Observe(ctx context.Context, st window.State, at time.Time) (bool, error)
}

// LiveMonitor provides real-time fasting state updates.
type LiveMonitor interface {
	// Start launches the monitor loop and returns immediately. The first
	// update is computed right away.
	Start(ctx context.Context) error

	// Stop stops the loop and waits for it to exit.
	Stop() error

	// Updates returns the channel of state updates. It is closed by Close.
	Updates() <-chan Update

	// Current returns the most recent update.
	Current() Update

	// Close stops the monitor and releases its watcher.
	Close() error
}

// Update represents a live monitoring update event.
type Update struct {
	// Timestamp is the instant the state was computed for.
	Timestamp time.Time

	// State is the window state at Timestamp.
	State window.State

	// Reloaded is set when the log was re-read before this update.
	Reloaded bool

	// Notified is set when the observer delivered a notification.
	Notified bool

	// History holds the most recent sessions, oldest first, when
	// Config.HistoryLimit is set. Readers must use it rather than query
	// the source themselves.
	History []session.Session
}
