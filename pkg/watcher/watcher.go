package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/0xmhha/fastm8/pkg/logger"
)

// watcher implements the Watcher interface using fsnotify.
type watcher struct {
	fsw    *fsnotify.Watcher
	logger logger.Logger
	config Config

	events chan Event
	errors chan error

	mu       sync.RWMutex
	running  bool
	closed   bool
	stopChan chan struct{}

	target string

	// Debouncing state.
	debounceMu    sync.Mutex
	debounceTimer *time.Timer
	pending       Event

	failureCount int
}

// New creates a new file watcher.
func New(cfg Config, log logger.Logger) (Watcher, error) {
	if cfg.DebounceInterval == 0 {
		cfg.DebounceInterval = 100 * time.Millisecond
	}
	if cfg.CircuitBreakerThreshold == 0 {
		cfg.CircuitBreakerThreshold = 5
	}
	if log == nil {
		log = logger.Noop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &watcher{
		fsw:      fsw,
		logger:   log.With("component", "watcher"),
		config:   cfg,
		events:   make(chan Event, 1),
		errors:   make(chan error, 10),
		stopChan: make(chan struct{}),
	}

	w.logger.Debug("file watcher created", "debounce_interval", cfg.DebounceInterval)
	return w, nil
}

// Start implements Watcher.Start.
func (w *watcher) Start(ctx context.Context, path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if w.running {
		return ErrAlreadyStarted
	}

	target, err := filepath.Abs(expandHome(path))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}

	dir := filepath.Dir(target)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrInvalidPath, dir)
	}

	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w.target = target
	w.running = true
	w.stopChan = make(chan struct{})

	w.logger.Info("watcher started", "path", target)

	go w.processEvents(ctx, w.stopChan)
	return nil
}

// Stop implements Watcher.Stop.
func (w *watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if !w.running {
		return ErrNotStarted
	}

	close(w.stopChan)
	w.running = false
	_ = w.fsw.Remove(filepath.Dir(w.target))

	w.logger.Info("watcher stopped")
	return nil
}

// Events implements Watcher.Events.
func (w *watcher) Events() <-chan Event {
	return w.events
}

// Errors implements Watcher.Errors.
func (w *watcher) Errors() <-chan error {
	return w.errors
}

// Close implements Watcher.Close.
func (w *watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if w.running {
		close(w.stopChan)
		w.running = false
	}

	w.debounceMu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
	w.debounceMu.Unlock()

	close(w.events)
	close(w.errors)

	if err := w.fsw.Close(); err != nil {
		w.logger.Error("failed to close fsnotify watcher", "error", err)
		return fmt.Errorf("failed to close watcher: %w", err)
	}

	w.logger.Debug("watcher closed")
	return nil
}

// processEvents handles events from fsnotify until stopped.
func (w *watcher) processEvents(ctx context.Context, stop <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("event processing stopped", "reason", "context cancelled")
			return

		case <-stop:
			w.logger.Debug("event processing stopped", "reason", "stop signal")
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.handleError(err)
		}
	}
}

// handleEvent filters an fsnotify event down to the watched file and
// debounces it.
func (w *watcher) handleEvent(event fsnotify.Event) {
	if !w.matches(event.Name) {
		return
	}

	var op Op
	switch {
	case event.Op&fsnotify.Create == fsnotify.Create:
		op = OpCreate
	case event.Op&fsnotify.Write == fsnotify.Write:
		op = OpWrite
	case event.Op&fsnotify.Remove == fsnotify.Remove:
		op = OpRemove
	case event.Op&fsnotify.Rename == fsnotify.Rename:
		op = OpRename
	case event.Op&fsnotify.Chmod == fsnotify.Chmod:
		// Permission changes never alter the log.
		return
	default:
		w.logger.Debug("unknown fsnotify operation", "op", event.Op, "path", event.Name)
		return
	}

	w.mu.Lock()
	w.failureCount = 0
	w.mu.Unlock()

	w.debounceEvent(Event{Path: event.Name, Op: op})
}

// matches reports whether name is the watched file or a companion of it
// such as "sessions.sqlite-wal". Hidden temp files are ignored.
func (w *watcher) matches(name string) bool {
	w.mu.RLock()
	target := w.target
	w.mu.RUnlock()

	if filepath.Dir(name) != filepath.Dir(target) {
		return false
	}
	base, want := filepath.Base(name), filepath.Base(target)
	return base == want || strings.HasPrefix(base, want+"-")
}

// debounceEvent restarts the quiet period; only the last event of a burst
// is emitted.
func (w *watcher) debounceEvent(event Event) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	w.pending = event
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.config.DebounceInterval, w.emit)
}

// emit delivers the pending event without blocking.
func (w *watcher) emit() {
	w.debounceMu.Lock()
	event := w.pending
	w.debounceTimer = nil
	w.debounceMu.Unlock()

	event.Timestamp = time.Now()

	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return
	}

	select {
	case w.events <- event:
		w.logger.Debug("store changed", "path", event.Path, "op", event.Op.String())
	default:
	}
}

// handleError reports fsnotify errors, opening the circuit breaker after
// too many in a row.
func (w *watcher) handleError(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	w.failureCount++
	w.logger.Error("fsnotify error", "error", err, "failure_count", w.failureCount)

	if w.failureCount >= w.config.CircuitBreakerThreshold {
		err = ErrCircuitBreakerOpen
	}

	select {
	case w.errors <- err:
	default:
		w.logger.Warn("error channel full, dropping error")
	}
}

// expandHome expands a leading ~ to the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return homeDir
	}

	return filepath.Join(homeDir, path[2:])
}
