package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/0xmhha/fastm8/pkg/logger"
	"github.com/0xmhha/fastm8/pkg/session"
	"github.com/0xmhha/fastm8/pkg/watcher"
)

// liveMonitor implements the LiveMonitor interface.
type liveMonitor struct {
	config   Config
	logger   logger.Logger
	source   Source
	watcher  watcher.Watcher
	observer Observer

	mu       sync.RWMutex
	running  bool
	closed   bool
	stopChan chan struct{}
	done     chan struct{}

	last    Update
	updates chan Update
}

// New creates a new live monitor. The watcher and observer are optional.
func New(cfg Config, src Source, w watcher.Watcher, obs Observer, log logger.Logger) (LiveMonitor, error) {
	if src == nil {
		return nil, ErrNoSource
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = time.Second
	}
	if log == nil {
		log = logger.Noop()
	}

	m := &liveMonitor{
		config:   cfg,
		logger:   log.With("component", "monitor"),
		source:   src,
		watcher:  w,
		observer: obs,
		updates:  make(chan Update, 10),
	}

	m.logger.Debug("live monitor created",
		"refresh_interval", cfg.RefreshInterval,
		"store_path", cfg.StorePath)

	return m, nil
}

// Start implements LiveMonitor.Start.
func (m *liveMonitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrMonitorClosed
	}
	if m.running {
		return ErrMonitorRunning
	}

	if m.watcher != nil && m.config.StorePath != "" {
		if err := m.watcher.Start(ctx, m.config.StorePath); err != nil {
			// The view still works without live reloads.
			m.logger.Warn("failed to watch store, external changes will not be picked up",
				"path", m.config.StorePath, "error", err)
		}
	}

	m.running = true
	m.stopChan = make(chan struct{})
	m.done = make(chan struct{})

	go m.run(ctx, m.stopChan, m.done)

	m.logger.Info("live monitor started")
	return nil
}

// Stop implements LiveMonitor.Stop.
func (m *liveMonitor) Stop() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrMonitorClosed
	}
	if !m.running {
		m.mu.Unlock()
		return ErrMonitorNotRunning
	}

	close(m.stopChan)
	m.running = false
	done := m.done
	m.mu.Unlock()

	<-done

	if m.watcher != nil {
		if err := m.watcher.Stop(); err != nil && !errors.Is(err, watcher.ErrNotStarted) {
			m.logger.Warn("failed to stop watcher", "error", err)
		}
	}

	m.logger.Info("live monitor stopped")
	return nil
}

// Updates implements LiveMonitor.Updates.
func (m *liveMonitor) Updates() <-chan Update {
	return m.updates
}

// Current implements LiveMonitor.Current.
func (m *liveMonitor) Current() Update {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}

// run is the monitor loop. It is the only goroutine that touches the
// source.
func (m *liveMonitor) run(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.config.RefreshInterval)
	defer ticker.Stop()

	var (
		events <-chan watcher.Event
		errs   <-chan error
	)
	if m.watcher != nil {
		events = m.watcher.Events()
		errs = m.watcher.Errors()
	}

	m.update(ctx, false)

	for {
		select {
		case <-ctx.Done():
			return

		case <-stop:
			return

		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			m.update(ctx, m.reload(ctx, event))

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			m.logger.Error("watcher error", "error", err)

		case <-ticker.C:
			m.update(ctx, false)
		}
	}
}

// reload re-reads the log after an external change.
func (m *liveMonitor) reload(ctx context.Context, event watcher.Event) bool {
	m.logger.Debug("store change detected", "path", event.Path, "op", event.Op.String())

	if err := m.source.Reload(ctx); err != nil {
		// Keep showing the last good state; the next write retries.
		logger.Err(m.logger, "failed to reload sessions", err)
		return false
	}
	return true
}

// history returns the last HistoryLimit sessions of the source.
func (m *liveMonitor) history() []session.Session {
	if m.config.HistoryLimit <= 0 {
		return nil
	}
	sessions := m.source.Sessions()
	if len(sessions) > m.config.HistoryLimit {
		sessions = sessions[len(sessions)-m.config.HistoryLimit:]
	}
	return sessions
}

// update computes the state, feeds the observer and publishes the result.
func (m *liveMonitor) update(ctx context.Context, reloaded bool) {
	now := m.source.Now()
	u := Update{
		Timestamp: now,
		State:     m.source.State(now),
		Reloaded:  reloaded,
		History:   m.history(),
	}

	if m.observer != nil {
		sent, err := m.observer.Observe(ctx, u.State, now)
		if err != nil {
			m.logger.Warn("notification failed", "error", err)
		}
		u.Notified = sent
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.last = u
	if m.closed {
		return
	}

	select {
	case m.updates <- u:
	default:
		m.logger.Debug("updates channel full, dropping update")
	}
}

// Close implements LiveMonitor.Close.
func (m *liveMonitor) Close() error {
	m.mu.RLock()
	running := m.running
	m.mu.RUnlock()

	if running {
		if err := m.Stop(); err != nil && !errors.Is(err, ErrMonitorNotRunning) {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	close(m.updates)

	if m.watcher != nil {
		if err := m.watcher.Close(); err != nil {
			return err
		}
	}

	m.logger.Debug("live monitor closed")
	return nil
}
