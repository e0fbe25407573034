package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/fastm8/pkg/clock"
	"github.com/0xmhha/fastm8/pkg/logger"
	"github.com/0xmhha/fastm8/pkg/protocol"
	"github.com/0xmhha/fastm8/pkg/session"
	"github.com/0xmhha/fastm8/pkg/watcher"
	"github.com/0xmhha/fastm8/pkg/window"
)

var (
	t0  = time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)
	p16 = protocol.Protocol{ID: "16:8", FastingHours: 16, EatingHours: 8}
)

// fakeSource serves a single session whose presence can be toggled by a
// "reload".
type fakeSource struct {
	clk *clock.Manual

	mu        sync.Mutex
	past      []session.Session
	active    *session.Session
	onReload  *session.Session
	reloads   int
	reloadErr error
}

func (f *fakeSource) Now() time.Time { return f.clk.Now() }

func (f *fakeSource) Reload(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reloads++
	if f.reloadErr != nil {
		return f.reloadErr
	}
	f.active = f.onReload
	return nil
}

func (f *fakeSource) State(now time.Time) window.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return window.ForSession(now, f.active)
}

func (f *fakeSource) Sessions() []session.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []session.Session
	for _, s := range f.past {
		out = append(out, s.Clone())
	}
	if f.active != nil {
		out = append(out, f.active.Clone())
	}
	return out
}

func (f *fakeSource) reloadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reloads
}

// fakeWatcher lets tests inject change events.
type fakeWatcher struct {
	events  chan watcher.Event
	errs    chan error
	started string
	stopped bool
	closed  bool
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{events: make(chan watcher.Event, 1), errs: make(chan error, 1)}
}

func (w *fakeWatcher) Start(ctx context.Context, path string) error {
	w.started = path
	return nil
}
func (w *fakeWatcher) Stop() error { w.stopped = true; return nil }
func (w *fakeWatcher) Events() <-chan watcher.Event { return w.events }
func (w *fakeWatcher) Errors() <-chan error { return w.errs }
func (w *fakeWatcher) Close() error { w.closed = true; return nil }

// countingObserver records observed phases.
type countingObserver struct {
	mu     sync.Mutex
	phases []window.Phase
}

func (o *countingObserver) Observe(ctx context.Context, st window.State, at time.Time) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.phases = append(o.phases, st.Phase)
	return len(o.phases) > 1, nil
}

func next(t *testing.T, m LiveMonitor) Update {
	t.Helper()
	select {
	case u, ok := <-m.Updates():
		require.True(t, ok, "updates channel closed")
		return u
	case <-time.After(2 * time.Second):
		t.Fatal("no update received")
		return Update{}
	}
}

func TestNewRequiresSource(t *testing.T) {
	_, err := New(Config{}, nil, nil, nil, nil)
	assert.ErrorIs(t, err, ErrNoSource)
}

func TestFirstUpdateIsImmediate(t *testing.T) {
	src := &fakeSource{
		clk:    clock.NewManual(t0.Add(10 * time.Hour)),
		active: &session.Session{ID: "s-1", Protocol: p16, Start: t0},
	}
	m, err := New(Config{RefreshInterval: time.Hour}, src, nil, nil, logger.Noop())
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, m.Start(context.Background()))

	u := next(t, m)
	assert.Equal(t, window.Fasting, u.State.Phase)
	assert.Equal(t, 10*time.Hour, u.State.Elapsed)
	assert.Equal(t, t0.Add(10*time.Hour), u.Timestamp)
	assert.False(t, u.Reloaded)
	assert.Equal(t, u, m.Current())
}

func TestUpdatesCarryHistory(t *testing.T) {
	end := t0.Add(-8 * time.Hour)
	src := &fakeSource{
		clk: clock.NewManual(t0.Add(time.Hour)),
		past: []session.Session{
			{ID: "s-1", Protocol: p16, Start: t0.Add(-72 * time.Hour), End: ptrTime(t0.Add(-56 * time.Hour))},
			{ID: "s-2", Protocol: p16, Start: t0.Add(-25 * time.Hour), End: &end},
		},
		active: &session.Session{ID: "s-3", Protocol: p16, Start: t0},
	}

	m, err := New(Config{RefreshInterval: time.Hour, HistoryLimit: 2}, src, nil, nil, nil)
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, m.Start(context.Background()))
	u := next(t, m)
	require.Len(t, u.History, 2)
	assert.Equal(t, "s-2", u.History[0].ID)
	assert.Equal(t, "s-3", u.History[1].ID)

	plain, err := New(Config{RefreshInterval: time.Hour}, src, nil, nil, nil)
	require.NoError(t, err)
	defer plain.Close()

	require.NoError(t, plain.Start(context.Background()))
	assert.Nil(t, next(t, plain).History)
}

func ptrTime(t time.Time) *time.Time { return &t }

func TestTicksRecompute(t *testing.T) {
	src := &fakeSource{
		clk:    clock.NewManual(t0),
		active: &session.Session{ID: "s-1", Protocol: p16, Start: t0},
	}
	m, err := New(Config{RefreshInterval: 10 * time.Millisecond}, src, nil, nil, nil)
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, m.Start(context.Background()))
	first := next(t, m)
	assert.Equal(t, window.Fasting, first.State.Phase)

	src.clk.Advance(17 * time.Hour)
	require.Eventually(t, func() bool {
		return m.Current().State.Phase == window.Eating
	}, 2*time.Second, 5*time.Millisecond)
}

func TestWatcherEventReloads(t *testing.T) {
	src := &fakeSource{
		clk:      clock.NewManual(t0.Add(time.Hour)),
		onReload: &session.Session{ID: "s-2", Protocol: p16, Start: t0},
	}
	w := newFakeWatcher()
	obs := &countingObserver{}

	m, err := New(Config{RefreshInterval: time.Hour, StorePath: "/tmp/sessions.db"}, src, w, obs, nil)
	require.NoError(t, err)

	require.NoError(t, m.Start(context.Background()))
	assert.Equal(t, "/tmp/sessions.db", w.started)

	first := next(t, m)
	assert.Equal(t, window.Idle, first.State.Phase)
	assert.False(t, first.Notified)

	w.events <- watcher.Event{Path: "/tmp/sessions.db", Op: watcher.OpWrite}
	u := next(t, m)
	assert.True(t, u.Reloaded)
	assert.True(t, u.Notified)
	assert.Equal(t, "s-2", u.State.SessionID())
	assert.Equal(t, 1, src.reloadCount())

	require.NoError(t, m.Close())
	assert.True(t, w.stopped)
	assert.True(t, w.closed)

	obs.mu.Lock()
	assert.Equal(t, []window.Phase{window.Idle, window.Fasting}, obs.phases)
	obs.mu.Unlock()
}

func TestReloadFailureKeepsState(t *testing.T) {
	src := &fakeSource{
		clk:       clock.NewManual(t0.Add(time.Hour)),
		active:    &session.Session{ID: "s-1", Protocol: p16, Start: t0},
		reloadErr: errors.New("disk gone"),
	}
	w := newFakeWatcher()

	m, err := New(Config{RefreshInterval: time.Hour, StorePath: "x"}, src, w, nil, nil)
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, m.Start(context.Background()))
	next(t, m)

	w.events <- watcher.Event{Op: watcher.OpWrite}
	u := next(t, m)
	assert.False(t, u.Reloaded)
	assert.Equal(t, "s-1", u.State.SessionID())
}

func TestLifecycle(t *testing.T) {
	src := &fakeSource{clk: clock.NewManual(t0)}
	m, err := New(Config{}, src, nil, nil, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, m.Stop(), ErrMonitorNotRunning)
	require.NoError(t, m.Start(context.Background()))
	assert.ErrorIs(t, m.Start(context.Background()), ErrMonitorRunning)
	require.NoError(t, m.Stop())
	require.NoError(t, m.Start(context.Background()))

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	assert.ErrorIs(t, m.Start(context.Background()), ErrMonitorClosed)
	assert.ErrorIs(t, m.Stop(), ErrMonitorClosed)

	for range m.Updates() {
	}
}

func TestContextCancelStopsLoop(t *testing.T) {
	src := &fakeSource{clk: clock.NewManual(t0)}
	m, err := New(Config{RefreshInterval: 5 * time.Millisecond}, src, nil, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, m.Start(ctx))
	next(t, m)
	cancel()

	require.NoError(t, m.Stop())
	require.NoError(t, m.Close())
}
