package app

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/fastm8/pkg/apperr"
	"github.com/0xmhha/fastm8/pkg/clock"
	"github.com/0xmhha/fastm8/pkg/config"
	"github.com/0xmhha/fastm8/pkg/importer"
	"github.com/0xmhha/fastm8/pkg/logger"
	"github.com/0xmhha/fastm8/pkg/notify"
	"github.com/0xmhha/fastm8/pkg/protocol"
	"github.com/0xmhha/fastm8/pkg/stats"
	"github.com/0xmhha/fastm8/pkg/window"
)

var t0 = time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)

func memoryConfig() *config.Config {
	cfg := config.Default()
	cfg.Storage.Backend = "memory"
	cfg.Storage.Path = ""
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) (*App, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(t0)
	a, err := New(context.Background(), cfg, Options{
		Clock:    clk,
		IDs:      &clock.Sequence{Prefix: "f"},
		Logger:   logger.Noop(),
		Location: time.UTC,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a, clk
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(context.Background(), nil, Options{})
	assert.ErrorIs(t, err, ErrNilConfig)

	cfg := memoryConfig()
	cfg.Display.Format = "xml"
	_, err = New(context.Background(), cfg, Options{Logger: logger.Noop()})
	assert.ErrorIs(t, err, config.ErrInvalidDisplayFormat)
}

func TestFastLifecycle(t *testing.T) {
	a, clk := newTestApp(t, memoryConfig())
	ctx := context.Background()

	assert.Equal(t, window.Idle, a.State(a.Now()).Phase)

	fast, err := a.StartFast(ctx, "", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "f-1", fast.ID)
	assert.Equal(t, "16:8", fast.Protocol.ID)

	clk.Advance(10 * time.Hour)
	st := a.State(a.Now())
	assert.Equal(t, window.Fasting, st.Phase)
	assert.Equal(t, 0.625, st.Percent)

	clk.Advance(7 * time.Hour)
	ended, err := a.EndFast(ctx, "", time.Time{}, 0)
	require.NoError(t, err)
	assert.Equal(t, fast.ID, ended.ID)

	st = a.State(a.Now())
	assert.True(t, st.Completed)
	assert.True(t, st.TargetMet)
	assert.Equal(t, fast.ID, st.SessionID())

	_, err = a.EndFast(ctx, "", time.Time{}, 0)
	assert.ErrorIs(t, err, ErrNoActiveFast)
	assert.Equal(t, apperr.KindState, apperr.KindOf(err))
}

func TestDefaultProtocolNotation(t *testing.T) {
	cfg := memoryConfig()
	cfg.Protocol.Default = "15:9"
	a, _ := newTestApp(t, cfg)

	fast, err := a.StartFast(context.Background(), "", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 15.0, fast.Protocol.FastingHours)
	assert.Equal(t, "15:9", a.DefaultProtocol().ID)
}

func TestRegisterProtocol(t *testing.T) {
	a, _ := newTestApp(t, memoryConfig())

	warrior := protocol.Protocol{ID: "warrior", FastingHours: 20, EatingHours: 4}
	require.NoError(t, a.RegisterProtocol(warrior))
	assert.Len(t, a.Config.Protocol.Custom, 1)

	_, err := a.StartFast(context.Background(), "warrior", time.Time{})
	require.NoError(t, err)

	assert.ErrorIs(t, a.RegisterProtocol(warrior), protocol.ErrDuplicateProtocol)
}

func TestStatsAndNextFastStart(t *testing.T) {
	a, clk := newTestApp(t, memoryConfig())
	ctx := context.Background()

	_, err := a.StartFast(ctx, "18:6", time.Time{})
	require.NoError(t, err)
	clk.Advance(19 * time.Hour)
	_, err = a.EndFast(ctx, "", time.Time{}, 0)
	require.NoError(t, err)

	sum := a.Stats(stats.DimProtocol, a.Now())
	assert.Equal(t, 1, sum.Overall.TargetMet)
	assert.Contains(t, sum.Groups, "18:6")

	noon := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC), a.NextFastStart(noon))
	assert.Equal(t, "10:00-18:00", a.EatingWindow().String())
}

func TestImportExport(t *testing.T) {
	a, _ := newTestApp(t, memoryConfig())
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "log.jsonl")
	data := `{"id":"a1","protocol":"16:8","startTime":"2024-02-01T20:00:00Z","endTime":"2024-02-02T13:00:00Z"}
garbage
{"id":"a2","protocol":"18:6","startTime":"2024-02-03T20:00:00Z","endTime":"2024-02-04T15:00:00Z"}
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))

	src := importer.FileSource{Path: path, Parser: importer.New(a.Manager.Protocols())}
	n, skipped, err := a.Import(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, skipped, 1)
	assert.Equal(t, 2, skipped[0].Line)

	var buf bytes.Buffer
	require.NoError(t, a.Export(&buf, importer.FormatJSONL))
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))
	assert.Contains(t, buf.String(), `"id":"a2"`)
}

func TestDisplayConfig(t *testing.T) {
	cfg := memoryConfig()
	cfg.Display.Use24Hour = true
	a, _ := newTestApp(t, cfg)

	dc := a.DisplayConfig("")
	assert.Equal(t, "table", string(dc.Format))
	assert.True(t, dc.Use24Hour)
	assert.Equal(t, time.UTC, dc.Location)
	assert.Equal(t, "json", string(a.DisplayConfig("json").Format))
}

func TestNotifierWithTelegram(t *testing.T) {
	var (
		mu   sync.Mutex
		sent []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/getMe") {
			fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"FastM8","username":"fastm8_bot"}}`)
			return
		}
		_ = r.ParseForm()
		mu.Lock()
		sent = append(sent, r.PostForm.Get("text"))
		mu.Unlock()
		fmt.Fprint(w, `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"}}}`)
	}))
	defer srv.Close()

	cfg := memoryConfig()
	cfg.Notify.Telegram = config.TelegramConfig{Token: "123:abc", ChatID: 42}
	a, err := New(context.Background(), cfg, Options{
		Logger:           logger.Noop(),
		HTTPClient:       srv.Client(),
		TelegramEndpoint: srv.URL + "/bot%s/%s",
	})
	require.NoError(t, err)
	defer a.Close()

	var out bytes.Buffer
	n, err := a.Notifier(&out)
	require.NoError(t, err)
	require.NoError(t, n.Notify(context.Background(), notify.Event{Message: "hello"}))

	assert.Equal(t, "[FastM8] hello\n", out.String())
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"FastM8: hello"}, sent)
}

func TestMonitorOverMemoryStore(t *testing.T) {
	a, _ := newTestApp(t, memoryConfig())
	_, err := a.StartFast(context.Background(), "", time.Time{})
	require.NoError(t, err)

	m, err := a.Monitor(MonitorOptions{Refresh: time.Hour, Notify: true})
	require.NoError(t, err)
	require.NoError(t, m.Start(context.Background()))

	select {
	case u := <-m.Updates():
		assert.Equal(t, window.Fasting, u.State.Phase)
		assert.False(t, u.Notified)
	case <-time.After(2 * time.Second):
		t.Fatal("no update")
	}
	require.NoError(t, m.Close())
}

func TestMonitorPicksUpExternalWrites(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Backend = "file"
	cfg.Storage.Path = filepath.Join(t.TempDir(), "sessions.yaml")

	viewer, _ := newTestApp(t, cfg)
	writer, _ := newTestApp(t, cfg)

	m, err := viewer.Monitor(MonitorOptions{Refresh: time.Hour})
	require.NoError(t, err)
	defer m.Close()
	require.NoError(t, m.Start(context.Background()))

	first := <-m.Updates()
	assert.Equal(t, window.Idle, first.State.Phase)

	_, err = writer.StartFast(context.Background(), "", time.Time{})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return m.Current().State.Phase == window.Fasting
	}, 5*time.Second, 20*time.Millisecond)
}

func TestMonitorHistoryFollowsExternalWrites(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Backend = "file"
	cfg.Storage.Path = filepath.Join(t.TempDir(), "sessions.yaml")

	viewer, _ := newTestApp(t, cfg)
	writer, writerClock := newTestApp(t, cfg)
	ctx := context.Background()

	m, err := viewer.Monitor(MonitorOptions{Refresh: 5 * time.Millisecond, History: 3})
	require.NoError(t, err)
	defer m.Close()
	require.NoError(t, m.Start(ctx))

	first := <-m.Updates()
	assert.Empty(t, first.History)

	// The viewer's manager is only read by the monitor goroutine; this
	// goroutine sees its log through the updates alone.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range m.Updates() {
		}
	}()

	for i := 0; i < 5; i++ {
		_, err := writer.StartFast(ctx, "", time.Time{})
		require.NoError(t, err)
		writerClock.Advance(17 * time.Hour)
		_, err = writer.EndFast(ctx, "", time.Time{}, 0)
		require.NoError(t, err)
		writerClock.Advance(7 * time.Hour)
	}

	require.Eventually(t, func() bool {
		h := m.Current().History
		return len(h) == 3 && h[2].ID == "f-5" && h[2].End != nil
	}, 5*time.Second, 20*time.Millisecond)

	h := m.Current().History
	assert.Equal(t, []string{"f-3", "f-4", "f-5"}, []string{h[0].ID, h[1].ID, h[2].ID})

	require.NoError(t, m.Close())
	<-done
}
