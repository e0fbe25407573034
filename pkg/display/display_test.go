package display

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/fastm8/pkg/protocol"
	"github.com/0xmhha/fastm8/pkg/session"
	"github.com/0xmhha/fastm8/pkg/stats"
	"github.com/0xmhha/fastm8/pkg/window"
)

var (
	t0  = time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)
	p16 = protocol.Protocol{ID: "16:8", FastingHours: 16, EatingHours: 8}
)

func openFast() *session.Session {
	return &session.Session{ID: "s-1", Protocol: p16, Start: t0}
}

func closedFast(id string, start time.Time, d time.Duration) session.Session {
	end := start.Add(d)
	return session.Session{ID: id, Protocol: p16, Start: start, End: &end}
}

func render(t *testing.T, cfg Config, fn func(Formatter, *bytes.Buffer) error) string {
	t.Helper()
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	var buf bytes.Buffer
	require.NoError(t, fn(New(cfg), &buf))
	return buf.String()
}

func TestDateHelpers(t *testing.T) {
	at := time.Date(2024, 3, 1, 8, 5, 0, 0, time.UTC)
	assert.Equal(t, "Mar 1, 2024", FormatDate(at))
	assert.Equal(t, "08:05 AM", FormatTime(at, false))
	assert.Equal(t, "08:05", FormatTime(at, true))
	assert.Equal(t, "08:05 PM", FormatTime(at.Add(12*time.Hour), false))
	assert.Equal(t, "", FormatDate(time.Time{}))
	assert.Equal(t, "", FormatTime(time.Time{}, true))
}

func TestDurationHelpers(t *testing.T) {
	assert.Equal(t, "0m", FormatDuration(0))
	assert.Equal(t, "45m", FormatDuration(45*time.Minute+59*time.Second))
	assert.Equal(t, "16h 30m", FormatDuration(16*time.Hour+30*time.Minute))
	assert.Equal(t, "0m", FormatDuration(-time.Hour))

	end := t0.Add(17*time.Hour + 5*time.Minute)
	assert.Equal(t, "17h 5m", CalculateDuration(t0, &end))
	assert.Equal(t, "In Progress", CalculateDuration(t0, nil))
	assert.Equal(t, "", CalculateDuration(time.Time{}, nil))
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "██████░░░░", progressBar(0.625, 10))
	assert.Equal(t, "░░░░░░░░░░", progressBar(-1, 10))
	assert.Equal(t, "██████████", progressBar(2, 10))
}

func TestNewDefaults(t *testing.T) {
	assert.IsType(t, &tableFormatter{}, New(Config{}))
	assert.IsType(t, &jsonFormatter{}, New(Config{Format: FormatJSON}))
	assert.IsType(t, &simpleFormatter{}, New(Config{Format: FormatSimple}))
	assert.True(t, ValidFormat(FormatSimple))
	assert.False(t, ValidFormat("xml"))
}

func TestTableState(t *testing.T) {
	st := window.ForSession(t0.Add(10*time.Hour), openFast())
	out := render(t, Config{BarWidth: 10}, func(f Formatter, b *bytes.Buffer) error {
		return f.FormatState(b, st)
	})

	assert.Contains(t, out, "Fasting Status")
	assert.Contains(t, out, "Fasting")
	assert.Contains(t, out, "Mar 1, 2024 08:00 PM")
	assert.Contains(t, out, "10h 0m")
	assert.Contains(t, out, "Goal in")
	assert.Contains(t, out, "6h 0m")
	assert.Contains(t, out, "Mar 2, 2024 12:00 PM")
	assert.Contains(t, out, "[██████░░░░] 62.5%")
}

func TestTableStateVariants(t *testing.T) {
	t.Run("idle", func(t *testing.T) {
		out := render(t, Config{}, func(f Formatter, b *bytes.Buffer) error {
			return f.FormatState(b, window.State{})
		})
		assert.Contains(t, out, "No fast in progress.")
	})

	t.Run("overrun", func(t *testing.T) {
		st := window.ForSession(t0.Add(30*time.Hour), openFast())
		out := render(t, Config{Use24Hour: true}, func(f Formatter, b *bytes.Buffer) error {
			return f.FormatState(b, st)
		})
		assert.Contains(t, out, "Eating window over")
		assert.Contains(t, out, "30h 0m")
		assert.Contains(t, out, "Mar 2, 2024 20:00")
		assert.NotContains(t, out, "closes in")
	})

	t.Run("eating", func(t *testing.T) {
		st := window.ForSession(t0.Add(18*time.Hour), openFast())
		out := render(t, Config{}, func(f Formatter, b *bytes.Buffer) error {
			return f.FormatState(b, st)
		})
		assert.Contains(t, out, "Eating window")
		assert.Contains(t, out, "Window closes in")
		assert.Contains(t, out, "18h 0m")
	})

	t.Run("closed", func(t *testing.T) {
		s := closedFast("s-1", t0, 12*time.Hour)
		st := window.ForSession(t0.Add(20*time.Hour), &s)
		out := render(t, Config{}, func(f Formatter, b *bytes.Buffer) error {
			return f.FormatState(b, st)
		})
		assert.Contains(t, out, "Ended (goal missed)")
		assert.Contains(t, out, "Mar 2, 2024 08:00 AM")
		assert.NotContains(t, out, "Goal at")
	})
}

func TestTableStateWithColorStaysReadable(t *testing.T) {
	st := window.ForSession(t0.Add(time.Hour), openFast())
	out := render(t, Config{Color: true}, func(f Formatter, b *bytes.Buffer) error {
		return f.FormatState(b, st)
	})
	assert.Contains(t, out, "Fasting")
	assert.Contains(t, out, "16:8")
}

func history() []session.Session {
	return []session.Session{
		closedFast("a", t0, 17*time.Hour),
		closedFast("b", t0.Add(48*time.Hour), 12*time.Hour+30*time.Minute),
		{ID: "c", Protocol: p16, Start: t0.Add(96 * time.Hour)},
	}
}

func TestTableHistory(t *testing.T) {
	now := t0.Add(100 * time.Hour)
	out := render(t, Config{}, func(f Formatter, b *bytes.Buffer) error {
		return f.FormatHistory(b, history(), now)
	})

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 8) // title, underline, blank, header, separator, 3 rows
	assert.True(t, strings.HasPrefix(lines[3], "Date"))
	assert.Contains(t, lines[5], "Mar 1, 2024")
	assert.Contains(t, lines[5], "17h 0m")
	assert.Contains(t, lines[5], "Met")
	assert.Contains(t, lines[6], "12h 30m")
	assert.Contains(t, lines[6], "Missed")
	assert.Contains(t, out, "In Progress")

	empty := render(t, Config{}, func(f Formatter, b *bytes.Buffer) error {
		return f.FormatHistory(b, nil, now)
	})
	assert.Contains(t, empty, "No data")
}

func TestTableStats(t *testing.T) {
	agg := stats.New(stats.Config{GroupBy: stats.DimProtocol, Location: time.UTC})
	agg.AddAll(history())
	sum := agg.Summary(t0.Add(100 * time.Hour))

	out := render(t, Config{}, func(f Formatter, b *bytes.Buffer) error {
		return f.FormatStats(b, sum)
	})
	assert.Contains(t, out, "Fasting Statistics")
	assert.Contains(t, out, "By Group")
	assert.Contains(t, out, "29h 30m")
	assert.Contains(t, out, "50.0%")

	empty := render(t, Config{}, func(f Formatter, b *bytes.Buffer) error {
		return f.FormatStats(b, stats.Summary{})
	})
	assert.Contains(t, empty, "No data")
}

func TestTableProtocols(t *testing.T) {
	out := render(t, Config{Compact: true}, func(f Formatter, b *bytes.Buffer) error {
		return f.FormatProtocols(b, append(protocol.Standard(),
			protocol.Protocol{ID: "warrior", FastingHours: 20, EatingHours: 2, Custom: true}))
	})
	assert.Contains(t, out, "16:8")
	assert.Contains(t, out, "16h")
	assert.Contains(t, out, "warrior")
	assert.Contains(t, out, "custom")
	assert.NotContains(t, out, "----")
}

func TestJSONState(t *testing.T) {
	st := window.ForSession(t0.Add(10*time.Hour), openFast())
	out := render(t, Config{Format: FormatJSON}, func(f Formatter, b *bytes.Buffer) error {
		return f.FormatState(b, st)
	})

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "fasting", got["phase"])
	assert.Equal(t, "s-1", got["session_id"])
	assert.Equal(t, float64(36000), got["fasted_seconds"])
	assert.Equal(t, float64(21600), got["remaining_seconds"])
	assert.Equal(t, 0.625, got["percent"])
	assert.Equal(t, "2024-03-02T12:00:00Z", got["fasting_ends"])
	assert.NotContains(t, got, "end")

	idle := render(t, Config{Format: FormatJSON, Compact: true}, func(f Formatter, b *bytes.Buffer) error {
		return f.FormatState(b, window.State{})
	})
	assert.Equal(t, `{"phase":"idle","fasted_seconds":0,"elapsed_seconds":0,"percent":0,"completed":false,"target_met":false,"overrun":false}`+"\n", idle)
}

func TestJSONHistoryAndStats(t *testing.T) {
	now := t0.Add(100 * time.Hour)
	out := render(t, Config{Format: FormatJSON}, func(f Formatter, b *bytes.Buffer) error {
		return f.FormatHistory(b, history(), now)
	})

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, float64(17*3600), rows[0]["duration_seconds"])
	assert.Equal(t, "Met", rows[0]["status"])
	assert.Equal(t, float64(4*3600), rows[2]["duration_seconds"])

	agg := stats.New(stats.Config{Location: time.UTC})
	agg.AddAll(history())
	out = render(t, Config{Format: FormatJSON}, func(f Formatter, b *bytes.Buffer) error {
		return f.FormatStats(b, agg.Summary(now))
	})

	var sum map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &sum))
	assert.Equal(t, float64(3), sum["overall"]["count"])
	assert.Equal(t, "a", sum["overall"]["longest_id"])

	out = render(t, Config{Format: FormatJSON, Compact: true}, func(f Formatter, b *bytes.Buffer) error {
		return f.FormatProtocols(b, nil)
	})
	assert.Equal(t, "[]\n", out)
}

func TestSimpleFormatter(t *testing.T) {
	now := t0.Add(100 * time.Hour)

	out := render(t, Config{Format: FormatSimple}, func(f Formatter, b *bytes.Buffer) error {
		return f.FormatHistory(b, history()[:1], now)
	})
	assert.Equal(t, "Mar 1, 2024 08:00 PM  16:8  17h 0m  Met\n", out)

	st := window.ForSession(t0.Add(10*time.Hour), openFast())
	out = render(t, Config{Format: FormatSimple}, func(f Formatter, b *bytes.Buffer) error {
		return f.FormatState(b, st)
	})
	assert.Equal(t, "Fasting: 10h 0m fasted (62.5%) [16:8], 6h 0m left\n", out)

	out = render(t, Config{Format: FormatSimple}, func(f Formatter, b *bytes.Buffer) error {
		return f.FormatState(b, window.State{})
	})
	assert.Equal(t, "Idle\n", out)

	out = render(t, Config{Format: FormatSimple}, func(f Formatter, b *bytes.Buffer) error {
		return f.FormatHistory(b, nil, now)
	})
	assert.Equal(t, "No fasts recorded\n", out)

	out = render(t, Config{Format: FormatSimple}, func(f Formatter, b *bytes.Buffer) error {
		return f.FormatProtocols(b, []protocol.Protocol{p16})
	})
	assert.Equal(t, "16:8  16h fasting / 8h eating\n", out)
}
