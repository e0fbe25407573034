package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/fastm8/pkg/apperr"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.input))
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, Config{Level: "warn", Format: "text"})

	log.Debug("hidden debug")
	log.Info("hidden info")
	log.Warn("shown warn")
	log.Error("shown error")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown warn")
	assert.Contains(t, out, "shown error")
}

func TestJSONOutputWithFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, Config{Level: "info", Format: "json"}).
		With("component", "session")

	log.Info("fast started", "session_id", "abc", "protocol", "16:8")

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "fast started", record["msg"])
	assert.Equal(t, "session", record["component"])
	assert.Equal(t, "abc", record["session_id"])
	assert.Equal(t, "16:8", record["protocol"])
}

func TestErrLevelsByKind(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, Config{Level: "debug", Format: "json"})

	Err(log, "rejected", apperr.New(apperr.KindConflict, "active session exists"))
	Err(log, "save failed", apperr.Wrap(errors.New("locked"), apperr.KindPersistence, "store.Save"), "path", "/tmp/x")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first, second map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))

	assert.Equal(t, "WARN", first["level"])
	assert.Equal(t, "conflict", first["error_kind"])
	assert.Equal(t, "ERROR", second["level"])
	assert.Equal(t, "persistence", second["error_kind"])
	assert.Equal(t, "store.Save", second["op"])
	assert.Equal(t, "/tmp/x", second["path"])
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fastm8.log")
	log := New(Config{Level: "info", Output: path, Format: "text"})

	log.Info("written to file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

func TestOpenWriter(t *testing.T) {
	w, err := openWriter("stdout")
	require.NoError(t, err)
	assert.Equal(t, os.Stdout, w)

	w, err = openWriter("")
	require.NoError(t, err)
	assert.Equal(t, os.Stderr, w)

	_, err = openWriter(filepath.Join(t.TempDir(), "missing", "dir", "x.log"))
	assert.Error(t, err)
}

func TestDefaultAndNoop(t *testing.T) {
	assert.NotNil(t, Default())

	log := Noop()
	require.NotNil(t, log)
	log.Info("discarded", "key", "value")
	assert.NotNil(t, log.With("key", "value"))
}
