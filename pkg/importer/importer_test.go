package importer

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/fastm8/pkg/protocol"
	"github.com/0xmhha/fastm8/pkg/session"
)

var t0 = time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)

const sampleLog = `{"id":"a1","protocol":"16:8","fastingHours":16,"eatingHours":8,"startTime":"2024-03-01T20:00:00Z","endTime":"2024-03-02T12:30:00Z"}
not json at all

{"id":"a2","protocol":"18:6","startTime":"2024-03-03T21:00:00+09:00"}
{"id":"","protocol":"16:8","startTime":"2024-03-04T20:00:00Z"}
{"id":"a4","protocol":"16:8","startTime":"2024-03-05T20:00:00Z","endTime":"2024-03-05T19:00:00Z"}
{"id":"a5","protocol":"mystery","startTime":"2024-03-06T20:00:00Z"}
{"id":"a6","protocol":"13:11","startTime":"2024-03-07T20:00:00Z","endTime":"2024-03-08T09:00:00Z"}
`

func TestParse(t *testing.T) {
	p := New(protocol.NewStandardCatalog())
	res, err := p.Parse(strings.NewReader(sampleLog))
	require.NoError(t, err)

	assert.Equal(t, 7, res.Lines)
	require.Len(t, res.Sessions, 3)
	require.Len(t, res.Skipped, 4)

	first := res.Sessions[0]
	assert.Equal(t, "a1", first.ID)
	assert.Equal(t, 16.0, first.Protocol.FastingHours)
	assert.False(t, first.Protocol.Custom)
	assert.Equal(t, t0, first.Start)
	require.NotNil(t, first.End)
	assert.Equal(t, t0.Add(16*time.Hour+30*time.Minute), *first.End)

	second := res.Sessions[1]
	assert.Equal(t, "18:6", second.Protocol.ID)
	assert.Equal(t, 18.0, second.Protocol.FastingHours)
	assert.Equal(t, time.Date(2024, 3, 3, 12, 0, 0, 0, time.UTC), second.Start)
	assert.Nil(t, second.End)

	parsed := res.Sessions[2]
	assert.Equal(t, 13.0, parsed.Protocol.FastingHours)
	assert.Equal(t, 11.0, parsed.Protocol.EatingHours)

	lines := []int{}
	for _, s := range res.Skipped {
		lines = append(lines, s.Line)
	}
	assert.Equal(t, []int{2, 5, 6, 7}, lines)
	assert.ErrorIs(t, res.Skipped[0], ErrMalformedJSON)
	assert.ErrorIs(t, res.Skipped[1], ErrMissingID)
	assert.ErrorIs(t, res.Skipped[2], ErrEndBeforeStart)
	assert.ErrorIs(t, res.Skipped[3], ErrUnknownProtocol)
	assert.Contains(t, res.Skipped[0].Error(), "line 2")
}

func TestParseLineProtocols(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantID  string
		fasting float64
		custom  bool
		wantErr error
	}{
		{
			name:    "hours without id",
			line:    `{"id":"x","fastingHours":15,"eatingHours":9,"startTime":"2024-03-01T20:00:00Z"}`,
			wantID:  "15:9",
			fasting: 15,
		},
		{
			name:    "custom hours",
			line:    `{"id":"x","protocol":"mine","fastingHours":36,"eatingHours":0,"startTime":"2024-03-01T20:00:00Z"}`,
			wantErr: protocol.ErrHoursOutOfRange,
		},
		{
			name:    "relaxed sum",
			line:    `{"id":"x","protocol":"warrior","fastingHours":20,"eatingHours":2,"startTime":"2024-03-01T20:00:00Z"}`,
			wantID:  "warrior",
			fasting: 20,
			custom:  true,
		},
		{
			name:    "nothing uses default",
			line:    `{"id":"x","startTime":"2024-03-01T20:00:00Z"}`,
			wantID:  "16:8",
			fasting: 16,
		},
		{
			name:    "missing start",
			line:    `{"id":"x","protocol":"16:8"}`,
			wantErr: ErrMissingStart,
		},
	}

	p := New(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := p.ParseLine(tt.line)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, s.Protocol.ID)
			assert.Equal(t, tt.fasting, s.Protocol.FastingHours)
			assert.Equal(t, tt.custom, s.Protocol.Custom)
		})
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(sampleLog), 0600))

	res, err := FileSource{Path: path, Parser: New(protocol.NewStandardCatalog())}.Sessions(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Sessions, 3)

	_, err = New(nil).ParseFile(filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.Error(t, err)
}

func sessions() []session.Session {
	end := t0.Add(17 * time.Hour)
	return []session.Session{
		{ID: "a1", Protocol: protocol.Protocol{ID: "16:8", FastingHours: 16, EatingHours: 8}, Start: t0, End: &end},
		{ID: "a2", Protocol: protocol.Protocol{ID: "18:6", FastingHours: 18, EatingHours: 6}, Start: t0.Add(48 * time.Hour)},
	}
}

func TestExportJSONLRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, FormatJSONL, sessions()))

	res, err := New(nil).Parse(&buf)
	require.NoError(t, err)
	assert.Empty(t, res.Skipped)
	assert.Equal(t, sessions(), res.Sessions)
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, FormatJSON, sessions()))

	var records []map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "a1", records[0]["id"])
	assert.Equal(t, "2024-03-01T20:00:00Z", records[0]["startTime"])
	assert.NotContains(t, records[1], "endTime")
}

func TestExportCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, FormatCSV, sessions()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "duration_minutes", rows[0][6])
	assert.Equal(t, []string{"a1", "16:8", "16", "8", "2024-03-01T20:00:00Z", "2024-03-02T13:00:00Z", "1020"}, rows[1])
	assert.Equal(t, "", rows[2][5])
}

func TestExportUnknownFormat(t *testing.T) {
	err := Export(&bytes.Buffer{}, "xml", sessions())
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
