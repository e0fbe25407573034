package importer

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/0xmhha/fastm8/pkg/session"
)

// Export formats.
const (
	FormatJSONL = "jsonl"
	FormatJSON  = "json"
	FormatCSV   = "csv"
)

// Export writes sessions to w in the given format.
func Export(w io.Writer, format string, sessions []session.Session) error {
	switch strings.ToLower(format) {
	case FormatJSONL, "":
		return exportJSONL(w, sessions)
	case FormatJSON:
		return exportJSON(w, sessions)
	case FormatCSV:
		return exportCSV(w, sessions)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func exportJSONL(w io.Writer, sessions []session.Session) error {
	enc := json.NewEncoder(w)
	for _, s := range sessions {
		if err := enc.Encode(FromSession(s)); err != nil {
			return fmt.Errorf("failed to encode session %s: %w", s.ID, err)
		}
	}
	return nil
}

func exportJSON(w io.Writer, sessions []session.Session) error {
	records := make([]Record, 0, len(sessions))
	for _, s := range sessions {
		records = append(records, FromSession(s))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode sessions: %w", err)
	}
	return nil
}

func exportCSV(w io.Writer, sessions []session.Session) error {
	cw := csv.NewWriter(w)
	header := []string{"id", "protocol", "fasting_hours", "eating_hours", "start_time", "end_time", "duration_minutes"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, s := range sessions {
		end, minutes := "", ""
		if s.End != nil {
			end = s.End.Format(time.RFC3339)
			minutes = strconv.FormatInt(int64(s.End.Sub(s.Start)/time.Minute), 10)
		}
		row := []string{
			s.ID,
			s.Protocol.ID,
			strconv.FormatFloat(s.Protocol.FastingHours, 'f', -1, 64),
			strconv.FormatFloat(s.Protocol.EatingHours, 'f', -1, 64),
			s.Start.Format(time.RFC3339),
			end,
			minutes,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write session %s: %w", s.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
