package display

import (
	"encoding/json"
	"io"
	"time"

	"github.com/0xmhha/fastm8/pkg/protocol"
	"github.com/0xmhha/fastm8/pkg/session"
	"github.com/0xmhha/fastm8/pkg/stats"
	"github.com/0xmhha/fastm8/pkg/window"
)

// jsonFormatter formats output as JSON. Durations are whole seconds.
type jsonFormatter struct {
	config Config
}

type stateJSON struct {
	Phase            window.Phase `json:"phase"`
	SessionID        string       `json:"session_id,omitempty"`
	Protocol         string       `json:"protocol,omitempty"`
	Start            *time.Time   `json:"start,omitempty"`
	End              *time.Time   `json:"end,omitempty"`
	FastedSeconds    int64        `json:"fasted_seconds"`
	ElapsedSeconds   int64        `json:"elapsed_seconds"`
	RemainingSeconds *int64       `json:"remaining_seconds,omitempty"`
	Percent          float64      `json:"percent"`
	FastingEnds      *time.Time   `json:"fasting_ends,omitempty"`
	EatingEnds       *time.Time   `json:"eating_ends,omitempty"`
	Completed        bool         `json:"completed"`
	TargetMet        bool         `json:"target_met"`
	Overrun          bool         `json:"overrun"`
}

type sessionJSON struct {
	ID              string     `json:"id"`
	Protocol        string     `json:"protocol"`
	FastingHours    float64    `json:"fasting_hours"`
	EatingHours     float64    `json:"eating_hours"`
	Start           time.Time  `json:"start"`
	End             *time.Time `json:"end,omitempty"`
	DurationSeconds int64      `json:"duration_seconds"`
	Status          string     `json:"status"`
}

type statisticsJSON struct {
	Count          int        `json:"count"`
	Completed      int        `json:"completed"`
	TargetMet      int        `json:"target_met"`
	CompletionRate float64    `json:"completion_rate"`
	TotalSeconds   int64      `json:"total_seconds"`
	AverageSeconds int64      `json:"average_seconds"`
	MedianSeconds  int64      `json:"median_seconds"`
	MinSeconds     int64      `json:"min_seconds"`
	MaxSeconds     int64      `json:"max_seconds"`
	LongestID      string     `json:"longest_id,omitempty"`
	FirstStart     *time.Time `json:"first_start,omitempty"`
	LastStart      *time.Time `json:"last_start,omitempty"`
}

type summaryJSON struct {
	Overall statisticsJSON            `json:"overall"`
	Groups  map[string]statisticsJSON `json:"groups,omitempty"`
	Streaks stats.Streaks             `json:"streaks"`
}

// FormatState implements Formatter.
func (f *jsonFormatter) FormatState(w io.Writer, st window.State) error {
	out := stateJSON{
		Phase:          st.Phase,
		Percent:        st.Percent,
		Completed:      st.Completed,
		TargetMet:      st.TargetMet,
		Overrun:        st.Overrun(),
		ElapsedSeconds: seconds(st.Elapsed),
		FastedSeconds:  seconds(fastedFor(st)),
	}
	if s := st.Session; s != nil {
		out.SessionID = s.ID
		out.Protocol = s.Protocol.ID
		out.Start = &s.Start
		out.End = s.End
		out.FastingEnds = &st.FastingEnds
		out.EatingEnds = &st.EatingEnds
	}
	if st.Remaining != nil {
		r := seconds(*st.Remaining)
		out.RemainingSeconds = &r
	}
	return f.encode(w, out)
}

// FormatHistory implements Formatter.
func (f *jsonFormatter) FormatHistory(w io.Writer, sessions []session.Session, now time.Time) error {
	out := make([]sessionJSON, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionJSON{
			ID:              s.ID,
			Protocol:        s.Protocol.ID,
			FastingHours:    s.Protocol.FastingHours,
			EatingHours:     s.Protocol.EatingHours,
			Start:           s.Start,
			End:             s.End,
			DurationSeconds: seconds(s.Duration(now)),
			Status:          sessionStatus(s, now),
		})
	}
	return f.encode(w, out)
}

// FormatStats implements Formatter.
func (f *jsonFormatter) FormatStats(w io.Writer, sum stats.Summary) error {
	out := summaryJSON{
		Overall: toStatisticsJSON(sum.Overall),
		Streaks: sum.Streaks,
	}
	if len(sum.Groups) > 0 {
		out.Groups = make(map[string]statisticsJSON, len(sum.Groups))
		for k, g := range sum.Groups {
			out.Groups[k] = toStatisticsJSON(g)
		}
	}
	return f.encode(w, out)
}

// FormatProtocols implements Formatter.
func (f *jsonFormatter) FormatProtocols(w io.Writer, protocols []protocol.Protocol) error {
	if protocols == nil {
		protocols = []protocol.Protocol{}
	}
	return f.encode(w, protocols)
}

func (f *jsonFormatter) encode(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	if !f.config.Compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func toStatisticsJSON(s stats.Statistics) statisticsJSON {
	out := statisticsJSON{
		Count:          s.Count,
		Completed:      s.Completed,
		TargetMet:      s.TargetMet,
		CompletionRate: s.CompletionRate,
		TotalSeconds:   seconds(s.Total),
		AverageSeconds: seconds(s.Average),
		MedianSeconds:  seconds(s.Median),
		MinSeconds:     seconds(s.Min),
		MaxSeconds:     seconds(s.Max),
		LongestID:      s.LongestID,
	}
	if !s.FirstStart.IsZero() {
		first, last := s.FirstStart, s.LastStart
		out.FirstStart = &first
		out.LastStart = &last
	}
	return out
}

func seconds(d time.Duration) int64 {
	return int64(d / time.Second)
}
