package display

import (
	"fmt"
	"io"
	"time"

	"github.com/0xmhha/fastm8/pkg/protocol"
	"github.com/0xmhha/fastm8/pkg/session"
	"github.com/0xmhha/fastm8/pkg/stats"
	"github.com/0xmhha/fastm8/pkg/window"
)

// simpleFormatter formats output as one line per item.
type simpleFormatter struct {
	config Config
}

// FormatState implements Formatter.
func (f *simpleFormatter) FormatState(w io.Writer, st window.State) error {
	if st.Session == nil {
		_, err := fmt.Fprintln(w, "Idle")
		return err
	}

	line := fmt.Sprintf("%s: %s fasted (%s) [%s]",
		phaseLabel(st), FormatDuration(fastedFor(st)), formatPercent(st.Percent), st.Session.Protocol.ID)
	if st.Remaining != nil {
		line += fmt.Sprintf(", %s left", FormatDuration(*st.Remaining))
	}
	_, err := fmt.Fprintln(w, line)
	return err
}

// FormatHistory implements Formatter.
func (f *simpleFormatter) FormatHistory(w io.Writer, sessions []session.Session, now time.Time) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No fasts recorded")
		return err
	}

	for _, s := range sessions {
		start := s.Start.In(f.config.Location)
		if _, err := fmt.Fprintf(w, "%s %s  %s  %s  %s\n",
			FormatDate(start), FormatTime(start, f.config.Use24Hour),
			s.Protocol.ID, CalculateDuration(s.Start, s.End), sessionStatus(s, now)); err != nil {
			return err
		}
	}
	return nil
}

// FormatStats implements Formatter.
func (f *simpleFormatter) FormatStats(w io.Writer, sum stats.Summary) error {
	o := sum.Overall
	_, err := fmt.Fprintf(w, "Fasts: %d, Goal met: %d (%s), Average: %s, Longest: %s, Streak: %s\n",
		o.Count, o.TargetMet, formatPercent(o.CompletionRate),
		FormatDuration(o.Average), FormatDuration(o.Max), pluralDays(sum.Streaks.Current))
	return err
}

// FormatProtocols implements Formatter.
func (f *simpleFormatter) FormatProtocols(w io.Writer, protocols []protocol.Protocol) error {
	for _, p := range protocols {
		if _, err := fmt.Fprintf(w, "%s  %s fasting / %s eating\n",
			p.ID, formatHours(p.FastingHours), formatHours(p.EatingHours)); err != nil {
			return err
		}
	}
	return nil
}
