package display

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/0xmhha/fastm8/pkg/protocol"
	"github.com/0xmhha/fastm8/pkg/session"
	"github.com/0xmhha/fastm8/pkg/stats"
	"github.com/0xmhha/fastm8/pkg/window"
)

// tableFormatter formats output as aligned tables.
type tableFormatter struct {
	config Config
}

// FormatState implements Formatter.
func (f *tableFormatter) FormatState(w io.Writer, st window.State) error {
	sty := newStyles(w, f.config.Color)
	if err := writeHeader(w, sty.render(sty.title, "Fasting Status"), f.config.Compact); err != nil {
		return err
	}

	if st.Session == nil {
		_, err := fmt.Fprintln(w, "No fast in progress.")
		return err
	}

	s := st.Session
	rows := [][]string{
		{"Phase", sty.phase(st)},
		{"Protocol", s.Protocol.ID},
		{"Started", f.dateTime(s.Start)},
		{"Fasted", FormatDuration(fastedFor(st))},
	}

	if st.Completed {
		rows = append(rows, []string{"Ended", f.dateTime(*s.End)})
	} else {
		if st.Remaining != nil {
			label := "Goal in"
			if st.Phase == window.Eating {
				label = "Window closes in"
			}
			rows = append(rows, []string{label, FormatDuration(*st.Remaining)})
		}
		rows = append(rows,
			[]string{"Goal at", f.dateTime(st.FastingEnds)},
			[]string{"Eating until", f.dateTime(st.EatingEnds)},
		)
	}

	bar := fmt.Sprintf("[%s] %s",
		sty.render(sty.bar, progressBar(st.Percent, f.config.BarWidth)),
		formatPercent(st.Percent))
	rows = append(rows, []string{"Progress", bar})

	return f.writeTable(w, []string{"Metric", "Value"}, rows)
}

// FormatHistory implements Formatter.
func (f *tableFormatter) FormatHistory(w io.Writer, sessions []session.Session, now time.Time) error {
	sty := newStyles(w, f.config.Color)
	if err := writeHeader(w, sty.render(sty.title, "Fasting History"), f.config.Compact); err != nil {
		return err
	}

	header := []string{"Date", "Start", "End", "Duration", "Protocol", "Status", "ID"}
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		end := ""
		if s.End != nil {
			end = f.clock(*s.End)
		}
		rows = append(rows, []string{
			FormatDate(s.Start.In(f.config.Location)),
			f.clock(s.Start),
			end,
			CalculateDuration(s.Start, s.End),
			s.Protocol.ID,
			sessionStatus(s, now),
			s.ID,
		})
	}

	return f.writeTable(w, header, rows)
}

// FormatStats implements Formatter.
func (f *tableFormatter) FormatStats(w io.Writer, sum stats.Summary) error {
	sty := newStyles(w, f.config.Color)
	if err := writeHeader(w, sty.render(sty.title, "Fasting Statistics"), f.config.Compact); err != nil {
		return err
	}

	o := sum.Overall
	rows := [][]string{
		{"Fasts", fmt.Sprintf("%d", o.Count)},
		{"Completed", fmt.Sprintf("%d", o.Completed)},
		{"Goal met", fmt.Sprintf("%d (%s)", o.TargetMet, formatPercent(o.CompletionRate))},
		{"Total fasted", FormatDuration(o.Total)},
		{"Average", FormatDuration(o.Average)},
		{"Median", FormatDuration(o.Median)},
		{"Shortest", FormatDuration(o.Min)},
		{"Longest", FormatDuration(o.Max)},
		{"Current streak", pluralDays(sum.Streaks.Current)},
		{"Longest streak", pluralDays(sum.Streaks.Longest)},
	}
	if o.Count == 0 {
		rows = nil
	}
	if err := f.writeTable(w, []string{"Metric", "Value"}, rows); err != nil {
		return err
	}

	if len(sum.Groups) == 0 {
		return nil
	}

	keys := make([]string, 0, len(sum.Groups))
	for k := range sum.Groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	groupRows := make([][]string, 0, len(keys))
	for _, k := range keys {
		g := sum.Groups[k]
		groupRows = append(groupRows, []string{
			k,
			fmt.Sprintf("%d", g.Count),
			fmt.Sprintf("%d", g.TargetMet),
			formatPercent(g.CompletionRate),
			FormatDuration(g.Average),
			FormatDuration(g.Total),
		})
	}

	if err := writeHeader(w, sty.render(sty.title, "By Group"), f.config.Compact); err != nil {
		return err
	}
	return f.writeTable(w, []string{"Group", "Fasts", "Met", "Rate", "Average", "Total"}, groupRows)
}

// FormatProtocols implements Formatter.
func (f *tableFormatter) FormatProtocols(w io.Writer, protocols []protocol.Protocol) error {
	sty := newStyles(w, f.config.Color)
	if err := writeHeader(w, sty.render(sty.title, "Protocols"), f.config.Compact); err != nil {
		return err
	}

	rows := make([][]string, 0, len(protocols))
	for _, p := range protocols {
		kind := "standard"
		if p.Custom {
			kind = "custom"
		}
		rows = append(rows, []string{
			p.ID,
			formatHours(p.FastingHours),
			formatHours(p.EatingHours),
			kind,
		})
	}

	return f.writeTable(w, []string{"ID", "Fasting", "Eating", "Kind"}, rows)
}

func (f *tableFormatter) dateTime(t time.Time) string {
	t = t.In(f.config.Location)
	return FormatDate(t) + " " + FormatTime(t, f.config.Use24Hour)
}

func (f *tableFormatter) clock(t time.Time) string {
	return FormatTime(t.In(f.config.Location), f.config.Use24Hour)
}

// writeTable writes a formatted table.
func (f *tableFormatter) writeTable(w io.Writer, header []string, rows [][]string) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No data")
		return err
	}

	// Column widths ignore ANSI styling.
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}

	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	if err := f.writeRow(w, header, widths); err != nil {
		return err
	}

	if !f.config.Compact {
		separator := make([]string, len(header))
		for i, width := range widths {
			separator[i] = strings.Repeat("-", width)
		}
		if err := f.writeRow(w, separator, widths); err != nil {
			return err
		}
	}

	for _, row := range rows {
		if err := f.writeRow(w, row, widths); err != nil {
			return err
		}
	}

	if !f.config.Compact {
		_, err := fmt.Fprintln(w)
		return err
	}

	return nil
}

// writeRow writes a single table row. The last cell is not padded.
func (f *tableFormatter) writeRow(w io.Writer, cells []string, widths []int) error {
	gap := "  "
	if f.config.Compact {
		gap = " "
	}

	var b strings.Builder
	for i, cell := range cells {
		if i > 0 {
			b.WriteString(gap)
		}
		b.WriteString(cell)
		if i < len(cells)-1 && i < len(widths) {
			b.WriteString(strings.Repeat(" ", widths[i]-lipgloss.Width(cell)))
		}
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// sessionStatus describes the outcome of s at now.
func sessionStatus(s session.Session, now time.Time) string {
	if s.End == nil {
		if s.Duration(now) >= s.Protocol.FastingDuration() {
			return "Goal reached"
		}
		return "In Progress"
	}
	if s.Duration(now) >= s.Protocol.FastingDuration() {
		return "Met"
	}
	return "Missed"
}

func formatHours(h float64) string {
	return fmt.Sprintf("%gh", h)
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
