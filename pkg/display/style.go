package display

import (
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/0xmhha/fastm8/pkg/window"
)

// styles holds the lipgloss styles used by table output. A zero styles
// value renders text unchanged.
type styles struct {
	enabled bool
	title   lipgloss.Style
	label   lipgloss.Style
	fasting lipgloss.Style
	eating  lipgloss.Style
	overrun lipgloss.Style
	idle    lipgloss.Style
	bar     lipgloss.Style
}

// newStyles builds styles for w. The renderer picks the colour profile of
// w, so output written to a file or buffer stays plain.
func newStyles(w io.Writer, enabled bool) styles {
	if !enabled {
		return styles{}
	}
	r := lipgloss.NewRenderer(w)
	return styles{
		enabled: true,
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		label:   r.NewStyle().Foreground(lipgloss.Color("245")),
		fasting: r.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		eating:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		overrun: r.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		idle:    r.NewStyle().Foreground(lipgloss.Color("245")),
		bar:     r.NewStyle().Foreground(lipgloss.Color("39")),
	}
}

func (s styles) render(st lipgloss.Style, text string) string {
	if !s.enabled {
		return text
	}
	return st.Render(text)
}

// phase renders the phase name in its colour.
func (s styles) phase(st window.State) string {
	name := phaseLabel(st)
	switch {
	case st.Completed:
		return s.render(s.idle, name)
	case st.Overrun():
		return s.render(s.overrun, name)
	case st.Phase == window.Fasting:
		return s.render(s.fasting, name)
	case st.Phase == window.Eating:
		return s.render(s.eating, name)
	default:
		return s.render(s.idle, name)
	}
}

// phaseLabel is the human name of the state's phase.
func phaseLabel(st window.State) string {
	switch {
	case st.Completed && st.TargetMet:
		return "Ended (goal met)"
	case st.Completed:
		return "Ended (goal missed)"
	case st.Overrun():
		return "Eating window over"
	case st.Phase == window.Fasting:
		return "Fasting"
	case st.Phase == window.Eating:
		return "Eating window"
	default:
		return "Idle"
	}
}

// fastedFor is the total time since the fast started.
func fastedFor(st window.State) time.Duration {
	if st.Session == nil {
		return 0
	}
	if st.Completed || st.Phase == window.Fasting {
		return st.Elapsed
	}
	return st.FastingEnds.Sub(st.Session.Start) + st.Elapsed
}
