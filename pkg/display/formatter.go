package display

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// DefaultBarWidth is the progress bar width when none is configured.
const DefaultBarWidth = 30

// New creates a new formatter based on configuration.
func New(cfg Config) Formatter {
	if cfg.Format == "" {
		cfg.Format = FormatTable
	}
	if cfg.BarWidth <= 0 {
		cfg.BarWidth = DefaultBarWidth
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	switch cfg.Format {
	case FormatJSON:
		return &jsonFormatter{config: cfg}
	case FormatSimple:
		return &simpleFormatter{config: cfg}
	case FormatTable:
		fallthrough
	default:
		return &tableFormatter{config: cfg}
	}
}

// FormatDate formats t as "Jan 2, 2006".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006")
}

// FormatTime formats the clock time of t as "15:04" or "03:04 PM".
func FormatTime(t time.Time, use24Hour bool) string {
	if t.IsZero() {
		return ""
	}
	if use24Hour {
		return t.Format("15:04")
	}
	return t.Format("03:04 PM")
}

// FormatDuration formats d as "Xh Ym", or "Ym" under an hour. Partial
// minutes are dropped.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d / time.Hour)
	minutes := int(d % time.Hour / time.Minute)
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

// CalculateDuration describes how long a fast lasted: "In Progress" while
// end is nil, otherwise FormatDuration of its length.
func CalculateDuration(start time.Time, end *time.Time) string {
	if start.IsZero() {
		return ""
	}
	if end == nil {
		return "In Progress"
	}
	return FormatDuration(end.Sub(start))
}

// progressBar renders a bar of width cells filled to percent.
func progressBar(percent float64, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 1 {
		percent = 1
	}
	filled := int(percent*float64(width) + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// formatPercent formats a ratio as a percentage with one decimal.
func formatPercent(r float64) string {
	return fmt.Sprintf("%.1f%%", r*100)
}

// writeHeader writes a section header.
func writeHeader(w io.Writer, title string, compact bool) error {
	if compact {
		_, err := fmt.Fprintf(w, "%s\n", title)
		return err
	}

	_, err := fmt.Fprintf(w, "\n%s\n%s\n\n", title, strings.Repeat("=", len(title)))
	return err
}
