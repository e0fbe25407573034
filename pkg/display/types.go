// Package display provides output formatting for fasting state, history,
// and statistics.
//
// It supports multiple output formats (table, JSON, simple text). Table
// output can be coloured; colour is only applied when the destination is a
// terminal that supports it.
package display

import (
	"io"
	"time"

	"github.com/0xmhha/fastm8/pkg/protocol"
	"github.com/0xmhha/fastm8/pkg/session"
	"github.com/0xmhha/fastm8/pkg/stats"
	"github.com/0xmhha/fastm8/pkg/window"
)

// Format represents an output format.
type Format string

const (
	// FormatTable displays data in formatted tables.
	FormatTable Format = "table"

	// FormatJSON displays data as JSON.
	FormatJSON Format = "json"

	// FormatSimple displays data as short lines of text.
	FormatSimple Format = "simple"
)

// ValidFormat reports whether f names a supported format.
func ValidFormat(f Format) bool {
	switch f {
	case FormatTable, FormatJSON, FormatSimple:
		return true
	default:
		return false
	}
}

// Formatter formats and displays fasting data.
type Formatter interface {
	// FormatState formats the current window state.
	FormatState(w io.Writer, st window.State) error

	// FormatHistory formats a list of sessions, oldest first.
	FormatHistory(w io.Writer, sessions []session.Session, now time.Time) error

	// FormatStats formats a statistics summary.
	FormatStats(w io.Writer, sum stats.Summary) error

	// FormatProtocols formats the protocol catalog.
	FormatProtocols(w io.Writer, protocols []protocol.Protocol) error
}

// Config contains formatter configuration.
type Config struct {
	// Format specifies the output format.
	// Default: FormatTable.
	Format Format

	// Use24Hour shows clock times as 15:04 instead of 03:04 PM.
	Use24Hour bool

	// Color enables ANSI styling in table output.
	Color bool

	// Compact enables compact output (less whitespace).
	Compact bool

	// BarWidth is the width of the progress bar in cells.
	// Default: 30.
	BarWidth int

	// Location is used for dates and times (default: time.Local).
	Location *time.Location
}
