// Package stats summarises a fasting history.
//
// It aggregates completed fasts into totals, averages, and completion rates,
// optionally grouped by protocol, week, or month, and computes streaks of
// days on which a fast reached its target.
//
// Example usage:
//
//	agg := stats.New(stats.Config{GroupBy: stats.DimProtocol})
//	agg.AddAll(mgr.Sessions())
//
//	s := agg.Stats()
//	fmt.Printf("Completed: %d, target met: %.0f%%\n", s.Completed, s.CompletionRate*100)
//	fmt.Printf("Current streak: %d days\n", agg.Streaks(time.Now()).Current)
package stats

import "time"

// Dimension represents a grouping dimension.
type Dimension string

const (
	// DimNone disables grouping.
	DimNone Dimension = ""

	// DimProtocol groups by protocol ID.
	DimProtocol Dimension = "protocol"

	// DimWeek groups by ISO week of the start (YYYY-Www).
	DimWeek Dimension = "week"

	// DimMonth groups by month of the start (YYYY-MM).
	DimMonth Dimension = "month"
)

// Config contains aggregator configuration.
type Config struct {
	// GroupBy selects the grouping dimension.
	GroupBy Dimension

	// Location is used for calendar grouping and streaks (default: time.Local).
	Location *time.Location
}

// Statistics summarises a set of fasts.
//
// Durations only consider completed fasts.
type Statistics struct {
	// Count is the number of fasts, including one in progress.
	Count int `json:"count"`

	// Completed is the number of fasts that have ended.
	Completed int `json:"completed"`

	// TargetMet is the number of completed fasts that reached their
	// fasting hours.
	TargetMet int `json:"target_met"`

	// CompletionRate is TargetMet / Completed, or 0 with no completed fasts.
	CompletionRate float64 `json:"completion_rate"`

	// Total is the summed length of completed fasts.
	Total time.Duration `json:"total"`

	// Average is Total / Completed.
	Average time.Duration `json:"average"`

	// Min is the shortest completed fast.
	Min time.Duration `json:"min"`

	// Max is the longest completed fast.
	Max time.Duration `json:"max"`

	// Median is the median completed fast length.
	Median time.Duration `json:"median"`

	// LongestID is the ID of the longest completed fast.
	LongestID string `json:"longest_id,omitempty"`

	// FirstStart is the earliest start seen.
	FirstStart time.Time `json:"first_start"`

	// LastStart is the latest start seen.
	LastStart time.Time `json:"last_start"`
}

// Streaks counts consecutive days with a fast that met its target,
// keyed by the day the fast ended.
type Streaks struct {
	// Current is the streak ending today or yesterday.
	Current int `json:"current"`

	// Longest is the longest streak ever.
	Longest int `json:"longest"`
}

// Summary bundles everything a history report shows.
type Summary struct {
	Overall Statistics            `json:"overall"`
	Groups  map[string]Statistics `json:"groups,omitempty"`
	Streaks Streaks               `json:"streaks"`
}
