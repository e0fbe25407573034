package stats

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/0xmhha/fastm8/pkg/session"
)

// Aggregator accumulates fasts and computes statistics.
type Aggregator struct {
	config Config

	mu      sync.RWMutex
	overall bucket
	groups  map[string]*bucket
	days    map[string]bool // YYYY-MM-DD with a target-met fast
}

// bucket holds running totals for one group.
type bucket struct {
	stats     Statistics
	durations []time.Duration
}

// New creates an aggregator.
func New(cfg Config) *Aggregator {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Aggregator{
		config: cfg,
		groups: make(map[string]*bucket),
		days:   make(map[string]bool),
	}
}

// Add adds one fast.
func (a *Aggregator) Add(s session.Session) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.overall.add(s)

	if key := a.groupKey(s); key != "" {
		b, ok := a.groups[key]
		if !ok {
			b = &bucket{}
			a.groups[key] = b
		}
		b.add(s)
	}

	if s.End != nil && targetMet(s) {
		a.days[dayKey(s.End.In(a.config.Location))] = true
	}
}

// AddAll adds every fast in sessions.
func (a *Aggregator) AddAll(sessions []session.Session) {
	for _, s := range sessions {
		a.Add(s)
	}
}

// Stats returns statistics over every fast added.
func (a *Aggregator) Stats() Statistics {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.overall.finish()
}

// GroupedStats returns statistics per group; empty without GroupBy.
func (a *Aggregator) GroupedStats() map[string]Statistics {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make(map[string]Statistics, len(a.groups))
	for key, b := range a.groups {
		out[key] = b.finish()
	}
	return out
}

// GroupKeys returns the group keys in ascending order.
func (a *Aggregator) GroupKeys() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	keys := make([]string, 0, len(a.groups))
	for k := range a.groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Streaks returns the current and longest streak as of now.
func (a *Aggregator) Streaks(now time.Time) Streaks {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var st Streaks
	if len(a.days) == 0 {
		return st
	}

	days := make([]time.Time, 0, len(a.days))
	for k := range a.days {
		d, err := time.ParseInLocation("2006-01-02", k, a.config.Location)
		if err == nil {
			days = append(days, d)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	run := 0
	for i, d := range days {
		if i > 0 && isNextDay(days[i-1], d) {
			run++
		} else {
			run = 1
		}
		if run > st.Longest {
			st.Longest = run
		}
	}

	today := now.In(a.config.Location)
	last := days[len(days)-1]
	if dayKey(last) == dayKey(today) || isNextDay(last, today) {
		st.Current = run
	}
	return st
}

// Summary returns overall and grouped statistics plus streaks.
func (a *Aggregator) Summary(now time.Time) Summary {
	sum := Summary{
		Overall: a.Stats(),
		Streaks: a.Streaks(now),
	}
	if a.config.GroupBy != DimNone {
		sum.Groups = a.GroupedStats()
	}
	return sum
}

// Reset clears all accumulated data.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.overall = bucket{}
	a.groups = make(map[string]*bucket)
	a.days = make(map[string]bool)
}

// groupKey returns the group of s under the configured dimension.
func (a *Aggregator) groupKey(s session.Session) string {
	switch a.config.GroupBy {
	case DimProtocol:
		return s.Protocol.ID
	case DimWeek:
		year, week := s.Start.In(a.config.Location).ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case DimMonth:
		return s.Start.In(a.config.Location).Format("2006-01")
	default:
		return ""
	}
}

func (b *bucket) add(s session.Session) {
	st := &b.stats
	st.Count++
	if st.FirstStart.IsZero() || s.Start.Before(st.FirstStart) {
		st.FirstStart = s.Start
	}
	if s.Start.After(st.LastStart) {
		st.LastStart = s.Start
	}

	if s.End == nil {
		return
	}

	d := s.End.Sub(s.Start)
	st.Completed++
	st.Total += d
	if targetMet(s) {
		st.TargetMet++
	}
	if st.Completed == 1 || d < st.Min {
		st.Min = d
	}
	if d > st.Max {
		st.Max = d
		st.LongestID = s.ID
	}
	b.durations = append(b.durations, d)
}

// finish derives averages and ratios.
func (b *bucket) finish() Statistics {
	st := b.stats
	if st.Completed == 0 {
		return st
	}

	st.Average = st.Total / time.Duration(st.Completed)
	st.CompletionRate = float64(st.TargetMet) / float64(st.Completed)

	sorted := make([]time.Duration, len(b.durations))
	copy(sorted, b.durations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		st.Median = sorted[mid]
	} else {
		st.Median = (sorted[mid-1] + sorted[mid]) / 2
	}
	return st
}

func targetMet(s session.Session) bool {
	return s.End != nil && s.End.Sub(s.Start) >= s.Protocol.FastingDuration()
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// isNextDay reports whether b is the calendar day after a.
func isNextDay(a, b time.Time) bool {
	next := time.Date(a.Year(), a.Month(), a.Day()+1, 0, 0, 0, 0, a.Location())
	return dayKey(next) == dayKey(b.In(a.Location()))
}
