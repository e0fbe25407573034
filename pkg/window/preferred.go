package window

import (
	"fmt"
	"strings"
	"time"

	"github.com/0xmhha/fastm8/pkg/apperr"
)

var (
	// ErrInvalidClockTime is returned for times not in "HH:MM" form.
	ErrInvalidClockTime = apperr.New(apperr.KindValidation, "invalid clock time")

	// ErrEmptyWindow is returned when a preferred window starts where it ends.
	ErrEmptyWindow = apperr.New(apperr.KindValidation, "preferred eating window is empty")
)

// PreferredWindow is the daily span in which the user likes to eat,
// e.g. 10:00 to 18:00. Offsets are measured from local midnight; a window
// whose end is before its start wraps past midnight.
type PreferredWindow struct {
	Start time.Duration
	End   time.Duration
}

// DefaultPreferredWindow returns 10:00 to 18:00.
func DefaultPreferredWindow() PreferredWindow {
	return PreferredWindow{Start: 10 * time.Hour, End: 18 * time.Hour}
}

// ParsePreferredWindow builds a window from two "HH:MM" strings.
func ParsePreferredWindow(start, end string) (PreferredWindow, error) {
	s, err := parseClock(start)
	if err != nil {
		return PreferredWindow{}, err
	}
	e, err := parseClock(end)
	if err != nil {
		return PreferredWindow{}, err
	}
	if s == e {
		return PreferredWindow{}, ErrEmptyWindow.Wrapf("%s-%s", start, end)
	}
	return PreferredWindow{Start: s, End: e}, nil
}

// Length returns how long the window lasts.
func (w PreferredWindow) Length() time.Duration {
	if w.End > w.Start {
		return w.End - w.Start
	}
	return 24*time.Hour - w.Start + w.End
}

// Contains reports whether t falls inside the window, in t's location.
func (w PreferredWindow) Contains(t time.Time) bool {
	off := sinceMidnight(t)
	if w.Start < w.End {
		return off >= w.Start && off < w.End
	}
	return off >= w.Start || off < w.End
}

// NextFastStart returns the first window end strictly after now, which is
// when the next fast should begin.
func (w PreferredWindow) NextFastStart(now time.Time) time.Time {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	next := midnight.Add(w.End)
	if !next.After(now) {
		next = time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location()).Add(w.End)
	}
	return next
}

// String formats the window as "HH:MM-HH:MM".
func (w PreferredWindow) String() string {
	return formatClock(w.Start) + "-" + formatClock(w.End)
}

func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, ErrInvalidClockTime.Wrapf("%q", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func formatClock(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}

func sinceMidnight(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
}
