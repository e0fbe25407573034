package main

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// errInvalidTime is returned when a --at style value cannot be parsed.
var errInvalidTime = errors.New("invalid time: use RFC 3339, \"2006-01-02 15:04\", \"15:04\" or a negative duration like -2h30m")

// parseAt turns a user supplied time into an instant. Accepted forms:
//
//	2024-03-01T20:00:00+01:00   RFC 3339
//	2024-03-01 20:00            local date and time
//	20:00                       today, local time
//	-2h30m                      relative to now
//
// An empty value yields the zero time, meaning "now" to the manager.
func parseAt(value string, now time.Time, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}

	if strings.HasPrefix(value, "-") {
		d, err := time.ParseDuration(value)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", errInvalidTime, value)
		}
		return now.Add(d), nil
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}

	if t, err := time.ParseInLocation("2006-01-02 15:04", value, loc); err == nil {
		return t, nil
	}

	if t, err := time.ParseInLocation("15:04", value, loc); err == nil {
		local := now.In(loc)
		return time.Date(local.Year(), local.Month(), local.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
	}

	return time.Time{}, fmt.Errorf("%w: %q", errInvalidTime, value)
}

// parseOptionalAt is parseAt for patch fields: empty means "unchanged".
func parseOptionalAt(value string, now time.Time, loc *time.Location) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	t, err := parseAt(value, now, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
