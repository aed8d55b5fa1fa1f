// Package datetime provides date and time utility functions.
package datetime

import (
	"strings"
	"time"

	"github.com/ipeadata-tools/inflation-indices/pkg/constants"
)

const (
	// DateLayout is the date format of the dataset file.
	DateLayout = constants.DateLayout
)

// acceptedLayouts lists the layouts ParseDate tries, in order.
var acceptedLayouts = []string{
	constants.DateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"02/01/2006",
	constants.MonthLayout,
}

// MustParseTime parses a date string using the given layout and panics on error.
// This is intended for use in tests where the date string is known to be valid.
func MustParseTime(layout, dateStr string) time.Time {
	t, err := time.Parse(layout, dateStr)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseDate parses a dataset date cell. Any of the accepted layouts is tried;
// the result is truncated to the calendar day in UTC.
func ParseDate(value string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, false
	}
	for _, layout := range acceptedLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return Day(t), true
		}
	}
	return time.Time{}, false
}

// Day drops the clock and zone of t, keeping the calendar date as written.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// MonthStart returns the first day of the given year and month in UTC.
func MonthStart(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

// Format renders a date in the dataset layout, or "" for the zero time.
func Format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// WithinRange reports whether t lies in [start, end]. A zero bound is open.
func WithinRange(t, start, end time.Time) bool {
	if !start.IsZero() && t.Before(start) {
		return false
	}
	if !end.IsZero() && t.After(end) {
		return false
	}
	return true
}
