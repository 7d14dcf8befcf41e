package util

import (
	"fmt"
	"strings"
	"time"
)

// dayLayouts are the only timestamp shapes accepted for date-keyed series.
var dayLayouts = []string{
	time.DateOnly,
	time.DateTime,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05-07",
	time.RFC3339,
	time.RFC3339Nano,
}

// ParseDay parses s with one of the accepted layouts and truncates it to its UTC
// day. A timestamp carrying an offset lands on the UTC calendar day of that
// instant, which may differ from the date as written.
func ParseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayKey formats t as its UTC calendar date.
func DayKey(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

// ParseRange parses an inclusive [start, end] day range.
func ParseRange(start, end string) (time.Time, time.Time, error) {
	from, err := ParseDay(start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start: %w", err)
	}
	to, err := ParseDay(end)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end: %w", err)
	}
	return from, to, nil
}

// DaysBetween counts calendar days in [from, to]; zero when to precedes from.
func DaysBetween(from, to time.Time) int {
	from, to = Day(from), Day(to)
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from).Hours()/24) + 1
}
