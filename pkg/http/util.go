package http

import (
	"time"

	xutil "catalytics/pkg/util"
)

// ParseDateRange parses the start/end query values into UTC days.
func ParseDateRange(start, end string) (time.Time, time.Time, error) {
	return xutil.ParseRange(start, end)
}

// SplitList parses a comma separated query value.
func SplitList(s string) []string { return xutil.SplitList(s) }
