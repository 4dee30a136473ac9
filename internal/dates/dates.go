// Package dates handles calendar dates (no time of day) for stays.
package dates

import (
	"fmt"
	"math"
	"time"
)

const Layout = "2006-01-02"

// Parse reads a YYYY-MM-DD date as UTC midnight.
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

// Day drops the time of day, keeping the calendar date t has in its own
// location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func Format(t time.Time) string {
	return Day(t).Format(Layout)
}

// Nights counts billable nights between two dates by calendar day. Any
// started night counts, so the result is rounded up.
func Nights(start, end time.Time) int {
	hours := Day(end).Sub(Day(start)).Hours()
	return int(math.Ceil(hours / 24))
}
