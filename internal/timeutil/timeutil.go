// Package timeutil provides utility functions and types for working with
// time-related operations.
package timeutil

import (
	"fmt"
	"math"
	"time"

	"github.com/ayoisaiah/studytime/internal/apperr"
)

// DayLayout is the calendar-day format used for cycle and recovery keys.
const DayLayout = "2006-01-02"

const secondsInAMinute = 60

var errUnknownPeriod = &apperr.Error{
	Message: "unknown period %q",
}

// Period is a named reporting window ending today.
type Period string

const (
	PeriodAllTime   Period = "all-time"
	PeriodToday     Period = "today"
	PeriodYesterday Period = "yesterday"
	Period7Days     Period = "7days"
	Period30Days    Period = "30days"
	Period365Days   Period = "365days"
)

// Range maps a period to its starting day offset relative to today.
var Range = map[Period]int{
	PeriodAllTime:   0,
	PeriodToday:     0,
	PeriodYesterday: -1,
	Period7Days:     -6,
	Period30Days:    -29,
	Period365Days:   -364,
}

// Bounds returns the start and end of period p as seen from now. The start
// is zero for PeriodAllTime.
func Bounds(p Period, now time.Time) (start, end time.Time, err error) {
	offset, ok := Range[p]
	if !ok {
		return start, end, errUnknownPeriod.Fmt(p)
	}

	end = RoundToEnd(now)

	if p == PeriodAllTime {
		return time.Time{}, end, nil
	}

	start = RoundToStart(now.AddDate(0, 0, offset))

	if p == PeriodYesterday {
		end = RoundToEnd(start)
	}

	return start, end, nil
}

// Round rounds a time value in seconds, minutes, or hours to the nearest integer.
func Round(t float64) int {
	return int(math.Round(t))
}

// Seconds expresses d in whole seconds, rounded to the nearest second.
func Seconds(d time.Duration) int {
	return Round(d.Seconds())
}

// DayKey returns the local calendar day of t. Two instants belong to the same
// day iff their keys are equal.
func DayKey(t time.Time) string {
	return t.Local().Format(DayLayout)
}

// RoundToStart resets the given time to the start of the day.
func RoundToStart(t time.Time) time.Time {
	return time.Date(
		t.Year(),
		t.Month(),
		t.Day(),
		0,
		0,
		0,
		0,
		t.Location(),
	)
}

// RoundToEnd resets the given time to the end of the day.
func RoundToEnd(t time.Time) time.Time {
	return time.Date(
		t.Year(),
		t.Month(),
		t.Day(),
		23,
		59,
		59,
		0,
		t.Location(),
	)
}

// Clock formats d as MM:SS, or H:MM:SS when it spans an hour or more.
func Clock(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	total := int(d.Truncate(time.Second).Seconds())

	h := total / (secondsInAMinute * secondsInAMinute)
	m := (total / secondsInAMinute) % secondsInAMinute
	s := total % secondsInAMinute

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}

	return fmt.Sprintf("%02d:%02d", m, s)
}
