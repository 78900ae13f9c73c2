// Package datetime provides date and time utility functions.
package datetime

import (
	"time"

	"github.com/iwvelando/debt-engine/pkg/calcerr"
	"github.com/iwvelando/debt-engine/pkg/constants"
)

const (
	// DateLayout is the format expected in config files and requests.
	DateLayout = constants.DateLayout

	// MonthLayout is the month-granularity format used in reports.
	MonthLayout = constants.MonthLayout
)

// ParseDate accepts either YYYY-MM-DD or YYYY-MM; a month-only date resolves
// to the first of that month. Other input fails with calcerr.ErrInvalidInput.
func ParseDate(value string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(MonthLayout, value)
	if err != nil {
		return time.Time{}, calcerr.Invalid("invalid date %q: expected %s or %s", value, DateLayout, MonthLayout)
	}
	return t, nil
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonths moves t by the given number of calendar months, keeping the day
// of month where possible and clamping it to the last day otherwise
// (Jan 31 + 1 month = Feb 28/29, never Mar 3).
func AddMonths(t time.Time, months int) time.Time {
	return AddMonthsOnDay(t, months, t.Day())
}

// AddMonthsOnDay moves t by the given number of months and places the result
// on day, clamped to the length of the target month.
func AddMonthsOnDay(t time.Time, months, day int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	target := first.AddDate(0, months, 0)
	if last := DaysInMonth(target.Year(), target.Month()); day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return target.AddDate(0, 0, day-1)
}

// MonthsBetween returns the number of whole calendar months from start to
// end, ignoring the day of month. Negative when end precedes start.
func MonthsBetween(start, end time.Time) int {
	return (end.Year()-start.Year())*constants.MonthsPerYear + int(end.Month()) - int(start.Month())
}
