package schedule

import (
	"fmt"
	"time"
)

const dayLayout = "2006-01-02"

// StartOfDay returns midnight of t's calendar day in loc, regardless of the
// runtime default timezone.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// AddDays moves t forward (or backward) by whole calendar days, keeping
// midnight in t's location across DST shifts.
func AddDays(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+n, 0, 0, 0, 0, t.Location())
}

// AddMonths adds n calendar months, clamping the day-of-month to the last
// valid day of the target month (Jan 31 + 1 month -> Feb 28/29).
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	months := int(m) - 1 + n
	y += months / 12
	months %= 12
	if months < 0 {
		months += 12
		y--
	}
	target := time.Month(months + 1)
	if last := daysIn(y, target); d > last {
		d = last
	}
	return time.Date(y, target, d, 0, 0, 0, 0, t.Location())
}

// AddYears adds n years, clamping Feb 29 to Feb 28 on non-leap targets.
func AddYears(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	y += n
	if last := daysIn(y, m); d > last {
		d = last
	}
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// NextBusinessDay returns the first day strictly after t that is Mon-Fri, or
// Mon-Sat when includeSaturday is set. Sunday is always skipped.
func NextBusinessDay(t time.Time, includeSaturday bool) time.Time {
	d := AddDays(t, 1)
	for {
		switch d.Weekday() {
		case time.Sunday:
		case time.Saturday:
			if includeSaturday {
				return d
			}
		default:
			return d
		}
		d = AddDays(d, 1)
	}
}

// ParseDay parses a YYYY-MM-DD string as midnight in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dayLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// FormatDay renders t's calendar day as YYYY-MM-DD.
func FormatDay(t time.Time) string {
	return t.Format(dayLayout)
}

func daysIn(year int, month time.Month) int {
	// Day 0 of the next month normalizes to the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// dayNumber counts civil days since the Unix epoch, immune to DST-length
// days because it goes through the date fields.
func dayNumber(t time.Time) int {
	y, m, d := t.Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

func sameDay(a, b time.Time) bool {
	return dayNumber(a) == dayNumber(b)
}
