package schedule

import "time"

// maxIntervalWalk bounds the month/year search loops. Month lengths vary, so
// those rules walk the anchor's sequence instead of using closed-form
// arithmetic; 600 steps covers roughly fifty years of monthly occurrences
// and guarantees termination on degenerate input. Each step is computed
// directly from the anchor, never from the previous occurrence: an
// end-of-month clamp (Jan 31 -> Apr 30) must not shorten every later month
// in the sequence.
const maxIntervalWalk = 600

// IsDueOn reports whether an activity anchored at anchor is due on the ref
// calendar day. Both arguments are treated at day granularity. A reference
// day before the anchor is never due: the activity has not started yet.
func IsDueOn(r Rule, anchor, ref time.Time) bool {
	a := AddDays(anchor, 0)
	d := AddDays(ref, 0)
	if dayNumber(d) < dayNumber(a) {
		return false
	}
	switch r.Kind {
	case KindNone:
		return sameDay(a, d)
	case KindDays:
		return (dayNumber(d)-dayNumber(a))%r.interval() == 0
	case KindBusinessDays:
		return businessDay(d.Weekday(), r.IncludeSaturday)
	case KindMonths:
		return walkHits(d, func(i int) time.Time { return AddMonths(a, i*r.interval()) })
	case KindYears:
		return walkHits(d, func(i int) time.Time { return AddYears(a, i*r.interval()) })
	default:
		return false
	}
}

// NextDue returns the smallest due day on or after ref, or false when no
// such day exists (non-recurring activity already past its anchor,
// unresolvable rules, or a month/year walk that exhausts its bound).
func NextDue(r Rule, anchor, ref time.Time) (time.Time, bool) {
	a := AddDays(anchor, 0)
	d := AddDays(ref, 0)
	switch r.Kind {
	case KindNone:
		if dayNumber(a) >= dayNumber(d) {
			return a, true
		}
		return time.Time{}, false
	case KindDays:
		if dayNumber(d) <= dayNumber(a) {
			return a, true
		}
		n := r.interval()
		gap := dayNumber(d) - dayNumber(a)
		steps := (gap + n - 1) / n
		return AddDays(a, steps*n), true
	case KindBusinessDays:
		cur := d
		if dayNumber(cur) < dayNumber(a) {
			cur = a
		}
		if businessDay(cur.Weekday(), r.IncludeSaturday) {
			return cur, true
		}
		return NextBusinessDay(cur, r.IncludeSaturday), true
	case KindMonths:
		return walkForward(d, func(i int) time.Time { return AddMonths(a, i*r.interval()) })
	case KindYears:
		return walkForward(d, func(i int) time.Time { return AddYears(a, i*r.interval()) })
	default:
		return time.Time{}, false
	}
}

// NextAfter returns the first due day strictly after ref in the anchor's
// sequence, or false when the rule never produces one. History advancement
// goes through here so the occurrence it schedules is always a day the
// evaluator agrees is due: completing a clamped occurrence (Apr 30 for a
// Jan 31 quarterly anchor) lands the successor back on the anchor's day
// (Jul 31), not on the 30th.
func NextAfter(r Rule, anchor, ref time.Time) (time.Time, bool) {
	if !r.Recurs() {
		return time.Time{}, false
	}
	return NextDue(r, anchor, AddDays(ref, 1))
}

func businessDay(wd time.Weekday, includeSaturday bool) bool {
	switch wd {
	case time.Sunday:
		return false
	case time.Saturday:
		return includeSaturday
	default:
		return true
	}
}

// at computes occurrence i of the sequence from the anchor.
func walkHits(target time.Time, at func(i int) time.Time) bool {
	t := dayNumber(target)
	for i := 0; i < maxIntervalWalk; i++ {
		n := dayNumber(at(i))
		if n == t {
			return true
		}
		if n > t {
			return false
		}
	}
	return false
}

func walkForward(ref time.Time, at func(i int) time.Time) (time.Time, bool) {
	for i := 0; i < maxIntervalWalk; i++ {
		cur := at(i)
		if dayNumber(cur) >= dayNumber(ref) {
			return cur, true
		}
	}
	return time.Time{}, false
}
