package reminder

import (
	"time"

	"event_reminder_bot/internal/domain/event"
)

// DateOnly truncates t to midnight in its own location. All engine
// date arithmetic runs on date-only values; time-of-day is never
// tracked.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// NextOccurrence resolves the next concrete occurrence of a recurring
// pattern on or after today. Today itself counts as an occurrence.
//
// WEEKLY preserves the anchor's weekday. MONTHLY preserves the anchor's
// day-of-month, clamped to the last valid day of the target month (an
// anchor on the 31st fires on the 30th of a 30-day month). YEARLY
// preserves the anchor's month and day, with Feb-29 anchors clamped to
// Feb 28 in non-leap years.
//
// The function is total: clamping absorbs every calendar edge case, and
// a kind that is not a recurring policy resolves to today.
func NextOccurrence(anchor time.Time, kind event.RemindPolicy, today time.Time) time.Time {
	anchor = DateOnly(anchor)
	today = DateOnly(today)
	loc := today.Location()

	switch kind {
	case event.PolicyWeekly:
		delta := (int(anchor.Weekday()) - int(today.Weekday()) + 7) % 7
		return today.AddDate(0, 0, delta)
	case event.PolicyMonthly:
		candidate := clampedDate(today.Year(), today.Month(), anchor.Day(), loc)
		if candidate.Before(today) {
			// time.Date normalizes month 13 into January next year.
			candidate = clampedDate(today.Year(), today.Month()+1, anchor.Day(), loc)
		}
		return candidate
	case event.PolicyYearly:
		candidate := clampedDate(today.Year(), anchor.Month(), anchor.Day(), loc)
		if candidate.Before(today) {
			candidate = clampedDate(today.Year()+1, anchor.Month(), anchor.Day(), loc)
		}
		return candidate
	default:
		return today
	}
}

// clampedDate builds a date in the given year and month, clamping day
// to the last valid day of that month.
func clampedDate(year int, month time.Month, day int, loc *time.Location) time.Time {
	if last := daysInMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

// daysInMonth returns the number of days in the given month. Day zero
// of the following month is the last day of this one.
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
