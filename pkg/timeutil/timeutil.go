// Package timeutil provides UTC calendar helpers for the analytics engine.
// The progress ledger, streak advancement, and history buckets all reason
// about whole days in UTC; keeping the day arithmetic here keeps the
// command and query layers agreeing on what "same day" means.
package timeutil

import "time"

// FormatDate is the canonical day key layout (YYYY-MM-DD).
const FormatDate = "2006-01-02"

// StartOfDay returns midnight UTC of the given time's day.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last representable instant of the given time's UTC day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// DayKey formats a time as its UTC day key (YYYY-MM-DD).
func DayKey(t time.Time) string {
	return t.UTC().Format(FormatDate)
}

// ParseDayKey parses a YYYY-MM-DD day key into midnight UTC of that day.
func ParseDayKey(key string) (time.Time, error) {
	return time.Parse(FormatDate, key)
}

// IsSameDay reports whether two times fall on the same UTC day.
func IsSameDay(a, b time.Time) bool {
	au, bu := a.UTC(), b.UTC()
	return au.Year() == bu.Year() && au.YearDay() == bu.YearDay()
}

// IsNextDay reports whether b falls on the UTC day immediately after a's.
// This is the streak-advancement test: same day holds, next day extends,
// anything else resets.
func IsNextDay(a, b time.Time) bool {
	return IsSameDay(StartOfDay(a).AddDate(0, 0, 1), b)
}

// DaysBetween returns the number of whole UTC days separating two times,
// always non-negative.
func DaysBetween(a, b time.Time) int {
	d := int(StartOfDay(b).Sub(StartOfDay(a)).Hours() / 24)
	if d < 0 {
		d = -d
	}
	return d
}

// LastNDays returns the start-of-day times for the n UTC days ending at
// (and including) the day of ref, oldest first.
func LastNDays(ref time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	start := StartOfDay(ref).AddDate(0, 0, -(n - 1))
	days := make([]time.Time, n)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days
}
