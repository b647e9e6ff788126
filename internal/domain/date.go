package domain

import "time"

// Date returns midnight UTC of the given calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return Date(t.Year(), t.Month(), t.Day())
}

// DaysBetween returns the number of whole days from a to b.
func DaysBetween(a, b time.Time) int64 {
	return int64(Day(b).Sub(Day(a)) / (24 * time.Hour))
}
