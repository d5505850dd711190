package library

import (
	"math"
	"time"
)

// Fine returns the amount owed for a loan due on due, as of today. The first
// graceDays overdue days are free. Sentinel or unparseable dates owe nothing.
func Fine(due string, finePerDay float64, today time.Time, graceDays int) float64 {
	if due == "" || due == Sentinel || finePerDay <= 0 {
		return 0
	}
	d, err := time.ParseInLocation(DateLayout, due, today.Location())
	if err != nil {
		return 0
	}
	days := daysBetween(d, today) - graceDays
	if days <= 0 {
		return 0
	}
	return float64(days) * finePerDay
}

// daysBetween counts calendar days from a to b, ignoring the time of day.
func daysBetween(a, b time.Time) int {
	a = midnight(a)
	b = midnight(b.In(a.Location()))
	return int(math.Round(b.Sub(a).Hours() / 24))
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
