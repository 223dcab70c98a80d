package models

import (
	"math"
	"time"
)

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysInclusive counts calendar days in [start, end], both ends included.
func DaysInclusive(start, end time.Time) int {
	return int(DateOnly(end).Sub(DateOnly(start)).Hours()/24) + 1
}

// RangesOverlap reports whether two inclusive date ranges share a day.
func RangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !bStart.After(aEnd)
}

// RoundMoney rounds to cents.
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

func Percentage(amount, pct float64) float64 {
	return RoundMoney(amount * pct / 100)
}
