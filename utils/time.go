package utils

import (
	"fmt"
	"time"

	"github.com/meinhoongagan/petrent-api/models"
)

const DateLayout = "2006-01-02"

// ParseDate accepts YYYY-MM-DD or RFC3339 and returns midnight UTC of that day.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return models.DateOnly(t), nil
}

// ParseDateRange parses both ends and requires start before end.
func ParseDateRange(start, end string) (time.Time, time.Time, error) {
	s, err := ParseDate(start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !s.Before(e) {
		return time.Time{}, time.Time{}, ErrInvalidRange
	}
	return s, e, nil
}

// MonthBounds returns the first and last day of t's month.
func MonthBounds(t time.Time) (time.Time, time.Time) {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first, first.AddDate(0, 1, -1)
}
