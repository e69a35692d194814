package utils

import (
	"time"
)

// DateToUnix converts a YYYY-MM-DD date string to a Unix timestamp at midnight UTC.
// This is the canonical storage format for all dates in the database.
func DateToUnix(date string) (int64, error) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return 0, err
	}
	return t.Unix(), nil
}

// UnixToDate converts a Unix timestamp back to a YYYY-MM-DD date string (UTC).
func UnixToDate(ts int64) string {
	return time.Unix(ts, 0).UTC().Format("2006-01-02")
}

// DaysBetween returns the absolute difference in calendar days between two
// YYYY-MM-DD dates. Returns an error if either date is unparseable.
func DaysBetween(a, b string) (int, error) {
	ta, err := time.Parse("2006-01-02", a)
	if err != nil {
		return 0, err
	}
	tb, err := time.Parse("2006-01-02", b)
	if err != nil {
		return 0, err
	}
	days := int(ta.Sub(tb).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days, nil
}
