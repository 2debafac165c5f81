package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// TimeLayout is the layout every store uses for TEXT timestamp columns.
// Fixed-width fractional seconds keep ORDER BY on the text column chronological.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// FormatTime renders t for a TEXT column, always in UTC.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// NullTime renders t for a nullable TEXT column; the zero time becomes NULL.
func NullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return FormatTime(t)
}

// ParseTime reads a TEXT timestamp written by FormatTime or by SQLite's datetime().
func ParseTime(s string) (time.Time, error) {
	for _, f := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time: %s", s)
}

// ParseNullTime reads a nullable TEXT timestamp; NULL and "" yield the zero time.
func ParseNullTime(ns sql.NullString) (time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return time.Time{}, nil
	}
	return ParseTime(ns.String)
}
