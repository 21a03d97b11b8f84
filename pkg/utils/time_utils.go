package utils

import (
	"time"
)

// DateKeyLayout is the folder-name form of a calendar date.
const DateKeyLayout = "2006-01-02"

// DateKey renders t as a YYYY-MM-DD key in the given location. A nil
// location falls back to UTC.
func DateKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateKeyLayout)
}

// ParseDriveTime parses the RFC3339 timestamps the storage backend returns
// in metadata. The zero time is returned on malformed input so callers can
// sort without caring about parse failures.
func ParseDriveTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
