package sync

import (
	"fmt"
	"time"
)

// ParseTimestamp tries common SQLite and RFC 3339 timestamp formats.
func ParseTimestamp(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999Z07:00",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05.999999999-07:00",
		"2006-01-02T15:04:05.999999999Z07:00",
		"2006-01-02T15:04:05.999999999",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format: %q", s)
}

// FormatTimestamp renders a timestamp in the canonical stored form, UTC
// RFC 3339. Canonical strings compare lexicographically in time order.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// StrictlyNewer reports whether a is after b. Equal timestamps are not
// newer, so ties resolve to a no-op in both sync directions.
func StrictlyNewer(a, b time.Time) bool {
	return a.After(b)
}
