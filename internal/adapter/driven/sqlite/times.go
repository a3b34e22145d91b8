package sqlite

import (
	"fmt"
	"time"
)

// Timestamps are stored as UTC RFC3339 strings. Fixed-width second
// precision keeps lexicographic ordering chronological, which the cursor
// table's MAX() guard depends on.
const timeFormat = time.RFC3339

func formatTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(timeFormat)
}

// timeFormats covers the representations SQLite hands back: values we wrote
// via formatTime and CURRENT_TIMESTAMP defaults.
var timeFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
