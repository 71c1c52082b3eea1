package utils

import (
	"fmt"
	"time"
)

const dateKeyLayout = "2006-01-02"

// DateKey returns the calendar date key (YYYY-MM-DD) for a timestamp,
// in the timestamp's own location.
func DateKey(t time.Time) string {
	return t.Format(dateKeyLayout)
}

func ParseDateKey(key string) (time.Time, error) {
	t, err := time.Parse(dateKeyLayout, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", key)
	}
	return t, nil
}

// DayWindow returns the half-open interval [start, end) covering the
// calendar day of t.
func DayWindow(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.Add(24 * time.Hour)
}

// DisplayDate renders a date key for humans relative to now:
// "Today", "Yesterday", or "Jan 02".
func DisplayDate(key string, now time.Time) string {
	t, err := ParseDateKey(key)
	if err != nil {
		return key
	}
	today, _ := DayWindow(now)
	switch day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location()); {
	case day.Equal(today):
		return "Today"
	case day.Equal(today.AddDate(0, 0, -1)):
		return "Yesterday"
	default:
		return t.Format("Jan 02")
	}
}

// RecentDateKeys lists the last n date keys ending at now, oldest first.
func RecentDateKeys(now time.Time, n int) []string {
	keys := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		keys = append(keys, DateKey(now.AddDate(0, 0, -i)))
	}
	return keys
}
