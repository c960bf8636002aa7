// ABOUTME: Time helpers for --since filters on history, favorites and trash listings
// ABOUTME: Periods are computed relative to a caller-supplied now so the service clock stays in control

package timeutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// StartOfDay returns midnight of t's day in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns midnight of the most recent Sunday.
// Note: Week starts on Sunday
func StartOfWeek(t time.Time) time.Time {
	today := StartOfDay(t)
	return today.AddDate(0, 0, -int(today.Weekday()))
}

// StartOfMonth returns midnight of the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// StartOfYear returns midnight of January 1st of t's year.
func StartOfYear(t time.Time) time.Time {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
}

// ParsePeriod converts a period string into a cutoff time relative to now.
// Supported values: "today", "yesterday", "week", "month", "year", a day
// count like "7d", a Go duration like "36h", or a date (2006-01-02) or RFC 3339 timestamp.
func ParsePeriod(period string, now time.Time) (time.Time, error) {
	p := strings.ToLower(strings.TrimSpace(period))
	switch p {
	case "":
		return time.Time{}, nil
	case "today":
		return StartOfDay(now), nil
	case "yesterday":
		return StartOfDay(now).AddDate(0, 0, -1), nil
	case "week":
		return StartOfWeek(now), nil
	case "month":
		return StartOfMonth(now), nil
	case "year":
		return StartOfYear(now), nil
	}

	if strings.HasSuffix(p, "d") {
		if n, err := strconv.Atoi(strings.TrimSuffix(p, "d")); err == nil && n >= 0 {
			return now.AddDate(0, 0, -n), nil
		}
	}
	if d, err := time.ParseDuration(p); err == nil && d >= 0 {
		return now.Add(-d), nil
	}
	if t, err := time.ParseInLocation("2006-01-02", period, now.Location()); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, period); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized period %q (try today, week, month, 7d, 24h or 2006-01-02)", period)
}
