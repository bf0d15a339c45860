package reminders

import (
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar-date form used for every due comparison.
const DateLayout = "2006-01-02"

// ParseDueDate resolves a raw due-date value to a UTC calendar date.
//
// Integers are read as milliseconds since the Unix epoch. Otherwise the value
// must be a YYYY-MM-DD date; RFC3339 timestamps are also accepted and reduced
// to their UTC date. The returned time is midnight UTC of that date.
func ParseDueDate(raw string) (time.Time, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, false
	}
	if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
		return truncateDay(time.UnixMilli(ms)), true
	}
	if day, err := time.Parse(DateLayout, value); err == nil {
		return day, true
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return truncateDay(ts), true
	}
	return time.Time{}, false
}

// DateKey formats t as its UTC calendar date.
func DateKey(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// StartOfDay returns midnight UTC for the calendar date of t.
func StartOfDay(t time.Time) time.Time {
	return truncateDay(t)
}

func truncateDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// formatDueTimestamp renders a task due value as "2006-01-02 15:04" UTC,
// falling back to the raw value when it cannot be parsed.
func formatDueTimestamp(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ""
	}
	if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC().Format("2006-01-02 15:04")
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts.UTC().Format("2006-01-02 15:04")
	}
	return value
}

// formatDueDate renders a deal or to-do due value as YYYY-MM-DD, falling back
// to the raw value.
func formatDueDate(raw string) string {
	if day, ok := ParseDueDate(raw); ok {
		return DateKey(day)
	}
	return strings.TrimSpace(raw)
}
