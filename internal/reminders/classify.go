package reminders

import "time"

// Dated is implemented by every obligation kind the scanner classifies:
// deals, tasks and to-dos. DueValue returns the raw due-date encoding.
type Dated interface {
	DueValue() string
}

// DueOn keeps items whose due date falls on target's UTC calendar date.
// Items without a parseable due date are excluded.
func DueOn[T Dated](items []T, target time.Time) []T {
	want := StartOfDay(target)
	out := make([]T, 0, len(items))
	for _, item := range items {
		day, ok := ParseDueDate(item.DueValue())
		if !ok {
			continue
		}
		if day.Equal(want) {
			out = append(out, item)
		}
	}
	return out
}

// Overdue keeps items whose due date is strictly before now's UTC calendar
// date. Items due today are never overdue.
func Overdue[T Dated](items []T, now time.Time) []T {
	today := StartOfDay(now)
	out := make([]T, 0, len(items))
	for _, item := range items {
		day, ok := ParseDueDate(item.DueValue())
		if !ok {
			continue
		}
		if day.Before(today) {
			out = append(out, item)
		}
	}
	return out
}

// Undated returns items whose due value cannot be parsed.
func Undated[T Dated](items []T) []T {
	var out []T
	for _, item := range items {
		if _, ok := ParseDueDate(item.DueValue()); !ok {
			out = append(out, item)
		}
	}
	return out
}
