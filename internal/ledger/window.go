package ledger

import (
	"errors"
	"time"
)

// ErrInvalidRange is returned for a window whose start is after its end.
var ErrInvalidRange = errors.New("invalid range: start is after end")

// Window is a half-open time range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// TodayWindow covers local midnight (in now's location) up to now.
func TodayWindow(now time.Time) Window {
	year, month, day := now.Date()
	midnight := time.Date(year, month, day, 0, 0, 0, 0, now.Location())
	return Window{Start: midnight, End: now}
}

// WeeklyWindow covers the fixed-length seven days ending at now.
func WeeklyWindow(now time.Time) Window {
	return Window{Start: now.Add(-7 * 24 * time.Hour), End: now}
}

// MonthlyWindow covers the fixed-length thirty days ending at now.
func MonthlyWindow(now time.Time) Window {
	return Window{Start: now.Add(-30 * 24 * time.Hour), End: now}
}

// SumInWindow sums the durations of sessions closed within [start, end).
// A start after end is rejected with ErrInvalidRange rather than summing
// to zero.
func SumInWindow(sessions []Session, start, end time.Time) (time.Duration, error) {
	if start.After(end) {
		return 0, ErrInvalidRange
	}
	var total time.Duration
	for _, s := range sessions {
		if !s.ClosedAt.Before(start) && s.ClosedAt.Before(end) {
			total += s.Duration
		}
	}
	return total, nil
}
