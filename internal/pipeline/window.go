// Package pipeline resolves statistics windows and folds activity records
// into aggregate, scope-filtered and projected results.
package pipeline

import (
	"time"

	"github.com/theirongolddev/stashstat/internal/model"
)

// Window is a half-open time interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Duration returns the length of the window.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// IsZero reports whether the window has no length.
func (w Window) IsZero() bool {
	return !w.End.After(w.Start)
}

// PeriodDuration returns the fixed length of a non-session period, or zero
// for the session period. Months are 30 days and years 365 days.
func PeriodDuration(p model.Period) time.Duration {
	switch p {
	case model.PeriodHour:
		return time.Hour
	case model.PeriodTwelveHour:
		return 12 * time.Hour
	case model.PeriodToday:
		return 24 * time.Hour
	case model.PeriodWeek:
		return 7 * 24 * time.Hour
	case model.PeriodMonth:
		return 30 * 24 * time.Hour
	case model.PeriodYear:
		return 365 * 24 * time.Hour
	}
	return 0
}

// ResolveWindow maps a mode and period to the window ending at now.
//
// Current and projected TODAY windows start at local midnight of now; every
// other window, past TODAY included, is the rolling period ending at now.
// The session period has no time window and resolves to Window{}.
func ResolveWindow(mode model.Mode, period model.Period, now time.Time) Window {
	d := PeriodDuration(period)
	if d == 0 {
		return Window{}
	}

	switch mode {
	case model.ModeCurrent, model.ModeProjected:
		if period == model.PeriodToday {
			return Window{Start: StartOfDay(now), End: now}
		}
		return Window{Start: now.Add(-d), End: now}
	case model.ModePast:
		return Window{Start: now.Add(-d), End: now}
	}
	return Window{}
}

// StartOfDay returns local midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func nextMidnight(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1)
}

func nextHour(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location()).Add(time.Hour)
}
