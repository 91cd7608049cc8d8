package pipeline

import (
	"testing"
	"time"

	"github.com/theirongolddev/stashstat/internal/model"
)

func TestPeriodDuration(t *testing.T) {
	tests := []struct {
		period model.Period
		want   time.Duration
	}{
		{model.PeriodHour, time.Hour},
		{model.PeriodTwelveHour, 12 * time.Hour},
		{model.PeriodToday, 24 * time.Hour},
		{model.PeriodWeek, 7 * 24 * time.Hour},
		{model.PeriodMonth, 30 * 24 * time.Hour},
		{model.PeriodYear, 365 * 24 * time.Hour},
		{model.PeriodSession, 0},
	}
	for _, tt := range tests {
		if got := PeriodDuration(tt.period); got != tt.want {
			t.Errorf("PeriodDuration(%s) = %v, want %v", tt.period, got, tt.want)
		}
	}
}

func TestResolveWindow_CurrentRolling(t *testing.T) {
	now := base.Add(25 * time.Minute)
	w := ResolveWindow(model.ModeCurrent, model.PeriodWeek, now)
	if !w.End.Equal(now) {
		t.Errorf("End = %v, want %v", w.End, now)
	}
	if !w.Start.Equal(now.Add(-7 * 24 * time.Hour)) {
		t.Errorf("Start = %v, want now-7d", w.Start)
	}
}

func TestResolveWindow_TodayStartsAtMidnight(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	now := time.Date(2025, 6, 4, 1, 30, 0, 0, loc)

	for _, mode := range []model.Mode{model.ModeCurrent, model.ModeProjected} {
		w := ResolveWindow(mode, model.PeriodToday, now)
		want := time.Date(2025, 6, 4, 0, 0, 0, 0, loc)
		if !w.Start.Equal(want) {
			t.Errorf("%s TODAY Start = %v, want %v", mode, w.Start, want)
		}
		if !w.End.Equal(now) {
			t.Errorf("%s TODAY End = %v, want %v", mode, w.End, now)
		}
	}
}

func TestResolveWindow_PastTodayIsRolling24h(t *testing.T) {
	now := base.Add(3 * time.Hour)
	w := ResolveWindow(model.ModePast, model.PeriodToday, now)
	if !w.End.Equal(now) {
		t.Errorf("End = %v, want now", w.End)
	}
	if !w.Start.Equal(now.Add(-24 * time.Hour)) {
		t.Errorf("Start = %v, want now-24h", w.Start)
	}
}

func TestResolveWindow_PastEndsAtNow(t *testing.T) {
	now := base
	for _, p := range []model.Period{model.PeriodHour, model.PeriodTwelveHour, model.PeriodMonth, model.PeriodYear} {
		w := ResolveWindow(model.ModePast, p, now)
		if !w.End.Equal(now) {
			t.Errorf("PAST %s End = %v, want now", p, w.End)
		}
		if w.Duration() != PeriodDuration(p) {
			t.Errorf("PAST %s Duration = %v, want %v", p, w.Duration(), PeriodDuration(p))
		}
	}
}

func TestResolveWindow_SessionIsZero(t *testing.T) {
	w := ResolveWindow(model.ModeCurrent, model.PeriodSession, base)
	if w != (Window{}) {
		t.Errorf("SESSION window = %+v, want zero", w)
	}
	if !w.IsZero() {
		t.Error("IsZero() = false for zero window")
	}
	if w := ResolveWindow(model.Mode("bogus"), model.PeriodHour, base); w != (Window{}) {
		t.Errorf("unknown mode window = %+v, want zero", w)
	}
}

func TestNextHourAndMidnight(t *testing.T) {
	now := time.Date(2025, 6, 4, 10, 40, 15, 0, time.UTC)
	if got, want := nextHour(now), time.Date(2025, 6, 4, 11, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("nextHour = %v, want %v", got, want)
	}
	if got, want := nextMidnight(now), time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("nextMidnight = %v, want %v", got, want)
	}
}
