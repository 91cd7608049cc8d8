package model

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects which time frame a statistics request looks at.
type Mode string

const (
	ModePast      Mode = "past"
	ModeCurrent   Mode = "current"
	ModeProjected Mode = "projected"
)

// Modes lists every mode in cycle order.
var Modes = []Mode{ModeCurrent, ModePast, ModeProjected}

// Period is the length (or kind) of the statistics window.
type Period string

const (
	PeriodSession    Period = "session"
	PeriodHour       Period = "hour"
	PeriodTwelveHour Period = "twelve_hour"
	PeriodToday      Period = "today"
	PeriodWeek       Period = "week"
	PeriodMonth      Period = "month"
	PeriodYear       Period = "year"
)

// Periods lists every period in cycle order.
var Periods = []Period{
	PeriodSession, PeriodHour, PeriodTwelveHour, PeriodToday,
	PeriodWeek, PeriodMonth, PeriodYear,
}

// Scope selects whose activity counts toward a result.
type Scope string

const (
	ScopeSelfStash         Scope = "self_stash"
	ScopeCounterpartyStash Scope = "counterparty_stash"
	ScopeSelfAsConsumer    Scope = "self_as_consumer"
)

// Scopes lists every scope in cycle order.
var Scopes = []Scope{ScopeSelfStash, ScopeCounterpartyStash, ScopeSelfAsConsumer}

func normalize(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
}

// ParseMode converts a name like "projected" into a Mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(normalize(s))
	for _, known := range Modes {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// ParsePeriod converts a name like "twelve-hour" into a Period.
func ParsePeriod(s string) (Period, error) {
	p := Period(normalize(s))
	for _, known := range Periods {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// ParseScope converts a name like "self-stash" into a Scope.
func ParseScope(s string) (Scope, error) {
	sc := Scope(normalize(s))
	for _, known := range Scopes {
		if sc == known {
			return sc, nil
		}
	}
	return "", fmt.Errorf("unknown scope %q", s)
}

// StatsRequest holds the parameters of one statistics computation.
type StatsRequest struct {
	Mode   Mode
	Period Period
	Scope  Scope

	// SessionStart is required when Period is PeriodSession.
	SessionStart           time.Time
	LastCompletedSessionID string
	CurrentUserID          string
}

// ConsumerShare is one consumer's slice of a result.
type ConsumerShare struct {
	ConsumerID string
	Counts     map[Category]int
	Quantity   float64
	Cost       float64
	Percentage float64
}

// StatsResult is the output of one statistics computation. It is built fresh
// per request and never modified afterwards.
type StatsResult struct {
	Mode        Mode
	Period      Period
	Scope       Scope
	WindowStart time.Time
	WindowEnd   time.Time

	CountsByCategory   map[Category]int
	QuantityByCategory map[Category]float64
	CostByCategory     map[Category]float64
	TotalQuantity      float64
	TotalCost          float64

	// ProjectionScale is set only for ModeProjected.
	ProjectionScale *float64

	Consumers []ConsumerShare
}

// Scale returns the projection scale, or 1 when the result is not projected.
func (r StatsResult) Scale() float64 {
	if r.ProjectionScale == nil {
		return 1
	}
	return *r.ProjectionScale
}

// TotalCount returns the number of activities across all categories.
func (r StatsResult) TotalCount() int {
	n := 0
	for _, c := range r.CountsByCategory {
		n += c
	}
	return n
}

// IsEmpty reports whether the result holds no activity at all.
func (r StatsResult) IsEmpty() bool {
	return r.TotalCount() == 0 && r.TotalQuantity == 0 && r.TotalCost == 0
}

// EmptyResult returns the all-zero result for req over the given window.
func EmptyResult(req StatsRequest, start, end time.Time) StatsResult {
	res := StatsResult{
		Mode:               req.Mode,
		Period:             req.Period,
		Scope:              req.Scope,
		WindowStart:        start,
		WindowEnd:          end,
		CountsByCategory:   make(map[Category]int, len(AllCategories)),
		QuantityByCategory: make(map[Category]float64, len(AllCategories)),
		CostByCategory:     make(map[Category]float64, len(AllCategories)),
		Consumers:          []ConsumerShare{},
	}
	for _, c := range AllCategories {
		res.CountsByCategory[c] = 0
		res.QuantityByCategory[c] = 0
		res.CostByCategory[c] = 0
	}
	if req.Mode == ModeProjected {
		one := 1.0
		res.ProjectionScale = &one
	}
	return res
}
