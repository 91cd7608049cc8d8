package pipeline

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/theirongolddev/stashstat/internal/model"
)

func TestCompute_CurrentHourSingleRecord(t *testing.T) {
	t0 := base
	store := &fakeStore{records: []model.ActivityRecord{
		rec(model.CategoryCone, t0, "me", 0.3, 1.5),
	}}
	e := newTestEngine(store, t0.Add(10*time.Minute))

	res := e.Compute(context.Background(), model.StatsRequest{
		Mode:   model.ModeCurrent,
		Period: model.PeriodHour,
		Scope:  model.ScopeSelfStash,
	})
	assertInvariants(t, res)

	if !approx(res.TotalQuantity, 0.3) {
		t.Errorf("TotalQuantity = %v, want 0.3", res.TotalQuantity)
	}
	if !approx(res.TotalCost, 1.5) {
		t.Errorf("TotalCost = %v, want 1.5", res.TotalCost)
	}
	if len(res.Consumers) != 1 || !approx(res.Consumers[0].Percentage, 100) {
		t.Errorf("Consumers = %+v, want one entry at 100%%", res.Consumers)
	}
	if res.Mode != model.ModeCurrent || res.Period != model.PeriodHour || res.Scope != model.ScopeSelfStash {
		t.Errorf("result tagged %s/%s/%s", res.Mode, res.Period, res.Scope)
	}
	if !res.WindowEnd.Equal(t0.Add(10*time.Minute)) || !res.WindowStart.Equal(t0.Add(-50*time.Minute)) {
		t.Errorf("window = [%v, %v)", res.WindowStart, res.WindowEnd)
	}
}

func TestCompute_ProjectedHour(t *testing.T) {
	t0 := base.Add(20 * time.Minute)
	store := &fakeStore{records: []model.ActivityRecord{
		rec(model.CategoryCone, t0, "me", 0.3, 1.5),
		rec(model.CategoryCone, t0.Add(5*time.Minute), "me", 0.3, 1.5),
	}}
	e := newTestEngine(store, t0.Add(10*time.Minute))

	res := e.Compute(context.Background(), model.StatsRequest{
		Mode:   model.ModeProjected,
		Period: model.PeriodHour,
		Scope:  model.ScopeSelfStash,
	})
	assertInvariants(t, res)

	if res.Scale() <= 1 {
		t.Errorf("scale = %v, want > 1", res.Scale())
	}
	if res.TotalQuantity <= 0.6 {
		t.Errorf("TotalQuantity = %v, want > 0.6", res.TotalQuantity)
	}
}

func TestCompute_ProjectedSingleRecordMatchesCurrent(t *testing.T) {
	store := &fakeStore{records: []model.ActivityRecord{
		rec(model.CategoryJoint, base, "me", 0.5, 2.5),
	}}
	e := newTestEngine(store, base.Add(time.Hour))

	for _, p := range []model.Period{model.PeriodHour, model.PeriodTwelveHour, model.PeriodToday, model.PeriodWeek, model.PeriodMonth, model.PeriodYear} {
		req := model.StatsRequest{Mode: model.ModeProjected, Period: p, Scope: model.ScopeSelfStash}
		proj := e.Compute(context.Background(), req)
		assertInvariants(t, proj)
		req.Mode = model.ModeCurrent
		cur := e.Compute(context.Background(), req)

		if proj.Scale() != 1 {
			t.Errorf("%s scale = %v, want 1", p, proj.Scale())
		}
		if proj.TotalQuantity != cur.TotalQuantity || proj.TotalCost != cur.TotalCost {
			t.Errorf("%s projected totals %v/%v, current %v/%v", p,
				proj.TotalQuantity, proj.TotalCost, cur.TotalQuantity, cur.TotalCost)
		}
		if !reflect.DeepEqual(proj.CountsByCategory, cur.CountsByCategory) {
			t.Errorf("%s projected counts %v, current %v", p, proj.CountsByCategory, cur.CountsByCategory)
		}
	}
}

func TestCompute_CounterpartyScopeIgnoresSelfRecords(t *testing.T) {
	store := &fakeStore{records: []model.ActivityRecord{
		rec(model.CategoryCone, base, "me", 0.3, 1.5),
		owned(rec(model.CategoryBowl, base.Add(time.Minute), "me", 0.2, 1), "user-1"),
	}}
	e := newTestEngine(store, base.Add(10*time.Minute))

	res := e.Compute(context.Background(), model.StatsRequest{
		Mode:          model.ModeCurrent,
		Period:        model.PeriodHour,
		Scope:         model.ScopeCounterpartyStash,
		CurrentUserID: "user-1",
	})
	assertInvariants(t, res)
	if !res.IsEmpty() {
		t.Errorf("counterparty result not empty: total %v", res.TotalQuantity)
	}
}

func TestCompute_StoreFailureDegradesToEmpty(t *testing.T) {
	store := &fakeStore{err: errStoreDown}
	e := newTestEngine(store, base)

	for _, mode := range model.Modes {
		for _, period := range model.Periods {
			req := model.StatsRequest{
				Mode:         mode,
				Period:       period,
				Scope:        model.ScopeSelfAsConsumer,
				SessionStart: base.Add(-time.Hour),
			}
			res := e.Compute(context.Background(), req)
			assertInvariants(t, res)
			if !res.IsEmpty() {
				t.Errorf("%s/%s: result not empty on store failure", mode, period)
			}
			if res.Mode != mode || res.Period != period {
				t.Errorf("%s/%s: result tagged %s/%s", mode, period, res.Mode, res.Period)
			}
		}
	}
}

func TestCompute_PastEmptyWindow(t *testing.T) {
	store := &fakeStore{records: []model.ActivityRecord{
		rec(model.CategoryCone, base.Add(-48*time.Hour), "me", 0.3, 1.5),
	}}
	e := newTestEngine(store, base)

	res := e.Compute(context.Background(), model.StatsRequest{
		Mode:   model.ModePast,
		Period: model.PeriodToday,
		Scope:  model.ScopeSelfStash,
	})
	assertInvariants(t, res)
	if !res.IsEmpty() {
		t.Errorf("past result not empty: %+v", res)
	}
	if !res.WindowStart.Equal(base.Add(-24 * time.Hour)) {
		t.Errorf("WindowStart = %v, want now-24h", res.WindowStart)
	}
}

func TestCompute_Idempotent(t *testing.T) {
	store := &fakeStore{
		records: []model.ActivityRecord{
			rec(model.CategoryCone, base.Add(-3*time.Hour), "me", 0.3, 1.5),
			rec(model.CategoryJoint, base.Add(-2*time.Hour), "sam", 0.7, 3.5),
			rec(model.CategoryBowl, base.Add(-time.Hour), "alex", 0.1, 0.5),
			rec(model.CategoryCone, base.Add(-30*time.Minute), "sam", 0.3, 1.5),
		},
		identities: map[string]model.ExternalIdentity{"sam": {UserID: "user-1"}},
	}
	e := newTestEngine(store, base)

	for _, mode := range model.Modes {
		for _, scope := range model.Scopes {
			req := model.StatsRequest{Mode: mode, Period: model.PeriodWeek, Scope: scope, CurrentUserID: "user-1"}
			first := e.Compute(context.Background(), req)
			second := e.Compute(context.Background(), req)
			assertInvariants(t, first)
			if !reflect.DeepEqual(first, second) {
				t.Errorf("%s/%s: results differ between calls", mode, scope)
			}
		}
	}
}

func TestCompute_SessionCurrent(t *testing.T) {
	start := base.Add(-time.Hour)
	id := SessionIDFor(start)
	store := &fakeStore{records: []model.ActivityRecord{
		inSession(rec(model.CategoryCone, start.Add(10*time.Minute), "me", 0.3, 1.5), id),
		inSession(rec(model.CategoryCone, start.Add(20*time.Minute), "me", 0.3, 1.5), id),
		inSession(rec(model.CategoryCone, start.Add(-2*time.Hour), "me", 0.3, 1.5), "older"),
	}}
	e := newTestEngine(store, base)

	res := e.Compute(context.Background(), model.StatsRequest{
		Mode:         model.ModeCurrent,
		Period:       model.PeriodSession,
		Scope:        model.ScopeSelfStash,
		SessionStart: start,
	})
	assertInvariants(t, res)
	if !approx(res.TotalQuantity, 0.6) {
		t.Errorf("TotalQuantity = %v, want 0.6", res.TotalQuantity)
	}
	if !res.WindowStart.Equal(start) || !res.WindowEnd.Equal(base) {
		t.Errorf("window = [%v, %v), want [session start, now)", res.WindowStart, res.WindowEnd)
	}
}

func TestCompute_SessionCurrentFallsBackToTimeRange(t *testing.T) {
	start := base.Add(-time.Hour)
	store := &fakeStore{records: []model.ActivityRecord{
		rec(model.CategoryJoint, start.Add(5*time.Minute), "me", 0.5, 2.5),
		rec(model.CategoryJoint, base, "me", 0.5, 2.5),
		rec(model.CategoryJoint, start.Add(-time.Minute), "me", 0.5, 2.5),
	}}
	e := newTestEngine(store, base)

	res := e.Compute(context.Background(), model.StatsRequest{
		Mode:         model.ModeCurrent,
		Period:       model.PeriodSession,
		Scope:        model.ScopeSelfStash,
		SessionStart: start,
	})
	// Records at session start..now inclusive; the one before start is excluded.
	if !approx(res.TotalQuantity, 1.0) {
		t.Errorf("TotalQuantity = %v, want 1.0", res.TotalQuantity)
	}
}

func TestCompute_SessionCurrentWithoutStart(t *testing.T) {
	store := &fakeStore{records: []model.ActivityRecord{rec(model.CategoryCone, base, "me", 0.3, 1.5)}}
	e := newTestEngine(store, base)
	res := e.Compute(context.Background(), model.StatsRequest{
		Mode:   model.ModeCurrent,
		Period: model.PeriodSession,
		Scope:  model.ScopeSelfStash,
	})
	if !res.IsEmpty() {
		t.Errorf("result without session start not empty: %+v", res)
	}
	if store.fetches != 0 {
		t.Errorf("fetches = %d, want 0", store.fetches)
	}
}

func TestCompute_SessionPastWithoutPriorSession(t *testing.T) {
	start := base.Add(-time.Hour)
	current := SessionIDFor(start)
	store := &fakeStore{
		records: []model.ActivityRecord{
			inSession(rec(model.CategoryCone, start.Add(time.Minute), "me", 0.3, 1.5), current),
		},
		sessionIDs: []string{current},
	}
	e := newTestEngine(store, base)

	res := e.Compute(context.Background(), model.StatsRequest{
		Mode:         model.ModePast,
		Period:       model.PeriodSession,
		Scope:        model.ScopeSelfStash,
		SessionStart: start,
	})
	assertInvariants(t, res)
	if !res.IsEmpty() {
		t.Errorf("past session result not empty: %+v", res)
	}
}

func TestCompute_SessionPastLookup(t *testing.T) {
	start := base.Add(-time.Hour)
	current := SessionIDFor(start)
	store := &fakeStore{
		records: []model.ActivityRecord{
			inSession(rec(model.CategoryCone, start.Add(time.Minute), "me", 0.3, 1.5), current),
			inSession(rec(model.CategoryBowl, base.Add(-5*time.Hour), "me", 0.2, 1), "prev"),
			inSession(rec(model.CategoryBowl, base.Add(-4*time.Hour), "me", 0.2, 1), "prev"),
		},
		sessionIDs: []string{current, "prev", "ancient"},
	}
	e := newTestEngine(store, base)

	res := e.Compute(context.Background(), model.StatsRequest{
		Mode:         model.ModePast,
		Period:       model.PeriodSession,
		Scope:        model.ScopeSelfStash,
		SessionStart: start,
	})
	assertInvariants(t, res)
	if !approx(res.TotalQuantity, 0.4) {
		t.Errorf("TotalQuantity = %v, want 0.4 from the previous session", res.TotalQuantity)
	}
	if !res.WindowStart.Equal(base.Add(-5*time.Hour)) || !res.WindowEnd.Equal(base.Add(-4*time.Hour)) {
		t.Errorf("window = [%v, %v], want span of the past session", res.WindowStart, res.WindowEnd)
	}
}

func TestCompute_SessionPastExplicitID(t *testing.T) {
	store := &fakeStore{records: []model.ActivityRecord{
		inSession(rec(model.CategoryEdible, base.Add(-3*time.Hour), "me", 0.1, 4), "s-42"),
	}}
	e := newTestEngine(store, base)

	res := e.Compute(context.Background(), model.StatsRequest{
		Mode:                   model.ModePast,
		Period:                 model.PeriodSession,
		Scope:                  model.ScopeSelfStash,
		LastCompletedSessionID: "s-42",
	})
	if res.CountsByCategory[model.CategoryEdible] != 1 || !approx(res.TotalCost, 4) {
		t.Errorf("result = %+v, want the s-42 edible", res)
	}
}

func TestCompute_ProjectedSessionPicksLarger(t *testing.T) {
	start := base.Add(-30 * time.Minute)
	current := SessionIDFor(start)
	store := &fakeStore{records: []model.ActivityRecord{
		inSession(rec(model.CategoryCone, start.Add(time.Minute), "me", 0.3, 1.5), current),
		inSession(rec(model.CategoryCone, base.Add(-5*time.Hour), "me", 0.3, 1.5), "prev"),
		inSession(rec(model.CategoryCone, base.Add(-4*time.Hour), "me", 0.3, 1.5), "prev"),
		inSession(rec(model.CategoryCone, base.Add(-3*time.Hour), "me", 0.3, 1.5), "prev"),
	}}
	e := newTestEngine(store, base)

	res := e.Compute(context.Background(), model.StatsRequest{
		Mode:                   model.ModeProjected,
		Period:                 model.PeriodSession,
		Scope:                  model.ScopeSelfStash,
		SessionStart:           start,
		LastCompletedSessionID: "prev",
	})
	assertInvariants(t, res)

	if res.Mode != model.ModeProjected {
		t.Errorf("Mode = %s, want projected", res.Mode)
	}
	if !approx(res.TotalQuantity, 0.9) {
		t.Errorf("TotalQuantity = %v, want 0.9 from the past session", res.TotalQuantity)
	}
	if !approx(res.Scale(), 3) {
		t.Errorf("scale = %v, want 3", res.Scale())
	}
}

func TestCompute_ProjectedSessionSmallerZero(t *testing.T) {
	start := base.Add(-30 * time.Minute)
	current := SessionIDFor(start)
	store := &fakeStore{records: []model.ActivityRecord{
		inSession(rec(model.CategoryCone, start.Add(time.Minute), "me", 0.3, 1.5), current),
	}}
	e := newTestEngine(store, base)

	res := e.Compute(context.Background(), model.StatsRequest{
		Mode:         model.ModeProjected,
		Period:       model.PeriodSession,
		Scope:        model.ScopeSelfStash,
		SessionStart: start,
	})
	assertInvariants(t, res)
	if !approx(res.TotalQuantity, 0.3) {
		t.Errorf("TotalQuantity = %v, want 0.3 from the live session", res.TotalQuantity)
	}
	if res.Scale() != 1 {
		t.Errorf("scale = %v, want 1 when the other session is empty", res.Scale())
	}
}

func TestCompute_Concurrent(t *testing.T) {
	store := &fakeStore{records: projectRecords(base.Add(-2*time.Hour), 10*time.Minute, 6)}
	e := newTestEngine(store, base)
	req := model.StatsRequest{Mode: model.ModeProjected, Period: model.PeriodToday, Scope: model.ScopeSelfStash}
	want := e.Compute(context.Background(), req)

	done := make(chan model.StatsResult, 8)
	for i := 0; i < 8; i++ {
		go func() { done <- e.Compute(context.Background(), req) }()
	}
	for i := 0; i < 8; i++ {
		if got := <-done; !reflect.DeepEqual(got, want) {
			t.Fatal("concurrent Compute returned a different result")
		}
	}
}
