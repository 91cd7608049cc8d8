package pipeline

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/theirongolddev/stashstat/internal/model"
)

// fakeStore is an in-memory Store for engine tests.
type fakeStore struct {
	records    []model.ActivityRecord
	identities map[string]model.ExternalIdentity
	sessionIDs []string
	err        error

	mu      sync.Mutex
	lookups int
	fetches int
}

func (f *fakeStore) FetchByTimeRange(_ context.Context, start, end time.Time) ([]model.ActivityRecord, error) {
	f.mu.Lock()
	f.fetches++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []model.ActivityRecord
	for _, r := range f.records {
		if !r.Timestamp.Before(start) && r.Timestamp.Before(end) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (f *fakeStore) FetchBySessionID(_ context.Context, sessionID string) ([]model.ActivityRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.ActivityRecord
	for _, r := range f.records {
		if r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) DistinctSessionIDs(_ context.Context, limit int) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.sessionIDs) > limit {
		return f.sessionIDs[:limit], nil
	}
	return f.sessionIDs, nil
}

func (f *fakeStore) ResolveConsumerIdentity(_ context.Context, consumerID string) (model.ExternalIdentity, bool, error) {
	f.mu.Lock()
	f.lookups++
	f.mu.Unlock()
	if f.err != nil {
		return model.ExternalIdentity{}, false, f.err
	}
	ident, ok := f.identities[consumerID]
	return ident, ok, nil
}

var errStoreDown = errors.New("store unavailable")

// base is a Wednesday, 10:00 UTC.
var base = time.Date(2025, 6, 4, 10, 0, 0, 0, time.UTC)

func rec(cat model.Category, at time.Time, consumer string, qty, cost float64) model.ActivityRecord {
	return model.ActivityRecord{
		Category:   cat,
		Timestamp:  at,
		ConsumerID: consumer,
		Quantity:   qty,
		Cost:       cost,
	}
}

func owned(r model.ActivityRecord, owner string) model.ActivityRecord {
	r.Owner = owner
	return r
}

func inSession(r model.ActivityRecord, id string) model.ActivityRecord {
	r.SessionID = id
	return r
}

func newTestEngine(store Store, now time.Time) *Engine {
	return NewEngine(store,
		WithClock(func() time.Time { return now }),
		WithLocation(time.UTC),
	)
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// assertInvariants checks the structural guarantees every result must hold.
func assertInvariants(t *testing.T, res model.StatsResult) {
	t.Helper()

	var qty, cost float64
	for c, q := range res.QuantityByCategory {
		qty += q
		if _, ok := res.CountsByCategory[c]; !ok {
			t.Errorf("category %s has quantity but no count entry", c)
		}
	}
	for c, v := range res.CostByCategory {
		cost += v
		if _, ok := res.QuantityByCategory[c]; !ok {
			t.Errorf("category %s has cost but no quantity entry", c)
		}
	}
	for c := range res.CountsByCategory {
		if _, ok := res.QuantityByCategory[c]; !ok {
			t.Errorf("category %s missing from quantity map", c)
		}
		if _, ok := res.CostByCategory[c]; !ok {
			t.Errorf("category %s missing from cost map", c)
		}
	}
	if math.Abs(qty-res.TotalQuantity) > 1e-6 {
		t.Errorf("TotalQuantity = %v, sum of categories = %v", res.TotalQuantity, qty)
	}
	if math.Abs(cost-res.TotalCost) > 1e-6 {
		t.Errorf("TotalCost = %v, sum of categories = %v", res.TotalCost, cost)
	}

	if res.TotalQuantity == 0 {
		if len(res.Consumers) != 0 {
			t.Errorf("Consumers len = %d, want 0 for zero total", len(res.Consumers))
		}
	} else {
		var pct float64
		for _, cs := range res.Consumers {
			pct += cs.Percentage
		}
		if math.Abs(pct-100) > 0.01 {
			t.Errorf("consumer percentages sum to %.4f, want 100", pct)
		}
	}

	if res.Mode == model.ModeProjected {
		if res.ProjectionScale == nil {
			t.Error("projected result has no ProjectionScale")
		} else if *res.ProjectionScale < 1 {
			t.Errorf("ProjectionScale = %v, want >= 1", *res.ProjectionScale)
		}
	} else if res.ProjectionScale != nil {
		t.Errorf("%s result carries ProjectionScale %v", res.Mode, *res.ProjectionScale)
	}
}
