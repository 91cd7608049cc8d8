package daemon

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/theirongolddev/stashstat/internal/model"
)

// stubEngine returns a fixed total quantity that tests can change between polls.
type stubEngine struct {
	mu  sync.Mutex
	qty float64
}

func (e *stubEngine) Compute(_ context.Context, req model.StatsRequest) model.StatsResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	res := model.EmptyResult(req, time.Time{}, time.Time{})
	res.QuantityByCategory[model.CategoryCone] = e.qty
	res.TotalQuantity = e.qty
	if e.qty > 0 {
		res.CountsByCategory[model.CategoryCone] = 1
	}
	return res
}

func (e *stubEngine) set(qty float64) {
	e.mu.Lock()
	e.qty = qty
	e.mu.Unlock()
}

var testRequests = []model.StatsRequest{
	{Mode: model.ModeCurrent, Period: model.PeriodToday, Scope: model.ScopeSelfStash},
	{Mode: model.ModeProjected, Period: model.PeriodToday, Scope: model.ScopeSelfStash},
}

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{Count: 3, QuantityGrams: 0.9, Cost: 4.5}
	curr := Snapshot{Count: 5, QuantityGrams: 1.5, Cost: 7.5}

	delta := diffSnapshots(prev, curr)
	if delta.Count != 2 {
		t.Fatalf("Count delta = %d, want 2", delta.Count)
	}
	if math.Abs(delta.QuantityGrams-0.6) > 1e-9 {
		t.Fatalf("Quantity delta = %.2f, want 0.60", delta.QuantityGrams)
	}
	if math.Abs(delta.Cost-3) > 1e-9 {
		t.Fatalf("Cost delta = %.2f, want 3.00", delta.Cost)
	}
	if delta.isZero() {
		t.Fatal("delta unexpectedly reported as zero")
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(&stubEngine{}, Config{
		Interval:     10 * time.Second,
		EventsBuffer: 2,
	})

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestPollOnceEmitsSnapshotsThenDeltas(t *testing.T) {
	engine := &stubEngine{qty: 0.3}
	s := New(engine, Config{Requests: testRequests})

	s.pollOnce(context.Background())
	if n := len(s.events); n != 2 {
		t.Fatalf("events after first poll = %d, want 2 snapshots", n)
	}

	s.pollOnce(context.Background())
	if n := len(s.events); n != 2 {
		t.Fatalf("events after unchanged poll = %d, want 2", n)
	}

	engine.set(0.6)
	s.pollOnce(context.Background())
	if n := len(s.events); n != 4 {
		t.Fatalf("events after change = %d, want 4", n)
	}
	last := s.events[len(s.events)-1]
	if last.Type != "stats_delta" || math.Abs(last.Delta.QuantityGrams-0.3) > 1e-9 {
		t.Errorf("last event = %+v, want 0.3g stats_delta", last)
	}
}

func TestHandleStatus(t *testing.T) {
	s := New(&stubEngine{qty: 1.2}, Config{Requests: testRequests})
	s.pollOnce(context.Background())

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/status", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d", rr.Code)
	}

	var st Status
	if err := json.Unmarshal(rr.Body.Bytes(), &st); err != nil {
		t.Fatalf("decoding status: %v", err)
	}
	if st.PollCount != 1 {
		t.Errorf("PollCount = %d, want 1", st.PollCount)
	}
	if len(st.Snapshots) != 2 {
		t.Fatalf("Snapshots len = %d, want 2", len(st.Snapshots))
	}
	if st.Snapshots[1].Key != "projected/today/self_stash" || st.Snapshots[1].ProjectionScale != 1 {
		t.Errorf("projected snapshot = %+v", st.Snapshots[1])
	}
	if st.Snapshots[0].QuantityGrams != 1.2 {
		t.Errorf("QuantityGrams = %v, want 1.2", st.Snapshots[0].QuantityGrams)
	}
}

func TestHandleHealth(t *testing.T) {
	s := New(&stubEngine{}, Config{})
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK || rr.Body.String() != "ok\n" {
		t.Errorf("healthz = %d %q", rr.Code, rr.Body.String())
	}
}
