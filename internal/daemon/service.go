// Package daemon provides the long-running background statistics service.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/stashstat/internal/logger"
	"github.com/theirongolddev/stashstat/internal/model"
)

// Computer runs one statistics request. *pipeline.Engine satisfies it.
type Computer interface {
	Compute(ctx context.Context, req model.StatsRequest) model.StatsResult
}

// Config controls the daemon runtime behavior.
type Config struct {
	Requests     []model.StatsRequest
	Interval     time.Duration
	Addr         string
	EventsBuffer int
}

// Snapshot is a compact view of one request's result.
type Snapshot struct {
	Key             string             `json:"key"`
	Mode            model.Mode         `json:"mode"`
	Period          model.Period       `json:"period"`
	Scope           model.Scope        `json:"scope"`
	WindowStart     time.Time          `json:"window_start"`
	WindowEnd       time.Time          `json:"window_end"`
	Count           int                `json:"count"`
	QuantityGrams   float64            `json:"quantity_grams"`
	Cost            float64            `json:"cost"`
	ProjectionScale float64            `json:"projection_scale"`
	Categories      map[string]float64 `json:"categories"`
}

// Delta captures snapshot deltas between polls.
type Delta struct {
	Count         int     `json:"count"`
	QuantityGrams float64 `json:"quantity_grams"`
	Cost          float64 `json:"cost"`
}

func (d Delta) isZero() bool {
	return d.Count == 0 &&
		math.Abs(d.QuantityGrams) < 1e-9 &&
		math.Abs(d.Cost) < 1e-9
}

// Event is emitted whenever a snapshot changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time  `json:"started_at"`
	LastPollAt      time.Time  `json:"last_poll_at"`
	PollIntervalSec int        `json:"poll_interval_sec"`
	PollCount       int64      `json:"poll_count"`
	Snapshots       []Snapshot `json:"snapshots"`
	EventCount      int        `json:"event_count"`
	SubscriberCount int        `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg    Config
	engine Computer

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	snapshots   map[string]Snapshot
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service computing cfg.Requests with engine.
func New(engine Computer, cfg Config) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 10 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8788"
	}

	return &Service{
		cfg:       cfg,
		engine:    engine,
		startedAt: time.Now(),
		snapshots: make(map[string]Snapshot),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/stream", s.handleStream)
	return mux
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Seed initial snapshots so status is useful immediately.
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

func (s *Service) pollOnce(ctx context.Context) {
	start := time.Now()

	results := make([]model.StatsResult, len(s.cfg.Requests))
	g, gctx := errgroup.WithContext(ctx)
	for i, req := range s.cfg.Requests {
		g.Go(func() error {
			results[i] = s.engine.Compute(gctx, req)
			return nil
		})
	}
	_ = g.Wait()

	now := time.Now()
	var events []Event

	s.mu.Lock()
	for _, res := range results {
		snap := snapshotFromResult(res)
		prev, prevExists := s.snapshots[snap.Key]
		s.snapshots[snap.Key] = snap

		switch {
		case !prevExists:
			s.nextEventID++
			events = append(events, Event{
				ID:        s.nextEventID,
				Type:      "snapshot",
				Timestamp: now,
				Snapshot:  snap,
			})
		default:
			delta := diffSnapshots(prev, snap)
			if !delta.isZero() {
				s.nextEventID++
				events = append(events, Event{
					ID:        s.nextEventID,
					Type:      "stats_delta",
					Timestamp: now,
					Snapshot:  snap,
					Delta:     delta,
				})
			}
		}
	}
	s.lastPollAt = now
	s.pollCount++
	s.mu.Unlock()

	for _, ev := range events {
		s.publishEvent(ev)
	}
	logger.Debug("daemon poll", "requests", len(results), "events", len(events), "took", time.Since(start))
}

// RequestKey identifies a request in snapshots, e.g. "projected/today/self_stash".
func RequestKey(mode model.Mode, period model.Period, scope model.Scope) string {
	return fmt.Sprintf("%s/%s/%s", mode, period, scope)
}

func snapshotFromResult(res model.StatsResult) Snapshot {
	cats := make(map[string]float64, len(res.QuantityByCategory))
	for c, q := range res.QuantityByCategory {
		cats[string(c)] = q
	}
	return Snapshot{
		Key:             RequestKey(res.Mode, res.Period, res.Scope),
		Mode:            res.Mode,
		Period:          res.Period,
		Scope:           res.Scope,
		WindowStart:     res.WindowStart,
		WindowEnd:       res.WindowEnd,
		Count:           res.TotalCount(),
		QuantityGrams:   res.TotalQuantity,
		Cost:            res.TotalCost,
		ProjectionScale: res.Scale(),
		Categories:      cats,
	}
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Count:         curr.Count - prev.Count,
		QuantityGrams: curr.QuantityGrams - prev.QuantityGrams,
		Cost:          curr.Cost - prev.Cost,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snaps := make([]Snapshot, 0, len(s.cfg.Requests))
	for _, req := range s.cfg.Requests {
		if snap, ok := s.snapshots[RequestKey(req.Mode, req.Period, req.Scope)]; ok {
			snaps = append(snaps, snap)
		}
	}

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		Snapshots:       snaps,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshots immediately.
	for _, snap := range s.snapshotStatus().Snapshots {
		writeSSE(w, Event{
			Type:      "snapshot",
			Timestamp: time.Now(),
			Snapshot:  snap,
		})
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
