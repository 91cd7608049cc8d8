package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/stashstat/internal/logger"
	"github.com/theirongolddev/stashstat/internal/model"
)

// sessionLookupLimit is how many recent session ids are scanned for the
// last completed session.
const sessionLookupLimit = 5

// Store is the read side of the activity log the engine consumes.
type Store interface {
	IdentityResolver
	// FetchByTimeRange returns records with start <= timestamp < end,
	// oldest first.
	FetchByTimeRange(ctx context.Context, start, end time.Time) ([]model.ActivityRecord, error)
	FetchBySessionID(ctx context.Context, sessionID string) ([]model.ActivityRecord, error)
	// DistinctSessionIDs returns up to limit session ids, most recent first.
	DistinctSessionIDs(ctx context.Context, limit int) ([]string, error)
}

// Engine computes statistics over a Store. It holds no per-call state, so
// Compute may be called concurrently.
type Engine struct {
	store Store
	now   func() time.Time
	loc   *time.Location
	log   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the function used for "now".
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLocation sets the time zone calendar boundaries are computed in.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) { e.loc = loc }
}

// WithLogger sets the logger store failures are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// NewEngine returns an engine reading from store.
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		now:   time.Now,
		loc:   time.Local,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logger.Logger
	}
	if e.loc == nil {
		e.loc = time.Local
	}
	return e
}

// Compute runs one statistics request. It never fails: store errors and
// unresolvable sessions produce the all-zero result for the request.
func (e *Engine) Compute(ctx context.Context, req model.StatsRequest) model.StatsResult {
	now := e.now().In(e.loc)

	if req.Period == model.PeriodSession {
		if req.Mode == model.ModeProjected {
			return e.projectSession(ctx, req, now)
		}
		return e.computeSession(ctx, req, now)
	}

	w := ResolveWindow(req.Mode, req.Period, now)
	records, err := e.store.FetchByTimeRange(ctx, w.Start, w.End)
	if err != nil {
		e.log.Warn("fetching activity records",
			"start", w.Start, "end", w.End, "error", err)
		return model.EmptyResult(req, w.Start, w.End)
	}
	return e.summarize(ctx, req, w, records, now)
}

// summarize filters records by scope and aggregates (and for the projected
// mode, projects) them into a result tagged with req and w.
func (e *Engine) summarize(
	ctx context.Context,
	req model.StatsRequest,
	w Window,
	records []model.ActivityRecord,
	now time.Time,
) model.StatsResult {
	filtered, err := FilterScope(ctx, records, req.Scope, req.CurrentUserID, e.store)
	if err != nil {
		e.log.Warn("filtering activity records", "scope", req.Scope, "error", err)
		return model.EmptyResult(req, w.Start, w.End)
	}

	var res model.StatsResult
	switch req.Mode {
	case model.ModePast:
		if len(filtered) == 0 {
			return model.EmptyResult(req, w.Start, w.End)
		}
		res = Aggregate(filtered)
	case model.ModeCurrent:
		res = Aggregate(filtered)
	case model.ModeProjected:
		res = Project(Aggregate(filtered), filtered, req.Period, w, now)
	default:
		e.log.Warn("unknown statistics mode", "mode", req.Mode)
		return model.EmptyResult(req, w.Start, w.End)
	}

	res.Mode = req.Mode
	res.Period = req.Period
	res.Scope = req.Scope
	res.WindowStart = w.Start
	res.WindowEnd = w.End
	return res
}

func (e *Engine) computeSession(ctx context.Context, req model.StatsRequest, now time.Time) model.StatsResult {
	target := ResolveSession(req.Mode, req.SessionStart, req.LastCompletedSessionID)

	records, w, ok, err := e.fetchSession(ctx, target, now)
	if err != nil {
		e.log.Warn("fetching session records",
			"session_id", target.SessionID, "error", err)
		return model.EmptyResult(req, w.Start, w.End)
	}
	if !ok {
		return model.EmptyResult(req, w.Start, w.End)
	}
	return e.summarize(ctx, req, w, records, now)
}

// fetchSession loads the records of a resolved session target. ok is false
// when no session could be found.
func (e *Engine) fetchSession(
	ctx context.Context,
	target SessionTarget,
	now time.Time,
) (records []model.ActivityRecord, w Window, ok bool, err error) {
	switch target.Kind {
	case TargetCurrent:
		w = Window{Start: target.Start, End: now}
		records, err = e.store.FetchBySessionID(ctx, target.SessionID)
		if err != nil {
			return nil, w, false, err
		}
		if len(records) == 0 {
			// Include activity logged at exactly now.
			records, err = e.store.FetchByTimeRange(ctx, target.Start, now.Add(time.Millisecond))
			if err != nil {
				return nil, w, false, err
			}
		}
		return records, w, true, nil

	case TargetLookupPast:
		ids, err := e.store.DistinctSessionIDs(ctx, sessionLookupLimit)
		if err != nil {
			return nil, w, false, err
		}
		id, found := pickPastSession(ids, target.ExcludeID)
		if !found {
			return nil, w, false, nil
		}
		return e.fetchPastSession(ctx, id)

	case TargetPast:
		return e.fetchPastSession(ctx, target.SessionID)
	}
	return nil, w, false, nil
}

func (e *Engine) fetchPastSession(ctx context.Context, id string) ([]model.ActivityRecord, Window, bool, error) {
	records, err := e.store.FetchBySessionID(ctx, id)
	if err != nil {
		return nil, Window{}, false, err
	}
	if len(records) == 0 {
		return nil, Window{}, false, nil
	}
	first, last := timeBounds(records)
	return records, Window{Start: first, End: last}, true, nil
}

// projectSession returns the larger of the current and past session results,
// tagged as projected with the ratio between the two as its scale.
func (e *Engine) projectSession(ctx context.Context, req model.StatsRequest, now time.Time) model.StatsResult {
	curReq := req
	curReq.Mode = model.ModeCurrent
	pastReq := req
	pastReq.Mode = model.ModePast

	var cur, past model.StatsResult
	var g errgroup.Group
	g.Go(func() error {
		cur = e.computeSession(ctx, curReq, now)
		return nil
	})
	g.Go(func() error {
		past = e.computeSession(ctx, pastReq, now)
		return nil
	})
	_ = g.Wait()

	larger, smaller := cur, past
	if past.TotalQuantity > cur.TotalQuantity {
		larger, smaller = past, cur
	}

	scale := 1.0
	if smaller.TotalQuantity > 0 {
		scale = clampScale(larger.TotalQuantity / smaller.TotalQuantity)
	}

	out := larger
	out.Mode = model.ModeProjected
	out.ProjectionScale = &scale
	return out
}
