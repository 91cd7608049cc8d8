package pipeline

import (
	"strconv"
	"time"

	"github.com/theirongolddev/stashstat/internal/model"
)

// TargetKind says how a session-scoped request finds its records.
type TargetKind int

const (
	// TargetEmpty means no session context is available.
	TargetEmpty TargetKind = iota
	// TargetCurrent fetches the live session, falling back to its time range.
	TargetCurrent
	// TargetPast fetches a known completed session.
	TargetPast
	// TargetLookupPast asks the store for the latest session other than ExcludeID.
	TargetLookupPast
)

// SessionTarget is the result of session resolution.
type SessionTarget struct {
	Kind      TargetKind
	SessionID string
	Start     time.Time
	ExcludeID string
}

// SessionIDFor returns the session id logged for a session started at t.
func SessionIDFor(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// ResolveSession picks the session a SESSION-period request reads. The
// projected mode has no target of its own; the engine combines the current
// and past targets instead.
func ResolveSession(mode model.Mode, sessionStart time.Time, lastCompletedSessionID string) SessionTarget {
	switch mode {
	case model.ModeCurrent:
		if sessionStart.IsZero() {
			return SessionTarget{Kind: TargetEmpty}
		}
		return SessionTarget{
			Kind:      TargetCurrent,
			SessionID: SessionIDFor(sessionStart),
			Start:     sessionStart,
		}
	case model.ModePast:
		if lastCompletedSessionID != "" {
			return SessionTarget{Kind: TargetPast, SessionID: lastCompletedSessionID}
		}
		target := SessionTarget{Kind: TargetLookupPast}
		if !sessionStart.IsZero() {
			target.ExcludeID = SessionIDFor(sessionStart)
		}
		return target
	}
	return SessionTarget{Kind: TargetEmpty}
}

// pickPastSession returns the first id in ids (most recent first) that is
// not the excluded current session.
func pickPastSession(ids []string, exclude string) (string, bool) {
	for _, id := range ids {
		if id != "" && id != exclude {
			return id, true
		}
	}
	return "", false
}
