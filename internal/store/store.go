// Package store provides the SQLite-backed activity log.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/stashstat/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// ErrNoRecords is returned by Undo when the log is empty.
var ErrNoRecords = errors.New("no activity records")

// ActivityLog reads and writes activity records in SQLite.
type ActivityLog struct {
	db *sql.DB
}

// Open opens or creates the activity database at dbPath and applies any
// pending migrations.
func Open(dbPath string) (*ActivityLog, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening activity db: %w", err)
	}

	return &ActivityLog{db: db}, nil
}

// Close closes the database.
func (l *ActivityLog) Close() error {
	return l.db.Close()
}

const selectActivity = `SELECT id, category, ts_ms, consumer_id, quantity, cost, owner_tag, session_id
	FROM activities`

// FetchByTimeRange returns records with start <= timestamp < end, oldest first.
func (l *ActivityLog) FetchByTimeRange(ctx context.Context, start, end time.Time) ([]model.ActivityRecord, error) {
	rows, err := l.db.QueryContext(ctx, selectActivity+`
		WHERE ts_ms >= ? AND ts_ms < ?
		ORDER BY ts_ms, id`, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("querying time range: %w", err)
	}
	return scanActivities(rows)
}

// FetchBySessionID returns the records logged during a session, oldest first.
func (l *ActivityLog) FetchBySessionID(ctx context.Context, sessionID string) ([]model.ActivityRecord, error) {
	rows, err := l.db.QueryContext(ctx, selectActivity+`
		WHERE session_id = ?
		ORDER BY ts_ms, id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying session %s: %w", sessionID, err)
	}
	return scanActivities(rows)
}

// DistinctSessionIDs returns up to limit session ids ordered by their latest
// activity, most recent first.
func (l *ActivityLog) DistinctSessionIDs(ctx context.Context, limit int) ([]string, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT session_id FROM activities
		WHERE session_id IS NOT NULL AND session_id != ''
		GROUP BY session_id
		ORDER BY MAX(ts_ms) DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying session ids: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ResolveConsumerIdentity returns the external identity linked to a consumer.
func (l *ActivityLog) ResolveConsumerIdentity(ctx context.Context, consumerID string) (model.ExternalIdentity, bool, error) {
	var ident model.ExternalIdentity
	var display sql.NullString
	err := l.db.QueryRowContext(ctx,
		"SELECT user_id, display_name FROM consumer_identities WHERE consumer_id = ?", consumerID,
	).Scan(&ident.UserID, &display)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ExternalIdentity{}, false, nil
	}
	if err != nil {
		return model.ExternalIdentity{}, false, fmt.Errorf("resolving consumer %s: %w", consumerID, err)
	}
	ident.DisplayName = display.String
	return ident, true, nil
}

// LinkIdentity maps a consumer id to an external identity, replacing any
// previous link.
func (l *ActivityLog) LinkIdentity(ctx context.Context, consumerID string, ident model.ExternalIdentity) error {
	if consumerID == "" || ident.UserID == "" {
		return errors.New("consumer id and user id are required")
	}
	_, err := l.db.ExecContext(ctx, `INSERT OR REPLACE INTO consumer_identities
		(consumer_id, user_id, display_name) VALUES (?, ?, ?)`,
		consumerID, ident.UserID, nullString(ident.DisplayName))
	if err != nil {
		return fmt.Errorf("linking consumer %s: %w", consumerID, err)
	}
	return nil
}

// Insert stores a new record and returns it with its assigned id.
func (l *ActivityLog) Insert(ctx context.Context, r model.ActivityRecord) (model.ActivityRecord, error) {
	if _, err := model.ParseCategory(string(r.Category)); err != nil {
		return r, err
	}
	if r.ConsumerID == "" {
		return r, errors.New("consumer id is required")
	}
	if r.Quantity < 0 || r.Cost < 0 {
		return r, errors.New("quantity and cost must not be negative")
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}

	res, err := l.db.ExecContext(ctx, `INSERT INTO activities
		(category, ts_ms, consumer_id, quantity, cost, owner_tag, session_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(r.Category), r.Timestamp.UnixMilli(), r.ConsumerID, r.Quantity, r.Cost,
		nullString(r.Owner), nullString(r.SessionID),
	)
	if err != nil {
		return r, fmt.Errorf("inserting activity: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return r, fmt.Errorf("reading activity id: %w", err)
	}
	r.ID = id
	r.Timestamp = time.UnixMilli(r.Timestamp.UnixMilli())
	return r, nil
}

// Undo deletes the most recently logged record and returns it.
func (l *ActivityLog) Undo(ctx context.Context) (model.ActivityRecord, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return model.ActivityRecord{}, err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, selectActivity+` ORDER BY ts_ms DESC, id DESC LIMIT 1`)
	if err != nil {
		return model.ActivityRecord{}, fmt.Errorf("finding latest activity: %w", err)
	}
	latest, err := scanActivities(rows)
	if err != nil {
		return model.ActivityRecord{}, err
	}
	if len(latest) == 0 {
		return model.ActivityRecord{}, ErrNoRecords
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM activities WHERE id = ?", latest[0].ID); err != nil {
		return model.ActivityRecord{}, fmt.Errorf("deleting activity: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return model.ActivityRecord{}, err
	}
	return latest[0], nil
}

// Count returns the number of stored records.
func (l *ActivityLog) Count(ctx context.Context) (int, error) {
	var count int
	err := l.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM activities").Scan(&count)
	return count, err
}

func scanActivities(rows *sql.Rows) ([]model.ActivityRecord, error) {
	defer func() { _ = rows.Close() }()

	records := []model.ActivityRecord{}
	for rows.Next() {
		var r model.ActivityRecord
		var category string
		var tsMs int64
		var owner, session sql.NullString

		if err := rows.Scan(&r.ID, &category, &tsMs, &r.ConsumerID,
			&r.Quantity, &r.Cost, &owner, &session); err != nil {
			return nil, err
		}
		r.Category = model.Category(category)
		r.Timestamp = time.UnixMilli(tsMs)
		r.Owner = owner.String
		r.SessionID = session.String
		records = append(records, r)
	}
	return records, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
