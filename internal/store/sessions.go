package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"reelforge/internal/services"
	"reelforge/internal/services/factory"
)

// SessionRecord is one observed pipeline session.
type SessionRecord struct {
	SessionID string                 `json:"session_id" yaml:"session_id"`
	Snapshot  factory.PipelineStatus `json:"snapshot" yaml:"snapshot"`
	Polls     int                    `json:"polls" yaml:"polls"`
	FirstSeen time.Time              `json:"first_seen" yaml:"first_seen"`
	LastSeen  time.Time              `json:"last_seen" yaml:"last_seen"`
}

// RecordSession stores the latest snapshot for a session. Once a session has
// been recorded as completed or error, later snapshots are ignored.
func (s *Store) RecordSession(ctx context.Context, sessionID string, status factory.PipelineStatus) error {
	if sessionID == "" {
		return services.Wrap(services.ErrValidation, "store", "record session", "session id required", nil)
	}
	payload, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("encode session snapshot: %w", err)
	}
	now := s.timestamp()
	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
INSERT INTO sessions (session_id, topic, status, phase, progress, message, output, started_at, completed_at, snapshot_json, polls, first_seen, last_seen)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
ON CONFLICT(session_id) DO UPDATE SET
    topic = excluded.topic,
    status = excluded.status,
    phase = excluded.phase,
    progress = excluded.progress,
    message = excluded.message,
    output = excluded.output,
    started_at = excluded.started_at,
    completed_at = excluded.completed_at,
    snapshot_json = excluded.snapshot_json,
    polls = sessions.polls + 1,
    last_seen = excluded.last_seen
WHERE sessions.status NOT IN ('completed', 'error')`,
			sessionID, status.Topic, status.Status, status.Phase, status.Progress, status.Message,
			status.Output, status.StartedAt, status.CompletedAt, string(payload), now, now)
		return err
	})
}

// GetSession returns the recorded session or an ErrNotFound error.
func (s *Store) GetSession(ctx context.Context, sessionID string) (SessionRecord, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		"SELECT session_id, snapshot_json, polls, first_seen, last_seen FROM sessions WHERE session_id = ?", sessionID)
	rec, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionRecord{}, services.Wrap(services.ErrNotFound, "store", "get session", sessionID, nil)
	}
	return rec, err
}

// ListSessions returns recorded sessions, most recently seen first. A
// non-positive limit returns all of them.
func (s *Store) ListSessions(ctx context.Context, limit int) ([]SessionRecord, error) {
	ctx = ensureContext(ctx)
	query := "SELECT session_id, snapshot_json, polls, first_seen, last_seen FROM sessions ORDER BY last_seen DESC, session_id"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (SessionRecord, error) {
	var (
		rec                 SessionRecord
		raw                 string
		firstSeen, lastSeen string
	)
	if err := row.Scan(&rec.SessionID, &raw, &rec.Polls, &firstSeen, &lastSeen); err != nil {
		return SessionRecord{}, err
	}
	if err := json.Unmarshal([]byte(raw), &rec.Snapshot); err != nil {
		return SessionRecord{}, fmt.Errorf("decode session %s: %w", rec.SessionID, err)
	}
	rec.FirstSeen = parseTimestamp(firstSeen)
	rec.LastSeen = parseTimestamp(lastSeen)
	return rec, nil
}
