// Tunehub - Playback Event Analytics and Music Recommendations
// Copyright 2026 Tunehub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunehub/tunehub

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// InsertRawEvent records the dedup ledger entry for one raw input line.
// Returns false when the hash already exists; duplicates are absorbed
// silently so re-reading a log never double-applies an event.
func (tx *Tx) InsertRawEvent(eventHash, eventName, payloadJSON string) (bool, error) {
	res, err := tx.tx.ExecContext(tx.ctx, `
		INSERT INTO raw_events(event_hash, event_name, payload_json)
		VALUES (?, ?, ?)
		ON CONFLICT (event_hash) DO NOTHING`,
		eventHash, eventName, payloadJSON)
	if err != nil {
		return false, fmt.Errorf("failed to insert raw event: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected > 0, nil
}

// PlayEventInsert is the input to InsertPlayEvent.
type PlayEventInsert struct {
	OccurredAt      time.Time
	TrackID         *int64
	SourceURL       *string
	SourceKind      *string
	Action          string
	Completed       bool
	Reason          *string
	PlaybackTimeSec *float64
	DurationSec     *float64
	SessionID       *string
}

// InsertPlayEvent appends one playback fact.
func (tx *Tx) InsertPlayEvent(ev PlayEventInsert) error {
	_, err := tx.tx.ExecContext(tx.ctx, `
		INSERT INTO play_events(
			id, occurred_at, track_id, source_url, source_kind, action,
			completed, reason, playback_time_sec, duration_sec, session_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), ev.OccurredAt, ev.TrackID, ev.SourceURL, ev.SourceKind,
		ev.Action, ev.Completed, ev.Reason, ev.PlaybackTimeSec, ev.DurationSec, ev.SessionID)
	if err != nil {
		return fmt.Errorf("failed to insert play event: %w", err)
	}
	return nil
}

// FeedbackEventInsert is the input to InsertFeedbackEvent.
type FeedbackEventInsert struct {
	OccurredAt time.Time
	TrackID    *int64
	SourceURL  *string
	SourceKind *string
	Kind       string
	Weight     float64
	SessionID  *string
	Note       *string
}

// InsertFeedbackEvent appends one feedback fact. A zero weight is stored as
// the default 1.0.
func (tx *Tx) InsertFeedbackEvent(ev FeedbackEventInsert) error {
	weight := ev.Weight
	if weight == 0 {
		weight = 1.0
	}
	_, err := tx.tx.ExecContext(tx.ctx, `
		INSERT INTO feedback_events(
			id, occurred_at, track_id, source_url, source_kind, kind, weight, session_id, note
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), ev.OccurredAt, ev.TrackID, ev.SourceURL, ev.SourceKind,
		ev.Kind, weight, ev.SessionID, ev.Note)
	if err != nil {
		return fmt.Errorf("failed to insert feedback event: %w", err)
	}
	return nil
}

// IngestOffset returns the persisted byte offset for a named stream, or 0 if
// the stream has never been read.
func (tx *Tx) IngestOffset(sourceName string) (int64, error) {
	var offset int64
	err := tx.tx.QueryRowContext(tx.ctx,
		`SELECT offset_bytes FROM ingest_state WHERE source_name = ?`, sourceName).Scan(&offset)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read ingest offset: %w", err)
	}
	return offset, nil
}

// SetIngestOffset persists the byte offset for a named stream. It is called
// inside the same transaction as the records derived from the consumed lines.
func (tx *Tx) SetIngestOffset(sourceName string, offsetBytes int64) error {
	_, err := tx.tx.ExecContext(tx.ctx, `
		INSERT INTO ingest_state(source_name, offset_bytes)
		VALUES (?, ?)
		ON CONFLICT (source_name) DO UPDATE SET
			offset_bytes = excluded.offset_bytes,
			updated_at = now()`,
		sourceName, offsetBytes)
	if err != nil {
		return fmt.Errorf("failed to set ingest offset: %w", err)
	}
	return nil
}

// GetIngestOffset reads the persisted offset outside a transaction, for
// status reporting.
func (db *DB) GetIngestOffset(ctx context.Context, sourceName string) (int64, error) {
	var offset int64
	err := db.conn.QueryRowContext(ctx, `SELECT offset_bytes FROM ingest_state WHERE source_name = ?`, sourceName).Scan(&offset)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read ingest offset: %w", err)
	}
	return offset, nil
}
