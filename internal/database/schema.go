// Tunehub - Playback Event Analytics and Music Recommendations
// Copyright 2026 Tunehub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunehub/tunehub

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createSchema creates the sequences and tables.
func (db *DB) createSchema() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range schemaQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

// schemaQueries returns the sequence and table creation SQL statements.
func schemaQueries() []string {
	return []string{
		`CREATE SEQUENCE IF NOT EXISTS tracks_id_seq START 1`,
		`CREATE SEQUENCE IF NOT EXISTS track_sources_id_seq START 1`,

		// Canonical track catalog. Deduplicated by canonical_key; rows are
		// updated in place and never deleted.
		`CREATE TABLE IF NOT EXISTS tracks (
			id BIGINT PRIMARY KEY DEFAULT nextval('tracks_id_seq'),
			canonical_key TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			artist TEXT,
			duration_sec DOUBLE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		// External origins a track has been seen under.
		`CREATE TABLE IF NOT EXISTS track_sources (
			id BIGINT PRIMARY KEY DEFAULT nextval('track_sources_id_seq'),
			track_id BIGINT NOT NULL,
			source_kind TEXT NOT NULL,
			source_id TEXT,
			source_url TEXT NOT NULL,
			source_title TEXT,
			source_artist TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (source_kind, source_url)
		)`,

		// Deduplication ledger keyed by content hash of the raw input line.
		// A duplicate insert is rejected without error; this is the
		// exactly-once boundary for ingestion.
		`CREATE TABLE IF NOT EXISTS raw_events (
			event_hash TEXT PRIMARY KEY,
			event_name TEXT NOT NULL,
			payload_json TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		// Append-only playback facts.
		`CREATE TABLE IF NOT EXISTS play_events (
			id UUID PRIMARY KEY,
			occurred_at TIMESTAMP NOT NULL,
			track_id BIGINT,
			source_url TEXT,
			source_kind TEXT,
			action TEXT NOT NULL,
			completed BOOLEAN NOT NULL DEFAULT FALSE,
			reason TEXT,
			playback_time_sec DOUBLE,
			duration_sec DOUBLE,
			session_id TEXT
		)`,

		// Append-only explicit feedback facts.
		`CREATE TABLE IF NOT EXISTS feedback_events (
			id UUID PRIMARY KEY,
			occurred_at TIMESTAMP NOT NULL,
			track_id BIGINT,
			source_url TEXT,
			source_kind TEXT,
			kind TEXT NOT NULL,
			weight DOUBLE NOT NULL DEFAULT 1.0,
			session_id TEXT,
			note TEXT
		)`,

		// Per-stream byte offset into the append-only event log. Updated in
		// the same transaction as the records derived from each line.
		`CREATE TABLE IF NOT EXISTS ingest_state (
			source_name TEXT PRIMARY KEY,
			offset_bytes BIGINT NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}
}

// createIndexes creates indexes for the aggregation queries.
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_track_sources_track_id ON track_sources(track_id)`,
		`CREATE INDEX IF NOT EXISTS idx_play_events_track_id ON play_events(track_id)`,
		`CREATE INDEX IF NOT EXISTS idx_play_events_occurred_at ON play_events(occurred_at)`,
		`CREATE INDEX IF NOT EXISTS idx_feedback_events_track_id ON feedback_events(track_id)`,
		`CREATE INDEX IF NOT EXISTS idx_feedback_events_occurred_at ON feedback_events(occurred_at)`,
	}

	for _, query := range indexes {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", query, err)
		}
	}
	return nil
}
