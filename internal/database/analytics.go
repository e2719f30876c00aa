// Tunehub - Playback Event Analytics and Music Recommendations
// Copyright 2026 Tunehub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunehub/tunehub

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tunehub/tunehub/internal/models"
)

// Scoring weights for the track-level aggregation. Kept in SQL so the whole
// projection is one scan per table.
//
// Ranking:  good +6.0*weight, bad -8.0*weight, completed play_end +1.5, next -2.0
// Profile:  good +4.0, bad -5.0, completed play_end +1.0, next -1.5
// Context:  good +3.0, bad -4.0, completed play_end +1.0, next -1.0

// RankedTracks returns every track scored by its feedback and play history,
// ordered by score DESC, last_seen DESC, track_id DESC. The three-level
// tie-break keeps results deterministic under equal scores.
func (db *DB) RankedTracks(ctx context.Context, limit int) ([]models.RankedTrack, error) {
	rows, err := db.conn.QueryContext(ctx, `
		WITH f_agg AS (
			SELECT
				track_id,
				SUM(CASE
					WHEN kind = 'good' THEN 6.0 * weight
					WHEN kind = 'bad' THEN -8.0 * weight
					ELSE 0 END) AS fb_score,
				MAX(occurred_at) AS last_feedback_at
			FROM feedback_events
			GROUP BY track_id
		),
		p_agg AS (
			SELECT
				track_id,
				SUM(CASE
					WHEN action = 'play_end' AND completed THEN 1.5
					WHEN action = 'next' THEN -2.0
					ELSE 0 END) AS play_score,
				MAX(occurred_at) AS last_play_at
			FROM play_events
			GROUP BY track_id
		),
		agg AS (
			SELECT
				t.id AS track_id,
				t.title,
				t.artist,
				COALESCE(f.fb_score, 0) AS fb_score,
				COALESCE(p.play_score, 0) AS play_score,
				COALESCE(f.last_feedback_at, p.last_play_at, t.updated_at) AS last_seen
			FROM tracks t
			LEFT JOIN f_agg f ON f.track_id = t.id
			LEFT JOIN p_agg p ON p.track_id = t.id
		),
		preferred_source AS (
			SELECT ts.track_id, ts.source_url, ts.source_kind
			FROM track_sources ts
			INNER JOIN (
				SELECT track_id, MIN(id) AS min_id
				FROM track_sources
				WHERE source_url IS NOT NULL
				GROUP BY track_id
			) x ON x.track_id = ts.track_id AND x.min_id = ts.id
		)
		SELECT
			a.track_id, a.title, a.artist,
			(a.fb_score + a.play_score) AS score,
			a.fb_score, a.play_score,
			ps.source_url, ps.source_kind
		FROM agg a
		LEFT JOIN preferred_source ps ON ps.track_id = a.track_id
		ORDER BY score DESC, a.last_seen DESC, a.track_id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ranked tracks: %w", err)
	}
	defer closeWithLog(rows, "ranked tracks rows")

	var out []models.RankedTrack
	for rows.Next() {
		var (
			r          models.RankedTrack
			artist     sql.NullString
			sourceURL  sql.NullString
			sourceKind sql.NullString
		)
		if err := rows.Scan(&r.TrackID, &r.Title, &artist, &r.Score, &r.FbScore,
			&r.PlayScore, &sourceURL, &sourceKind); err != nil {
			return nil, fmt.Errorf("failed to scan ranked track: %w", err)
		}
		r.Artist = nullableString(artist)
		r.SourceURL = nullableString(sourceURL)
		r.SourceKind = nullableString(sourceKind)
		out = append(out, r)
	}
	return out, rows.Err()
}

// TopGoodArtists returns artists ranked by count of good feedback, ties
// broken by artist name ascending.
func (db *DB) TopGoodArtists(ctx context.Context, limit int) ([]models.ArtistGoods, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT
			COALESCE(t.artist, '<unknown>') AS artist,
			COUNT(*) AS goods
		FROM feedback_events f
		JOIN tracks t ON t.id = f.track_id
		WHERE f.kind = 'good'
		GROUP BY COALESCE(t.artist, '<unknown>')
		ORDER BY goods DESC, artist ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top artists: %w", err)
	}
	defer closeWithLog(rows, "top artists rows")

	var out []models.ArtistGoods
	for rows.Next() {
		var a models.ArtistGoods
		if err := rows.Scan(&a.Artist, &a.Goods); err != nil {
			return nil, fmt.Errorf("failed to scan artist: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// RecentTrackIDs returns the most recently touched distinct track ids, newest
// first, considering both play and feedback events.
func (db *DB) RecentTrackIDs(ctx context.Context, limit int) ([]int64, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT track_id
		FROM (
			SELECT track_id, occurred_at
			FROM play_events
			WHERE track_id IS NOT NULL
			UNION ALL
			SELECT track_id, occurred_at
			FROM feedback_events
			WHERE track_id IS NOT NULL
		)
		GROUP BY track_id
		ORDER BY MAX(occurred_at) DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent tracks: %w", err)
	}
	defer closeWithLog(rows, "recent tracks rows")

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan track id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// TrackSourceMap resolves a set of track ids to their identity plus preferred
// source (the earliest-registered TrackSource with a non-null URL).
func (db *DB) TrackSourceMap(ctx context.Context, trackIDs []int64) (map[int64]models.TrackSourceInfo, error) {
	if len(trackIDs) == 0 {
		return map[int64]models.TrackSourceInfo{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(trackIDs)), ",")
	args := make([]any, len(trackIDs))
	for i, id := range trackIDs {
		args[i] = id
	}

	rows, err := db.conn.QueryContext(ctx, `
		WITH preferred_source AS (
			SELECT ts.track_id, ts.source_url, ts.source_kind
			FROM track_sources ts
			INNER JOIN (
				SELECT track_id, MIN(id) AS min_id
				FROM track_sources
				WHERE source_url IS NOT NULL
				GROUP BY track_id
			) x ON x.track_id = ts.track_id AND x.min_id = ts.id
		)
		SELECT t.id AS track_id, t.title, t.artist, t.duration_sec, ps.source_url, ps.source_kind
		FROM tracks t
		LEFT JOIN preferred_source ps ON ps.track_id = t.id
		WHERE t.id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query track source map: %w", err)
	}
	defer closeWithLog(rows, "track source map rows")

	out := make(map[int64]models.TrackSourceInfo, len(trackIDs))
	for rows.Next() {
		var (
			info       models.TrackSourceInfo
			artist     sql.NullString
			duration   sql.NullFloat64
			sourceURL  sql.NullString
			sourceKind sql.NullString
		)
		if err := rows.Scan(&info.TrackID, &info.Title, &artist, &duration, &sourceURL, &sourceKind); err != nil {
			return nil, fmt.Errorf("failed to scan track source info: %w", err)
		}
		info.Artist = nullableString(artist)
		info.SourceURL = nullableString(sourceURL)
		info.SourceKind = nullableString(sourceKind)
		if duration.Valid {
			info.DurationSec = &duration.Float64
		}
		out[info.TrackID] = info
	}
	return out, rows.Err()
}

// ProfileWeights returns the signed per-track preference weights used to
// build the synthetic profile row for neighborhood-model training. Tracks
// whose combined weight is zero are omitted.
func (db *DB) ProfileWeights(ctx context.Context) ([]models.ProfileWeight, error) {
	rows, err := db.conn.QueryContext(ctx, `
		WITH pos_fb AS (
			SELECT track_id, SUM(CASE WHEN kind='good' THEN 4.0 WHEN kind='bad' THEN -5.0 ELSE 0 END) AS s
			FROM feedback_events
			WHERE track_id IS NOT NULL
			GROUP BY track_id
		),
		pos_play AS (
			SELECT track_id, SUM(CASE WHEN action='play_end' AND completed THEN 1.0 WHEN action='next' THEN -1.5 ELSE 0 END) AS s
			FROM play_events
			WHERE track_id IS NOT NULL
			GROUP BY track_id
		)
		SELECT
			t.id AS track_id,
			COALESCE(f.s, 0) + COALESCE(p.s, 0) AS weight
		FROM tracks t
		LEFT JOIN pos_fb f ON f.track_id = t.id
		LEFT JOIN pos_play p ON p.track_id = t.id
		WHERE (COALESCE(f.s, 0) + COALESCE(p.s, 0)) != 0
		ORDER BY weight DESC, t.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query profile weights: %w", err)
	}
	defer closeWithLog(rows, "profile weights rows")

	var out []models.ProfileWeight
	for rows.Next() {
		var w models.ProfileWeight
		if err := rows.Scan(&w.TrackID, &w.Weight); err != nil {
			return nil, fmt.Errorf("failed to scan profile weight: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// ContextInteractions returns signed (context, track) weights for training.
// The context key is the session id when present, else a day bucket derived
// from the event timestamp. Pairs whose combined weight is zero are omitted.
func (db *DB) ContextInteractions(ctx context.Context) ([]models.ContextInteraction, error) {
	rows, err := db.conn.QueryContext(ctx, `
		WITH e AS (
			SELECT
				COALESCE(NULLIF(session_id, ''), 'd:' || strftime(occurred_at, '%Y-%m-%d')) AS context_key,
				track_id,
				SUM(CASE
					WHEN kind='good' THEN 3.0
					WHEN kind='bad' THEN -4.0
					ELSE 0 END) AS w
			FROM feedback_events
			WHERE track_id IS NOT NULL
			GROUP BY 1, 2
			UNION ALL
			SELECT
				COALESCE(NULLIF(session_id, ''), 'd:' || strftime(occurred_at, '%Y-%m-%d')) AS context_key,
				track_id,
				SUM(CASE
					WHEN action='play_end' AND completed THEN 1.0
					WHEN action='next' THEN -1.0
					ELSE 0 END) AS w
			FROM play_events
			WHERE track_id IS NOT NULL
			GROUP BY 1, 2
		)
		SELECT context_key, track_id, SUM(w) AS weight
		FROM e
		GROUP BY context_key, track_id
		HAVING SUM(w) != 0
		ORDER BY context_key, track_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query context interactions: %w", err)
	}
	defer closeWithLog(rows, "context interactions rows")

	var out []models.ContextInteraction
	for rows.Next() {
		var ci models.ContextInteraction
		if err := rows.Scan(&ci.ContextKey, &ci.TrackID, &ci.Weight); err != nil {
			return nil, fmt.Errorf("failed to scan context interaction: %w", err)
		}
		out = append(out, ci)
	}
	return out, rows.Err()
}

// Stats returns a snapshot of store contents for diagnostics.
func (db *DB) Stats(ctx context.Context) (*models.StatsSummary, error) {
	var s models.StatsSummary
	err := db.conn.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM tracks) AS tracks,
			(SELECT COUNT(*) FROM track_sources) AS sources,
			(SELECT COUNT(*) FROM play_events) AS play_events,
			(SELECT COUNT(*) FROM feedback_events) AS feedback_events,
			(SELECT COUNT(*) FROM feedback_events WHERE kind='good') AS good_events,
			(SELECT COUNT(*) FROM feedback_events WHERE kind='bad') AS bad_events`).
		Scan(&s.Tracks, &s.Sources, &s.PlayEvents, &s.FeedbackEvents, &s.GoodEvents, &s.BadEvents)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats counts: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, `
		WITH fg AS (
			SELECT track_id, SUM(CASE WHEN kind='good' THEN 1 ELSE 0 END) AS goods
			FROM feedback_events
			GROUP BY track_id
		),
		pg AS (
			SELECT track_id, SUM(CASE WHEN completed THEN 1 ELSE 0 END) AS completes
			FROM play_events
			GROUP BY track_id
		)
		SELECT
			COALESCE(t.artist, '<unknown>') AS artist,
			SUM(COALESCE(fg.goods, 0)) AS goods,
			SUM(COALESCE(pg.completes, 0)) AS completes
		FROM tracks t
		LEFT JOIN fg ON fg.track_id = t.id
		LEFT JOIN pg ON pg.track_id = t.id
		GROUP BY COALESCE(t.artist, '<unknown>')
		ORDER BY goods DESC, completes DESC, artist ASC
		LIMIT 8`)
	if err != nil {
		return nil, fmt.Errorf("failed to query top artists: %w", err)
	}
	defer closeWithLog(rows, "stats artists rows")

	for rows.Next() {
		var a models.ArtistPlay
		if err := rows.Scan(&a.Artist, &a.Goods, &a.Completes); err != nil {
			return nil, fmt.Errorf("failed to scan artist stats: %w", err)
		}
		s.TopArtists = append(s.TopArtists, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &s, nil
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}
