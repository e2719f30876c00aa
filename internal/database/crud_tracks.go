// Tunehub - Playback Event Analytics and Music Recommendations
// Copyright 2026 Tunehub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunehub/tunehub

package database

import (
	"fmt"
	"strings"
)

// NormalizeText folds case and collapses whitespace for canonical-key
// derivation. Empty and nil-ish input normalizes to "".
func NormalizeText(value string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(value))), " ")
}

// CanonicalKey derives the unique track identity from title and artist.
// Missing parts fall back to fixed placeholders so the key is always total.
func CanonicalKey(title, artist string) string {
	t := NormalizeText(title)
	if t == "" {
		t = "unknown-title"
	}
	a := NormalizeText(artist)
	if a == "" {
		a = "unknown-artist"
	}
	return t + "::" + a
}

// TrackUpsert is the input to UpsertTrack. All fields are optional.
type TrackUpsert struct {
	Title       *string
	Artist      *string
	DurationSec *float64
	SourceKind  *string
	SourceURL   *string
	SourceID    *string
}

// UpsertTrack creates or refreshes a Track, and when both source kind and URL
// are present, the TrackSource binding keyed by (source_kind, source_url).
// Returns nil without error when both title and source URL are absent: there
// is no stable identity to anchor on.
//
// Updates never null an existing value with a missing new one; title is
// always refreshed because it is never empty here.
func (tx *Tx) UpsertTrack(up TrackUpsert) (*int64, error) {
	title := strPtrValue(up.Title)
	sourceURL := strPtrValue(up.SourceURL)
	if title == "" && sourceURL == "" {
		return nil, nil
	}

	titleValue := title
	if titleValue == "" {
		titleValue = sourceURL
	}
	if titleValue == "" {
		titleValue = "unknown"
	}
	ckey := CanonicalKey(titleValue, strPtrValue(up.Artist))

	_, err := tx.tx.ExecContext(tx.ctx, `
		INSERT INTO tracks(canonical_key, title, artist, duration_sec)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (canonical_key) DO UPDATE SET
			title = excluded.title,
			artist = COALESCE(excluded.artist, tracks.artist),
			duration_sec = COALESCE(excluded.duration_sec, tracks.duration_sec),
			updated_at = now()`,
		ckey, titleValue, up.Artist, up.DurationSec)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert track: %w", err)
	}

	var trackID int64
	err = tx.tx.QueryRowContext(tx.ctx,
		`SELECT id FROM tracks WHERE canonical_key = ?`, ckey).Scan(&trackID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve track id: %w", err)
	}

	if strPtrValue(up.SourceKind) != "" && sourceURL != "" {
		_, err = tx.tx.ExecContext(tx.ctx, `
			INSERT INTO track_sources(track_id, source_kind, source_id, source_url, source_title, source_artist)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (source_kind, source_url) DO UPDATE SET
				track_id = excluded.track_id,
				source_id = COALESCE(excluded.source_id, track_sources.source_id),
				source_title = COALESCE(excluded.source_title, track_sources.source_title),
				source_artist = COALESCE(excluded.source_artist, track_sources.source_artist)`,
			trackID, up.SourceKind, up.SourceID, up.SourceURL, titleValue, up.Artist)
		if err != nil {
			return nil, fmt.Errorf("failed to upsert track source: %w", err)
		}
	}

	return &trackID, nil
}

func strPtrValue(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}
