// Tunehub - Playback Event Analytics and Music Recommendations
// Copyright 2026 Tunehub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunehub/tunehub

// Package ingest tails the player's append-only JSONL event log, deduplicates
// lines by content hash, and records playback and feedback facts.
package ingest

import (
	"strconv"
	"strings"
	"time"

	"github.com/tunehub/tunehub/internal/models"
)

// Payload is one parsed event log line. Fields are free-form; the helpers
// below extract what the recorder needs with tolerant type checks.
type Payload map[string]any

// EventName returns the event kind, or "unknown" when absent.
func (p Payload) EventName() string {
	if v, ok := p["event"].(string); ok && v != "" {
		return v
	}
	return "unknown"
}

// OccurredAt parses the event time, falling back to the current time when the
// field is missing or unparseable.
func (p Payload) OccurredAt() time.Time {
	if raw, ok := p["time"].(string); ok && raw != "" {
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
			if t, err := time.Parse(layout, raw); err == nil {
				return t.UTC()
			}
		}
	}
	return time.Now().UTC()
}

// SessionID returns the session id string, or nil.
func (p Payload) SessionID() *string {
	if v, ok := p["session_id"].(string); ok && v != "" {
		return &v
	}
	return nil
}

// Path returns the media path/URL, or nil.
func (p Payload) Path() *string {
	if v, ok := p["path"].(string); ok && v != "" {
		return &v
	}
	return nil
}

// Reason returns the end/skip reason string, or "".
func (p Payload) Reason() string {
	if v, ok := p["reason"].(string); ok {
		return v
	}
	return ""
}

// Title resolves the display title by priority: media_title, title, then the
// nested metadata title variants.
func (p Payload) Title() *string {
	for _, key := range []string{"media_title", "title"} {
		if v, ok := p[key].(string); ok && strings.TrimSpace(v) != "" {
			t := strings.TrimSpace(v)
			return &t
		}
	}
	if metadata, ok := p["metadata"].(map[string]any); ok {
		for _, key := range []string{"title", "TITLE", "Title"} {
			if v, ok := metadata[key].(string); ok && strings.TrimSpace(v) != "" {
				t := strings.TrimSpace(v)
				return &t
			}
		}
	}
	return nil
}

// Artist resolves the artist from the nested metadata using a fixed priority
// over the field-name variants different players emit.
func (p Payload) Artist() *string {
	metadata, ok := p["metadata"].(map[string]any)
	if !ok {
		return nil
	}
	for _, key := range []string{"artist", "ARTIST", "Artist", "album_artist", "ALBUMARTIST", "uploader"} {
		if v, ok := metadata[key].(string); ok && strings.TrimSpace(v) != "" {
			a := strings.TrimSpace(v)
			return &a
		}
	}
	return nil
}

// Duration returns the reported media duration in seconds, or nil.
func (p Payload) Duration() *float64 {
	return safeFloat(p["duration"])
}

// PlaybackTime returns the reported playback position in seconds, or nil.
func (p Payload) PlaybackTime() *float64 {
	return safeFloat(p["playback_time"])
}

// safeFloat coerces a JSON value to a float, returning nil for anything that
// is not a number or numeric string.
func safeFloat(value any) *float64 {
	switch v := value.(type) {
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	case int64:
		f := float64(v)
		return &f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

// GuessSourceKind classifies a media path/URL into a source kind.
func GuessSourceKind(path *string) *string {
	if path == nil || *path == "" {
		return nil
	}
	var kind string
	switch {
	case strings.Contains(*path, "music.youtube.com"):
		kind = models.SourceKindYTMusic
	case strings.Contains(*path, "youtube.com"), strings.Contains(*path, "youtu.be"):
		kind = models.SourceKindYouTube
	case strings.Contains(*path, "://"):
		kind = models.SourceKindURL
	default:
		kind = models.SourceKindLocal
	}
	return &kind
}
