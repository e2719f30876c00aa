// Tunehub - Playback Event Analytics and Music Recommendations
// Copyright 2026 Tunehub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunehub/tunehub

// Package models defines the core data types shared across Tunehub.
package models

import "time"

// Track is a canonical track row. Tracks are deduplicated by a canonical key
// derived from normalized title (falling back to source URL) plus artist.
type Track struct {
	ID           int64     `json:"id"`
	CanonicalKey string    `json:"canonical_key"`
	Title        string    `json:"title"`
	Artist       *string   `json:"artist,omitempty"`
	DurationSec  *float64  `json:"duration_sec,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TrackSource binds one external origin to a Track. Keyed by
// (source_kind, source_url); a track can carry sources from many origins.
type TrackSource struct {
	ID           int64     `json:"id"`
	TrackID      int64     `json:"track_id"`
	SourceKind   string    `json:"source_kind"`
	SourceID     *string   `json:"source_id,omitempty"`
	SourceURL    string    `json:"source_url"`
	SourceTitle  *string   `json:"source_title,omitempty"`
	SourceArtist *string   `json:"source_artist,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Source kinds recognized by the URL classifier.
const (
	SourceKindYTMusic = "ytmusic"
	SourceKindYouTube = "youtube"
	SourceKindURL     = "url"
	SourceKindLocal   = "local"
)

// Play event actions.
const (
	ActionPlayStart = "play_start"
	ActionPlayEnd   = "play_end"
	ActionNext      = "next"
)

// Feedback kinds.
const (
	FeedbackGood = "good"
	FeedbackBad  = "bad"
)

// PlayEvent records one playback observation. Append-only, immutable once
// written.
type PlayEvent struct {
	ID              string    `json:"id"`
	OccurredAt      time.Time `json:"occurred_at"`
	TrackID         *int64    `json:"track_id,omitempty"`
	SourceURL       *string   `json:"source_url,omitempty"`
	SourceKind      *string   `json:"source_kind,omitempty"`
	Action          string    `json:"action"`
	Completed       bool      `json:"completed"`
	Reason          *string   `json:"reason,omitempty"`
	PlaybackTimeSec *float64  `json:"playback_time_sec,omitempty"`
	DurationSec     *float64  `json:"duration_sec,omitempty"`
	SessionID       *string   `json:"session_id,omitempty"`
}

// FeedbackEvent records an explicit good or bad rating. Append-only.
type FeedbackEvent struct {
	ID         string    `json:"id"`
	OccurredAt time.Time `json:"occurred_at"`
	TrackID    *int64    `json:"track_id,omitempty"`
	SourceURL  *string   `json:"source_url,omitempty"`
	SourceKind *string   `json:"source_kind,omitempty"`
	Kind       string    `json:"kind"`
	Weight     float64   `json:"weight"`
	SessionID  *string   `json:"session_id,omitempty"`
	Note       *string   `json:"note,omitempty"`
}

// IngestStats summarizes one tail pass over the event log.
type IngestStats struct {
	Read    int   `json:"read"`
	New     int   `json:"new"`
	Skipped int   `json:"skipped"`
	Offset  int64 `json:"offset"`
}

// ImportStats summarizes one bulk import run.
type ImportStats struct {
	Tracks   int      `json:"tracks"`
	Plays    int      `json:"plays"`
	Feedback int      `json:"feedback"`
	Skipped  int      `json:"skipped"`
	Notes    []string `json:"notes,omitempty"`
}

// RankedTrack is one row of the aggregation engine's scoring projection.
type RankedTrack struct {
	TrackID    int64   `json:"track_id"`
	Title      string  `json:"title"`
	Artist     *string `json:"artist,omitempty"`
	Score      float64 `json:"score"`
	FbScore    float64 `json:"fb_score"`
	PlayScore  float64 `json:"play_score"`
	SourceURL  *string `json:"source_url,omitempty"`
	SourceKind *string `json:"source_kind,omitempty"`
}

// Recommendation is a single scored track suggestion returned to callers.
type Recommendation struct {
	TrackID    int64   `json:"track_id"`
	Title      string  `json:"title"`
	Artist     *string `json:"artist,omitempty"`
	Score      float64 `json:"score"`
	SourceURL  *string `json:"source_url,omitempty"`
	SourceKind *string `json:"source_kind,omitempty"`
	Reason     string  `json:"reason,omitempty"`
}

// ArtistGoods counts good feedback per artist.
type ArtistGoods struct {
	Artist string `json:"artist"`
	Goods  int64  `json:"goods"`
}

// ProfileWeight is a signed preference weight for one track, aggregated over
// all of a user's feedback and play history.
type ProfileWeight struct {
	TrackID int64   `json:"track_id"`
	Weight  float64 `json:"weight"`
}

// ContextInteraction is a signed weight for one (context, track) pair.
// The context key is the session id when present, else a day bucket
// ("d:" + date portion of the timestamp).
type ContextInteraction struct {
	ContextKey string  `json:"context_key"`
	TrackID    int64   `json:"track_id"`
	Weight     float64 `json:"weight"`
}

// TrackSourceInfo is one entry of the preferred-source projection: track
// identity plus the earliest-registered source with a non-null URL.
type TrackSourceInfo struct {
	TrackID     int64    `json:"track_id"`
	Title       string   `json:"title"`
	Artist      *string  `json:"artist,omitempty"`
	DurationSec *float64 `json:"duration_sec,omitempty"`
	SourceURL   *string  `json:"source_url,omitempty"`
	SourceKind  *string  `json:"source_kind,omitempty"`
}

// TrainResult reports the outcome of one neighborhood-model training run.
// When OK is false the model cache is left untouched and Message explains why.
type TrainResult struct {
	OK        bool      `json:"ok"`
	Message   string    `json:"message,omitempty"`
	Notes     []string  `json:"notes,omitempty"`
	Contexts  int       `json:"contexts"`
	Tracks    int       `json:"tracks"`
	Persisted int       `json:"persisted"`
	TrainedAt time.Time `json:"trained_at,omitempty"`
}

// ModelCache is the persisted artifact of a successful training run. It is
// replaced atomically so readers never observe a partial file.
type ModelCache struct {
	Engine          string            `json:"engine"`
	CreatedAt       time.Time         `json:"created_at"`
	Contexts        int               `json:"contexts"`
	Items           int               `json:"items"`
	Params          ModelParams       `json:"params"`
	Recommendations []CachedRecommend `json:"recommendations"`
}

// ModelParams records the hyperparameters the cache was built with.
type ModelParams struct {
	TopN int `json:"topn"`
	K    int `json:"k"`
}

// CachedRecommend is one scored entry in the model cache.
type CachedRecommend struct {
	TrackID int64   `json:"track_id"`
	Score   float64 `json:"score"`
}

// StatsSummary is a snapshot of store contents for diagnostics.
type StatsSummary struct {
	Tracks         int64        `json:"tracks"`
	Sources        int64        `json:"sources"`
	PlayEvents     int64        `json:"play_events"`
	FeedbackEvents int64        `json:"feedback_events"`
	GoodEvents     int64        `json:"good_events"`
	BadEvents      int64        `json:"bad_events"`
	TopArtists     []ArtistPlay `json:"top_artists"`
}

// ArtistPlay is one row of the stats top-artist breakdown.
type ArtistPlay struct {
	Artist    string `json:"artist"`
	Goods     int64  `json:"goods"`
	Completes int64  `json:"completes"`
}
