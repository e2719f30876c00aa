// Tunehub - Playback Event Analytics and Music Recommendations
// Copyright 2026 Tunehub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunehub/tunehub

package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunehub/tunehub/internal/config"
	"github.com/tunehub/tunehub/internal/database"
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "1GB"})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})
	return db
}

func writeLog(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.jsonl")
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func appendLog(t *testing.T, path string, lines ...string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()
	for _, l := range lines {
		_, err := f.WriteString(l + "\n")
		require.NoError(t, err)
	}
}

func TestRunMissingFile(t *testing.T) {
	db := setupTestDB(t)
	r := NewReader(db, filepath.Join(t.TempDir(), "missing.jsonl"), "events")

	stats, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Read)
	assert.Equal(t, 0, stats.New)
}

func TestRunScenario(t *testing.T) {
	db := setupTestDB(t)
	path := writeLog(t,
		`{"event":"play_start","path":"u1","media_title":"A","time":"2026-08-01T10:00:00Z"}`,
		`{"event":"play_end","path":"u1","media_title":"A","duration":100,"playback_time":95,"reason":"eof","time":"2026-08-01T10:03:00Z"}`,
		`{"event":"good","path":"u1","media_title":"A","time":"2026-08-01T10:04:00Z"}`,
	)
	r := NewReader(db, path, "events")
	ctx := context.Background()

	stats, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Read)
	assert.Equal(t, 3, stats.New)
	assert.Equal(t, 0, stats.Skipped)

	summary, err := db.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Tracks, "one canonical track")
	assert.Equal(t, int64(2), summary.PlayEvents)
	assert.Equal(t, int64(1), summary.FeedbackEvents)
	assert.Equal(t, int64(1), summary.GoodEvents)

	ranked, err := db.RankedTracks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, "A", ranked[0].Title)
	assert.InDelta(t, 7.5, ranked[0].Score, 1e-9, "6.0 feedback + 1.5 completed play")
}

func TestRunIdempotentReingest(t *testing.T) {
	db := setupTestDB(t)
	path := writeLog(t,
		`{"event":"play_end","path":"u1","media_title":"A","reason":"eof","time":"2026-08-01T10:00:00Z"}`,
		`{"event":"good","path":"u1","media_title":"A","time":"2026-08-01T10:01:00Z"}`,
	)
	ctx := context.Background()

	first, err := NewReader(db, path, "events").Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, first.New)

	// Second pass from the committed offset reads nothing.
	second, err := NewReader(db, path, "events").Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Read)
	assert.Equal(t, first.Offset, second.Offset)

	// Re-reading from offset 0 replays the lines; the hash ledger absorbs them.
	require.NoError(t, db.WithTx(ctx, func(tx *database.Tx) error {
		return tx.SetIngestOffset("events", 0)
	}))
	third, err := NewReader(db, path, "events").Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, third.Read)
	assert.Equal(t, 0, third.New, "replayed lines are duplicates")
	assert.Equal(t, first.Offset, third.Offset)

	summary, err := db.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.PlayEvents)
	assert.Equal(t, int64(1), summary.FeedbackEvents)
}

func TestRunSkipsPoisonAndBlankLines(t *testing.T) {
	db := setupTestDB(t)
	path := writeLog(t,
		`{not json`,
		``,
		`{"event":"good","media_title":"B","time":"2026-08-01T10:00:00Z"}`,
	)
	ctx := context.Background()

	stats, err := NewReader(db, path, "events").Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Read)
	assert.Equal(t, 1, stats.New)
	assert.Equal(t, 1, stats.Skipped, "only the unparseable line counts as skipped")

	// The offset advanced past the poison line; nothing is re-read.
	again, err := NewReader(db, path, "events").Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Read)
}

func TestRunResumesFromOffset(t *testing.T) {
	db := setupTestDB(t)
	path := writeLog(t, `{"event":"good","media_title":"A","time":"2026-08-01T10:00:00Z"}`)
	ctx := context.Background()

	first, err := NewReader(db, path, "events").Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.New)

	appendLog(t, path, `{"event":"good","media_title":"B","time":"2026-08-01T11:00:00Z"}`)

	second, err := NewReader(db, path, "events").Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Read, "only the appended line is read")
	assert.Equal(t, 1, second.New)
	assert.Greater(t, second.Offset, first.Offset)
}

func TestCompletionClassification(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		completed bool
	}{
		{
			"eof reason always completes",
			`{"event":"play_end","media_title":"T1","reason":"eof","playback_time":1,"duration":100}`,
			true,
		},
		{
			"ratio at least 0.8 completes despite skip reason",
			`{"event":"play_end","media_title":"T2","reason":"skip","playback_time":90,"duration":100}`,
			true,
		},
		{
			"low ratio without eof does not complete",
			`{"event":"play_end","media_title":"T3","reason":"skip","playback_time":10,"duration":100}`,
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)
			ctx := context.Background()
			path := writeLog(t, tt.line)

			stats, err := NewReader(db, path, "events").Run(ctx)
			require.NoError(t, err)
			require.Equal(t, 1, stats.New)

			ranked, err := db.RankedTracks(ctx, 1)
			require.NoError(t, err)
			require.Len(t, ranked, 1)
			if tt.completed {
				assert.InDelta(t, 1.5, ranked[0].PlayScore, 1e-9)
			} else {
				assert.InDelta(t, 0.0, ranked[0].PlayScore, 1e-9)
			}
		})
	}
}

func TestGuessSourceKind(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"https://music.youtube.com/watch?v=x", "ytmusic"},
		{"https://www.youtube.com/watch?v=x", "youtube"},
		{"https://youtu.be/x", "youtube"},
		{"https://example.com/stream.mp3", "url"},
		{"/home/user/music/track.flac", "local"},
	}
	for _, tt := range tests {
		got := GuessSourceKind(&tt.path)
		require.NotNil(t, got, tt.path)
		assert.Equal(t, tt.want, *got, tt.path)
	}

	assert.Nil(t, GuessSourceKind(nil))
	empty := ""
	assert.Nil(t, GuessSourceKind(&empty))
}

func TestPayloadTitleAndArtistPriority(t *testing.T) {
	p := Payload{
		"title": "Plain",
		"metadata": map[string]any{
			"Title":        "Meta",
			"album_artist": "AA",
			"uploader":     "UP",
		},
	}
	require.NotNil(t, p.Title())
	assert.Equal(t, "Plain", *p.Title(), "media_title and title outrank metadata")
	require.NotNil(t, p.Artist())
	assert.Equal(t, "AA", *p.Artist(), "album_artist outranks uploader")

	p2 := Payload{
		"media_title": "Top",
		"title":       "Lower",
	}
	assert.Equal(t, "Top", *p2.Title())

	p3 := Payload{"metadata": map[string]any{"TITLE": "Shouty"}}
	assert.Equal(t, "Shouty", *p3.Title())

	p4 := Payload{}
	assert.Nil(t, p4.Title())
	assert.Nil(t, p4.Artist())
}

func TestNextEventDefaultsReason(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	path := writeLog(t, `{"event":"next","media_title":"N","time":"2026-08-01T10:00:00Z"}`)

	stats, err := NewReader(db, path, "events").Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.New)

	ranked, err := db.RankedTracks(ctx, 1)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.InDelta(t, -2.0, ranked[0].PlayScore, 1e-9, "next penalizes the track")
}

func TestUnknownEventOnlyUpsertsTrack(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	path := writeLog(t, `{"event":"volume_change","media_title":"Q","time":"2026-08-01T10:00:00Z"}`)

	stats, err := NewReader(db, path, "events").Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.New)

	summary, err := db.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Tracks)
	assert.Equal(t, int64(0), summary.PlayEvents)
	assert.Equal(t, int64(0), summary.FeedbackEvents)
}
