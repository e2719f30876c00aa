// Tunehub - Playback Event Analytics and Music Recommendations
// Copyright 2026 Tunehub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunehub/tunehub

package neighborhood

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunehub/tunehub/internal/models"
)

func sampleCache() *models.ModelCache {
	return &models.ModelCache{
		Engine:    "implicit",
		CreatedAt: ts("2026-08-01T10:00:00Z"),
		Contexts:  3,
		Items:     5,
		Params:    models.ModelParams{TopN: 200, K: 64},
		Recommendations: []models.CachedRecommend{
			{TrackID: 7, Score: 2.5},
			{TrackID: 3, Score: 1.25},
		},
	}
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	require.NoError(t, store.Save(sampleCache()))

	got, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "implicit", got.Engine)
	assert.Equal(t, 3, got.Contexts)
	assert.Equal(t, 5, got.Items)
	assert.Equal(t, models.ModelParams{TopN: 200, K: 64}, got.Params)
	require.Len(t, got.Recommendations, 2)
	assert.Equal(t, int64(7), got.Recommendations[0].TrackID)
	assert.Equal(t, 2.5, got.Recommendations[0].Score)
}

func TestStoreLoadMissing(t *testing.T) {
	store := NewStore(t.TempDir())

	got, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStoreLoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	require.NoError(t, os.WriteFile(cachePath(dir), []byte("{not json"), 0o600))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStoreSaveCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "model")
	store := NewStore(dir)

	require.NoError(t, store.Save(sampleCache()))
	assert.FileExists(t, cachePath(dir))
}

func TestStoreSaveWritesMetaSidecar(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	require.NoError(t, store.Save(sampleCache()))

	raw, err := os.ReadFile(filepath.Join(dir, "model_meta.json"))
	require.NoError(t, err)
	var meta map[string]map[string]any
	require.NoError(t, json.Unmarshal(raw, &meta))
	entry, ok := meta["implicit"]
	require.True(t, ok, "meta must be keyed by engine")
	assert.EqualValues(t, 3, entry["contexts"])
	assert.EqualValues(t, 5, entry["items"])
	assert.EqualValues(t, 2, entry["recommendations"])
}

func TestStoreSavePreservesOtherMetaEntries(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "model_meta.json"),
		[]byte(`{"other":{"items":1}}`), 0o600))

	require.NoError(t, store.Save(sampleCache()))

	raw, err := os.ReadFile(filepath.Join(dir, "model_meta.json"))
	require.NoError(t, err)
	var meta map[string]any
	require.NoError(t, json.Unmarshal(raw, &meta))
	assert.Contains(t, meta, "other")
	assert.Contains(t, meta, "implicit")
}

func TestStoreSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	require.NoError(t, store.Save(sampleCache()))

	leftovers, err := filepath.Glob(filepath.Join(dir, "*.tmp-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestStoreSaveToleratesCorruptMeta(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "model_meta.json"), []byte("garbage"), 0o600))

	require.NoError(t, store.Save(sampleCache()))

	raw, err := os.ReadFile(filepath.Join(dir, "model_meta.json"))
	require.NoError(t, err)
	var meta map[string]any
	require.NoError(t, json.Unmarshal(raw, &meta))
	assert.Contains(t, meta, "implicit")
}

func TestStoreRoundTripKeepsCreatedAt(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	cache := sampleCache()
	require.NoError(t, store.Save(cache))

	got, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.CreatedAt.Equal(time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)))
}
