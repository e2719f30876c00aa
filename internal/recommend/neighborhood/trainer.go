// Tunehub - Playback Event Analytics and Music Recommendations
// Copyright 2026 Tunehub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunehub/tunehub

package neighborhood

import (
	"context"
	"sort"
	"time"

	"github.com/tunehub/tunehub/internal/database"
	"github.com/tunehub/tunehub/internal/logging"
	"github.com/tunehub/tunehub/internal/models"
)

// Minimum diversity the model needs to say anything useful.
const (
	minContexts = 2
	minTracks   = 3
)

// Trainer builds the neighborhood model from stored interactions and persists
// the result. Training is synchronous; it must not run concurrently with
// itself (the cache replace is a destructive overwrite serialized by the
// atomic rename, but the work would still be wasted).
type Trainer struct {
	db      *database.DB
	store   *Store
	backend Backend
	topn    int
	k       int
}

// NewTrainer creates a Trainer.
func NewTrainer(db *database.DB, store *Store, backend Backend, topn, k int) *Trainer {
	return &Trainer{db: db, store: store, backend: backend, topn: topn, k: k}
}

// Train runs one training pass. Insufficient data and a missing backend are
// reported as a structured failure with no cache write; only storage faults
// are returned as errors.
func (t *Trainer) Train(ctx context.Context) (models.TrainResult, error) {
	if t.backend == nil || !t.backend.Available() {
		return models.TrainResult{
			OK:      false,
			Message: "similarity backend unavailable",
			Notes:   []string{"no neighborhood backend is wired; rule-based recommendations remain available"},
		}, nil
	}

	interactions, err := t.db.ContextInteractions(ctx)
	if err != nil {
		return models.TrainResult{}, err
	}
	if len(interactions) == 0 {
		return models.TrainResult{OK: false, Message: "no interactions available for training"}, nil
	}

	contextKeys, trackIDs := vocabularies(interactions)
	if len(contextKeys) < minContexts || len(trackIDs) < minTracks {
		return models.TrainResult{
			OK:       false,
			Message:  "not enough context/item diversity for training",
			Contexts: len(contextKeys),
			Tracks:   len(trackIDs),
		}, nil
	}

	ctxIdx := indexOf(contextKeys)
	itemIdx := indexOfInt64(trackIDs)

	// Item vectors carry only positive weights; negative signal has already
	// done its job in the signed sums.
	itemVectors := make([]map[int]float64, len(trackIDs))
	for i := range itemVectors {
		itemVectors[i] = make(map[int]float64)
	}
	positive := 0
	for _, in := range interactions {
		if in.Weight <= 0 {
			continue
		}
		itemVectors[itemIdx[in.TrackID]][ctxIdx[in.ContextKey]] = in.Weight
		positive++
	}
	if positive == 0 {
		return models.TrainResult{
			OK:       false,
			Message:  "no positive interactions for training",
			Contexts: len(contextKeys),
			Tracks:   len(trackIDs),
		}, nil
	}

	if err := t.backend.Fit(ctx, itemVectors, len(contextKeys), t.k); err != nil {
		return models.TrainResult{}, err
	}

	profileWeights, err := t.db.ProfileWeights(ctx)
	if err != nil {
		return models.TrainResult{}, err
	}
	profile := make(map[int]float64)
	for _, pw := range profileWeights {
		if pw.Weight <= 0 {
			continue
		}
		if idx, ok := itemIdx[pw.TrackID]; ok {
			profile[idx] = pw.Weight
		}
	}
	if len(profile) == 0 {
		return models.TrainResult{
			OK:       false,
			Message:  "no positive profile weights overlap with trained items",
			Contexts: len(contextKeys),
			Tracks:   len(trackIDs),
		}, nil
	}

	scored := t.backend.Recommend(profile, t.topn, true)
	recs := make([]models.CachedRecommend, 0, len(scored))
	for _, s := range scored {
		recs = append(recs, models.CachedRecommend{TrackID: trackIDs[s.Index], Score: s.Score})
	}

	cache := &models.ModelCache{
		Engine:          "implicit",
		CreatedAt:       time.Now().UTC(),
		Contexts:        len(contextKeys),
		Items:           len(trackIDs),
		Params:          models.ModelParams{TopN: t.topn, K: t.k},
		Recommendations: recs,
	}
	if err := t.store.Save(cache); err != nil {
		return models.TrainResult{}, err
	}

	logging.Info().
		Str("backend", t.backend.Name()).
		Int("contexts", cache.Contexts).
		Int("items", cache.Items).
		Int("recommendations", len(recs)).
		Msg("Neighborhood model trained")

	return models.TrainResult{
		OK:        true,
		Message:   "neighborhood recommendation cache trained",
		Contexts:  cache.Contexts,
		Tracks:    cache.Items,
		Persisted: len(recs),
		TrainedAt: cache.CreatedAt,
	}, nil
}

// vocabularies returns the sorted distinct context keys and track ids.
func vocabularies(interactions []models.ContextInteraction) ([]string, []int64) {
	ctxSet := make(map[string]struct{})
	trackSet := make(map[int64]struct{})
	for _, in := range interactions {
		ctxSet[in.ContextKey] = struct{}{}
		trackSet[in.TrackID] = struct{}{}
	}

	contexts := make([]string, 0, len(ctxSet))
	for k := range ctxSet {
		contexts = append(contexts, k)
	}
	sort.Strings(contexts)

	tracks := make([]int64, 0, len(trackSet))
	for id := range trackSet {
		tracks = append(tracks, id)
	}
	sort.Slice(tracks, func(i, j int) bool { return tracks[i] < tracks[j] })

	return contexts, tracks
}

func indexOf(keys []string) map[string]int {
	out := make(map[string]int, len(keys))
	for i, k := range keys {
		out[k] = i
	}
	return out
}

func indexOfInt64(ids []int64) map[int64]int {
	out := make(map[int64]int, len(ids))
	for i, id := range ids {
		out[id] = i
	}
	return out
}
