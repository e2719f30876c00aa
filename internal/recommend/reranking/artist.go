// Tunehub - Playback Event Analytics and Music Recommendations
// Copyright 2026 Tunehub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunehub/tunehub

// Package reranking implements post-processing for recommendation diversity.
package reranking

import (
	"strings"

	"github.com/tunehub/tunehub/internal/models"
)

// ArtistSpread implements greedy artist-penalized selection.
// It repeatedly picks, from the remaining candidates, the one maximizing
//
//	score(i) - penalty * picked(artist(i))
//
// where picked(a) counts how many results already belong to artist a
// (case-folded, "<unknown>" when absent). The penalty therefore grows with
// every repeat, which a single static sort cannot express.
type ArtistSpread struct {
	penalty float64
}

// NewArtistSpread creates an ArtistSpread reranker with the given per-repeat
// penalty. Negative penalties are clamped to zero.
func NewArtistSpread(penalty float64) *ArtistSpread {
	if penalty < 0 {
		penalty = 0
	}
	return &ArtistSpread{penalty: penalty}
}

// Name returns the reranker identifier.
func (a *ArtistSpread) Name() string {
	return "artist_spread"
}

// Rerank selects up to limit items, penalizing repeated artists.
func (a *ArtistSpread) Rerank(candidates []models.Recommendation, limit int) []models.Recommendation {
	if len(candidates) == 0 || limit <= 0 {
		return nil
	}

	remaining := make([]models.Recommendation, len(candidates))
	copy(remaining, candidates)

	result := make([]models.Recommendation, 0, limit)
	artistCounts := make(map[string]int)

	for len(remaining) > 0 && len(result) < limit {
		bestIdx := 0
		bestVal := remaining[0].Score - a.penalty*float64(artistCounts[artistKey(remaining[0].Artist)])
		for i := 1; i < len(remaining); i++ {
			val := remaining[i].Score - a.penalty*float64(artistCounts[artistKey(remaining[i].Artist)])
			if val > bestVal {
				bestVal = val
				bestIdx = i
			}
		}

		picked := remaining[bestIdx]
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
		result = append(result, picked)
		artistCounts[artistKey(picked.Artist)]++
	}

	return result
}

// artistKey folds the artist name for counting; missing artists share one
// bucket.
func artistKey(artist *string) string {
	if artist == nil || *artist == "" {
		return "<unknown>"
	}
	return strings.ToLower(*artist)
}
