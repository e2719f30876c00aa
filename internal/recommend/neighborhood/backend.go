// Tunehub - Playback Event Analytics and Music Recommendations
// Copyright 2026 Tunehub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunehub/tunehub

// Package neighborhood trains and serves the item-item similarity model built
// from cross-session listening co-occurrence.
package neighborhood

import "context"

// Scored is one (item index, score) model output.
type Scored struct {
	Index int
	Score float64
}

// Backend fits an item-item similarity model over a sparse context-by-item
// matrix and recommends against a single synthetic profile row. It is a
// capability: when no backend is available, training degrades to a reported
// failure result instead of a crash.
type Backend interface {
	// Name identifies the backend for cache metadata and logs.
	Name() string
	// Available reports whether the backend can train.
	Available() bool
	// Fit trains on item vectors: itemVectors[i] maps context index to the
	// positive interaction weight of item i in that context.
	Fit(ctx context.Context, itemVectors []map[int]float64, numContexts, k int) error
	// Recommend scores items against a profile row (item index to positive
	// weight), optionally filtering items already present in the profile.
	// Results are ordered by score descending, index ascending on ties.
	Recommend(profile map[int]float64, topn int, filterProfile bool) []Scored
}
