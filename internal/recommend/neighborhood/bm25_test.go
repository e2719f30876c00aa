// Tunehub - Playback Event Analytics and Music Recommendations
// Copyright 2026 Tunehub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunehub/tunehub

package neighborhood

import (
	"context"
	"testing"
)

// fitMatrix builds a 5-item matrix with three disjoint co-listening pairs:
// items 0 and 1 share context 0, items 0 and 2 share context 1, items 3 and
// 4 share context 2. Every context touches exactly two items, so the BM25
// idf stays positive.
func fitMatrix() []map[int]float64 {
	return []map[int]float64{
		{0: 3.0, 1: 3.0},
		{0: 3.0},
		{1: 1.0},
		{2: 3.0},
		{2: 3.0},
	}
}

func fittedBackend(t *testing.T) *BM25Backend {
	t.Helper()
	b := NewBM25Backend()
	if err := b.Fit(context.Background(), fitMatrix(), 3, 10); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	return b
}

func TestBM25FitRejectsEmptyMatrix(t *testing.T) {
	b := NewBM25Backend()
	if err := b.Fit(context.Background(), nil, 0, 10); err == nil {
		t.Fatal("expected error for empty matrix")
	}
}

func TestBM25FitRejectsNonPositiveK(t *testing.T) {
	b := NewBM25Backend()
	if err := b.Fit(context.Background(), fitMatrix(), 3, 0); err == nil {
		t.Fatal("expected error for k=0")
	}
}

func TestBM25RecommendBeforeFit(t *testing.T) {
	b := NewBM25Backend()
	if got := b.Recommend(map[int]float64{0: 1.0}, 5, true); got != nil {
		t.Fatalf("expected nil before Fit, got %v", got)
	}
}

func TestBM25RecommendNeighborsOfProfile(t *testing.T) {
	b := fittedBackend(t)

	// Item 0 co-occurs with items 1 and 2 and with nothing else.
	got := b.Recommend(map[int]float64{0: 1.0}, 5, true)
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %v", got)
	}
	seen := map[int]bool{}
	for _, s := range got {
		if s.Score <= 0 {
			t.Errorf("item %d has non-positive score %f", s.Index, s.Score)
		}
		seen[s.Index] = true
	}
	if !seen[1] || !seen[2] {
		t.Fatalf("expected items 1 and 2, got %v", got)
	}
}

func TestBM25RecommendFiltersProfile(t *testing.T) {
	b := fittedBackend(t)

	kept := b.Recommend(map[int]float64{0: 1.0, 1: 1.0}, 5, false)
	filtered := b.Recommend(map[int]float64{0: 1.0, 1: 1.0}, 5, true)

	for _, s := range filtered {
		if s.Index == 0 || s.Index == 1 {
			t.Fatalf("profile item %d leaked through filter", s.Index)
		}
	}
	if len(filtered) >= len(kept) {
		t.Fatalf("filter dropped nothing: kept=%d filtered=%d", len(kept), len(filtered))
	}
}

func TestBM25RecommendTiesOrderByIndex(t *testing.T) {
	b := NewBM25Backend()
	// Items 1 and 2 have identical vectors, so their similarity to item 0
	// ties exactly.
	matrix := []map[int]float64{
		{0: 2.0, 1: 2.0},
		{0: 2.0},
		{0: 2.0},
		{2: 1.0},
		{2: 1.0},
	}
	if err := b.Fit(context.Background(), matrix, 3, 10); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	got := b.Recommend(map[int]float64{0: 1.0}, 5, true)
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %v", got)
	}
	if got[0].Index != 1 || got[1].Index != 2 {
		t.Fatalf("tie must order by index: got %v", got)
	}
	if got[0].Score != got[1].Score {
		t.Fatalf("expected tied scores, got %f and %f", got[0].Score, got[1].Score)
	}
}

func TestBM25RecommendRespectsTopN(t *testing.T) {
	b := fittedBackend(t)
	got := b.Recommend(map[int]float64{0: 1.0}, 1, true)
	if len(got) != 1 {
		t.Fatalf("expected 1 result, got %v", got)
	}
}

func TestBM25RecommendEmptyProfile(t *testing.T) {
	b := fittedBackend(t)
	if got := b.Recommend(nil, 5, true); got != nil {
		t.Fatalf("expected nil for empty profile, got %v", got)
	}
}

func TestBM25FitHonorsK(t *testing.T) {
	b := NewBM25Backend()
	// Item 0 co-occurs with items 1, 2 and 3; k=1 keeps only the closest.
	matrix := []map[int]float64{
		{0: 3.0, 1: 3.0, 2: 1.0},
		{0: 3.0},
		{1: 3.0},
		{2: 1.0},
		{3: 1.0},
	}
	if err := b.Fit(context.Background(), matrix, 4, 1); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if len(b.neighbors[0]) != 1 {
		t.Fatalf("expected 1 neighbor for item 0, got %d", len(b.neighbors[0]))
	}
}
