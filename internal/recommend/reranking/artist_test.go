// Tunehub - Playback Event Analytics and Music Recommendations
// Copyright 2026 Tunehub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunehub/tunehub

package reranking

import (
	"testing"

	"github.com/tunehub/tunehub/internal/models"
)

func rec(id int64, artist string, score float64) models.Recommendation {
	r := models.Recommendation{TrackID: id, Score: score}
	if artist != "" {
		r.Artist = &artist
	}
	return r
}

func ids(items []models.Recommendation) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = it.TrackID
	}
	return out
}

func TestArtistSpreadEmptyInput(t *testing.T) {
	a := NewArtistSpread(2.5)
	if got := a.Rerank(nil, 5); got != nil {
		t.Errorf("Rerank(nil) = %v, want nil", got)
	}
	if got := a.Rerank([]models.Recommendation{rec(1, "x", 1)}, 0); got != nil {
		t.Errorf("Rerank(limit=0) = %v, want nil", got)
	}
}

func TestArtistSpreadPenalizesRepeats(t *testing.T) {
	// Two strong tracks by the same artist and a slightly weaker one by
	// another; the weaker one must come second because the repeat carries a
	// 2.5 penalty.
	candidates := []models.Recommendation{
		rec(1, "Ann", 10.0),
		rec(2, "Ann", 9.0),
		rec(3, "Bob", 8.0),
	}

	got := NewArtistSpread(2.5).Rerank(candidates, 3)
	want := []int64{1, 3, 2}
	for i, id := range want {
		if got[i].TrackID != id {
			t.Fatalf("Rerank order = %v, want %v", ids(got), want)
		}
	}
}

func TestArtistSpreadKeepsOrderOutsideMargin(t *testing.T) {
	// The repeat still wins when the alternative is weaker than the penalty
	// margin.
	candidates := []models.Recommendation{
		rec(1, "Ann", 10.0),
		rec(2, "Ann", 9.0),
		rec(3, "Bob", 5.0),
	}

	got := NewArtistSpread(2.5).Rerank(candidates, 3)
	want := []int64{1, 2, 3}
	for i, id := range want {
		if got[i].TrackID != id {
			t.Fatalf("Rerank order = %v, want %v", ids(got), want)
		}
	}
}

func TestArtistSpreadCaseFoldsArtists(t *testing.T) {
	candidates := []models.Recommendation{
		rec(1, "ANN", 10.0),
		rec(2, "ann", 9.0),
		rec(3, "Bob", 8.0),
	}

	got := NewArtistSpread(2.5).Rerank(candidates, 2)
	if got[1].TrackID != 3 {
		t.Errorf("second pick = %d, want 3 (case variants count as one artist)", got[1].TrackID)
	}
}

func TestArtistSpreadUnknownArtistsShareBucket(t *testing.T) {
	candidates := []models.Recommendation{
		rec(1, "", 10.0),
		rec(2, "", 9.0),
		rec(3, "Bob", 8.0),
	}

	got := NewArtistSpread(2.5).Rerank(candidates, 3)
	want := []int64{1, 3, 2}
	for i, id := range want {
		if got[i].TrackID != id {
			t.Fatalf("Rerank order = %v, want %v", ids(got), want)
		}
	}
}

func TestArtistSpreadRespectsLimit(t *testing.T) {
	candidates := []models.Recommendation{
		rec(1, "a", 3), rec(2, "b", 2), rec(3, "c", 1),
	}
	got := NewArtistSpread(2.5).Rerank(candidates, 2)
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}

func TestArtistSpreadZeroPenaltyIsSortOrder(t *testing.T) {
	candidates := []models.Recommendation{
		rec(1, "Ann", 5.0),
		rec(2, "Ann", 4.0),
		rec(3, "Ann", 3.0),
	}
	got := NewArtistSpread(0).Rerank(candidates, 3)
	want := []int64{1, 2, 3}
	for i, id := range want {
		if got[i].TrackID != id {
			t.Fatalf("Rerank order = %v, want %v", ids(got), want)
		}
	}
}
