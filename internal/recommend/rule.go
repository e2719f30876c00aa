// Tunehub - Playback Event Analytics and Music Recommendations
// Copyright 2026 Tunehub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunehub/tunehub

package recommend

import (
	"context"
	"fmt"

	"github.com/tunehub/tunehub/internal/database"
	"github.com/tunehub/tunehub/internal/models"
)

// topArtistFetchLimit is how many good-feedback artists feed the reason text.
const topArtistFetchLimit = 12

// RuleRecommender scores tracks from aggregated feedback and play history,
// penalizes recently touched tracks, and diversifies by artist.
type RuleRecommender struct {
	db            *database.DB
	recentWindow  int
	recentPenalty float64
	reranker      Reranker
}

// NewRuleRecommender creates a RuleRecommender. recentWindow is how many
// recently touched tracks receive recentPenalty on their score.
func NewRuleRecommender(db *database.DB, recentWindow int, recentPenalty float64, reranker Reranker) *RuleRecommender {
	return &RuleRecommender{
		db:            db,
		recentWindow:  recentWindow,
		recentPenalty: recentPenalty,
		reranker:      reranker,
	}
}

// Recommend returns up to limit diversified suggestions. When explain is set,
// each carries a human-readable reason.
func (r *RuleRecommender) Recommend(ctx context.Context, limit int, explain bool) ([]models.Recommendation, error) {
	fetchLimit := limit * 3
	if fetchLimit < limit {
		fetchLimit = limit
	}

	ranked, err := r.db.RankedTracks(ctx, fetchLimit)
	if err != nil {
		return nil, err
	}

	recentIDs, err := r.db.RecentTrackIDs(ctx, r.recentWindow)
	if err != nil {
		return nil, err
	}
	recent := make(map[int64]bool, len(recentIDs))
	for _, id := range recentIDs {
		recent[id] = true
	}

	topArtists, err := r.db.TopGoodArtists(ctx, topArtistFetchLimit)
	if err != nil {
		return nil, err
	}
	goodsByArtist := make(map[string]int64, len(topArtists))
	for _, a := range topArtists {
		goodsByArtist[a.Artist] = a.Goods
	}

	candidates := make([]models.Recommendation, 0, len(ranked))
	for _, rt := range ranked {
		score := rt.Score
		if recent[rt.TrackID] {
			score -= r.recentPenalty
		}
		rec := models.Recommendation{
			TrackID:    rt.TrackID,
			Title:      rt.Title,
			Artist:     rt.Artist,
			Score:      score,
			SourceURL:  rt.SourceURL,
			SourceKind: rt.SourceKind,
		}
		if explain {
			rec.Reason = ruleReason(rt, goodsByArtist)
		}
		candidates = append(candidates, rec)
	}

	return r.reranker.Rerank(candidates, limit), nil
}

// ruleReason picks the explanation by priority: named top artist, then the
// combined and single signal cases, then exploration.
func ruleReason(rt models.RankedTrack, goodsByArtist map[string]int64) string {
	artist := "<unknown>"
	if rt.Artist != nil && *rt.Artist != "" {
		artist = *rt.Artist
	}
	if goods, ok := goodsByArtist[artist]; ok && goods > 0 {
		return fmt.Sprintf("you often like %s (%d good ratings)", artist, goods)
	}
	switch {
	case rt.FbScore > 0 && rt.PlayScore > 0:
		return "has prior good feedback and frequent completions"
	case rt.FbScore > 0:
		return "has prior good feedback"
	case rt.PlayScore > 0:
		return "frequently completes similar content"
	case rt.PlayScore < 0:
		return "recent skip signal (exploration, downweighted)"
	default:
		return "exploration item"
	}
}
