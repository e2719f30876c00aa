// Tunehub - Playback Event Analytics and Music Recommendations
// Copyright 2026 Tunehub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunehub/tunehub

package neighborhood

import (
	"context"
	"strconv"

	"github.com/tunehub/tunehub/internal/database"
	"github.com/tunehub/tunehub/internal/models"
)

// Reranker reorders scored candidates before they are returned.
type Reranker interface {
	Name() string
	Rerank(candidates []models.Recommendation, limit int) []models.Recommendation
}

// Server answers recommendation requests from the persisted model cache.
type Server struct {
	db       *database.DB
	store    *Store
	reranker Reranker
}

// NewServer creates a Server.
func NewServer(db *database.DB, store *Store, reranker Reranker) *Server {
	return &Server{db: db, store: store, reranker: reranker}
}

// Recommend resolves the cached track ids through the entity store, drops
// anything no longer resolvable, and returns up to limit diversified results
// in the cache's score order. A missing or empty cache yields an empty result
// without error.
func (s *Server) Recommend(ctx context.Context, limit int, explain bool) ([]models.Recommendation, error) {
	cache, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	if cache == nil || len(cache.Recommendations) == 0 || limit <= 0 {
		return nil, nil
	}

	fetchLimit := limit * 4
	if fetchLimit < limit {
		fetchLimit = limit
	}
	ids := make([]int64, 0, fetchLimit)
	for _, rec := range cache.Recommendations {
		ids = append(ids, rec.TrackID)
		if len(ids) >= fetchLimit {
			break
		}
	}

	trackMap, err := s.db.TrackSourceMap(ctx, ids)
	if err != nil {
		return nil, err
	}

	candidateLimit := limit * 3
	if candidateLimit < limit {
		candidateLimit = limit
	}
	candidates := make([]models.Recommendation, 0, candidateLimit)
	for _, rec := range cache.Recommendations {
		info, ok := trackMap[rec.TrackID]
		if !ok {
			continue
		}
		title := info.Title
		if title == "" {
			title = strconv.FormatInt(rec.TrackID, 10)
		}
		item := models.Recommendation{
			TrackID:    rec.TrackID,
			Title:      title,
			Artist:     info.Artist,
			Score:      rec.Score,
			SourceURL:  info.SourceURL,
			SourceKind: info.SourceKind,
		}
		if explain {
			item.Reason = "listened together across sessions"
		}
		candidates = append(candidates, item)
		if len(candidates) >= candidateLimit {
			break
		}
	}

	return s.reranker.Rerank(candidates, limit), nil
}
