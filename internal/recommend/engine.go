// Tunehub - Playback Event Analytics and Music Recommendations
// Copyright 2026 Tunehub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunehub/tunehub

package recommend

import (
	"context"

	"github.com/tunehub/tunehub/internal/logging"
	"github.com/tunehub/tunehub/internal/models"
)

// ModelServer serves recommendations from a trained model cache. An empty
// result means no usable model.
type ModelServer interface {
	Recommend(ctx context.Context, limit int, explain bool) ([]models.Recommendation, error)
}

// Router dispatches recommendation requests by engine.
type Router struct {
	rule  *RuleRecommender
	model ModelServer
}

// NewRouter creates a Router. model may be nil when no trained backend is
// wired; auto then always falls back to rules.
func NewRouter(rule *RuleRecommender, model ModelServer) *Router {
	return &Router{rule: rule, model: model}
}

// Recommend serves one request. Auto and implicit both try the model first;
// only auto falls back to the rule recommender when the model yields nothing.
func (r *Router) Recommend(ctx context.Context, engine Engine, limit int, explain bool) ([]models.Recommendation, error) {
	if engine == EngineAuto || engine == EngineImplicit {
		if r.model != nil {
			items, err := r.model.Recommend(ctx, limit, explain)
			if err != nil {
				return nil, err
			}
			if len(items) > 0 {
				return items, nil
			}
		}
		if engine == EngineImplicit {
			logging.Debug().Msg("Model engine requested but no model results available")
			return nil, nil
		}
	}
	return r.rule.Recommend(ctx, limit, explain)
}
