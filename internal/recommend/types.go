// Tunehub - Playback Event Analytics and Music Recommendations
// Copyright 2026 Tunehub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunehub/tunehub

// Package recommend routes recommendation requests between the rule-based
// scorer and the trained neighborhood model.
package recommend

import (
	"strings"

	"github.com/tunehub/tunehub/internal/models"
)

// Engine selects which recommender serves a request.
type Engine string

const (
	// EngineAuto prefers the neighborhood model and falls back to rules when
	// the model is empty or unavailable.
	EngineAuto Engine = "auto"
	// EngineRule always uses the rule-based scorer.
	EngineRule Engine = "rule"
	// EngineImplicit uses only the neighborhood model; an empty model yields
	// an empty result, never a fallback.
	EngineImplicit Engine = "implicit"
)

// ParseEngine normalizes an engine name, defaulting to auto for anything
// unrecognized.
func ParseEngine(s string) Engine {
	switch Engine(strings.ToLower(strings.TrimSpace(s))) {
	case EngineRule:
		return EngineRule
	case EngineImplicit:
		return EngineImplicit
	default:
		return EngineAuto
	}
}

// Reranker reorders scored candidates before they are returned.
type Reranker interface {
	// Name identifies the reranker for logs.
	Name() string
	// Rerank selects up to limit items from candidates.
	Rerank(candidates []models.Recommendation, limit int) []models.Recommendation
}
