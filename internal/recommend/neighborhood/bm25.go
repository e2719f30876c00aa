// Tunehub - Playback Event Analytics and Music Recommendations
// Copyright 2026 Tunehub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunehub/tunehub

package neighborhood

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// BM25 term-weighting constants. These match the defaults used by common
// implicit-feedback BM25 recommenders.
const (
	bm25K1 = 100.0
	bm25B  = 0.8
)

// neighbor is one precomputed item-item similarity edge.
type neighbor struct {
	index      int
	similarity float64
}

// BM25Backend is an item-item nearest-neighbours model. The raw context-item
// weights are BM25-reweighted (contexts act as the document-frequency axis),
// then item similarity is the dot product of weighted item vectors, keeping
// the top-k neighbours per item.
type BM25Backend struct {
	neighbors map[int][]neighbor
}

// NewBM25Backend creates an untrained BM25Backend.
func NewBM25Backend() *BM25Backend {
	return &BM25Backend{}
}

// Name returns the backend identifier.
func (b *BM25Backend) Name() string {
	return "bm25"
}

// Available reports that the backend can train. The pure-Go implementation
// has no external requirements.
func (b *BM25Backend) Available() bool {
	return true
}

// Fit reweights the matrix with BM25 and precomputes the top-k neighbours of
// every item.
func (b *BM25Backend) Fit(ctx context.Context, itemVectors []map[int]float64, numContexts, k int) error {
	numItems := len(itemVectors)
	if numItems == 0 {
		return fmt.Errorf("empty training matrix")
	}
	if k <= 0 {
		return fmt.Errorf("neighborhood size must be positive, got %d", k)
	}

	// Row sums and average row length over items.
	rowSums := make([]float64, numItems)
	var total float64
	for i, vec := range itemVectors {
		for _, v := range vec {
			rowSums[i] += v
		}
		total += rowSums[i]
	}
	averageLength := total / float64(numItems)

	// Inverse document frequency per context column: how many items a
	// context touched.
	colCounts := make(map[int]int)
	for _, vec := range itemVectors {
		for c := range vec {
			colCounts[c]++
		}
	}
	idf := make(map[int]float64, len(colCounts))
	for c, count := range colCounts {
		idf[c] = math.Log(float64(numItems) / (1.0 + float64(count)))
	}

	// BM25-weighted item vectors.
	weighted := make([]map[int]float64, numItems)
	for i, vec := range itemVectors {
		lengthNorm := (1.0 - bm25B) + bm25B*rowSums[i]/averageLength
		w := make(map[int]float64, len(vec))
		for c, v := range vec {
			w[c] = v * (bm25K1 + 1.0) / (bm25K1*lengthNorm + v) * idf[c]
		}
		weighted[i] = w
	}

	// Pairwise dot products, top-k per item.
	b.neighbors = make(map[int][]neighbor, numItems)
	for i := 0; i < numItems; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		var edges []neighbor
		for j := 0; j < numItems; j++ {
			if j == i {
				continue
			}
			sim := dot(weighted[i], weighted[j])
			if sim > 0 {
				edges = append(edges, neighbor{index: j, similarity: sim})
			}
		}
		sort.Slice(edges, func(a, c int) bool {
			if edges[a].similarity != edges[c].similarity {
				return edges[a].similarity > edges[c].similarity
			}
			return edges[a].index < edges[c].index
		})
		if len(edges) > k {
			edges = edges[:k]
		}
		b.neighbors[i] = edges
	}

	return nil
}

// Recommend scores every item reachable from the profile's neighbours.
func (b *BM25Backend) Recommend(profile map[int]float64, topn int, filterProfile bool) []Scored {
	if len(b.neighbors) == 0 || len(profile) == 0 || topn <= 0 {
		return nil
	}

	scores := make(map[int]float64)
	for i, w := range profile {
		for _, n := range b.neighbors[i] {
			scores[n.index] += w * n.similarity
		}
	}

	out := make([]Scored, 0, len(scores))
	for idx, score := range scores {
		if filterProfile {
			if _, liked := profile[idx]; liked {
				continue
			}
		}
		out = append(out, Scored{Index: idx, Score: score})
	}

	sort.Slice(out, func(a, c int) bool {
		if out[a].Score != out[c].Score {
			return out[a].Score > out[c].Score
		}
		return out[a].Index < out[c].Index
	})
	if len(out) > topn {
		out = out[:topn]
	}
	return out
}

func dot(a, b map[int]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var sum float64
	for c, v := range a {
		if w, ok := b[c]; ok {
			sum += v * w
		}
	}
	return sum
}
