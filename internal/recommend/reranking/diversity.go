// FriendRec - Friend Recommendation Scoring Engine
// Copyright 2026 CampusMatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusmatch/friendrec

// Package reranking implements post-processing for recommendation
// diversity.
package reranking

import (
	"github.com/campusmatch/friendrec/internal/recommend"
)

// Diversity reranks a score-sorted candidate list so the top of the
// result is not dominated by a single grouping attribute (department,
// falling back to university).
//
// The algorithm is a greedy marginal-relevance selection: at each step
// it picks the remaining candidate maximizing
//
//	adjusted = composite - factor * occupancy(group)
//
// where occupancy(group) = picked / (picked + 1) over already selected
// members of the candidate's group. The penalty is bounded in [0, 1),
// grows with each same-group pick, and vanishes at factor 0, so a zero
// factor reproduces the input order exactly.
//
// The reranker is deterministic (ties break on candidate ID) and never
// drops a candidate, only reorders.
type Diversity struct{}

// NewDiversity creates a diversity reranker.
func NewDiversity() *Diversity {
	return &Diversity{}
}

// Name returns the reranker identifier.
func (d *Diversity) Name() string {
	return "diversity"
}

// Rerank reorders the items using the given diversity factor.
func (d *Diversity) Rerank(items []recommend.ScoredCandidate, factor float64) []recommend.ScoredCandidate {
	if len(items) <= 1 || factor <= 0 {
		return items
	}
	if factor > 1 {
		factor = 1
	}

	picked := make(map[string]int, len(items))
	remaining := make([]int, len(items))
	for i := range remaining {
		remaining[i] = i
	}

	out := make([]recommend.ScoredCandidate, 0, len(items))
	for len(remaining) > 0 {
		bestPos := 0
		bestAdj := adjustedScore(&items[remaining[0]], factor, picked)

		for pos := 1; pos < len(remaining); pos++ {
			item := &items[remaining[pos]]
			adj := adjustedScore(item, factor, picked)
			if adj > bestAdj || (adj == bestAdj && item.Profile.ID < items[remaining[bestPos]].Profile.ID) {
				bestAdj = adj
				bestPos = pos
			}
		}

		chosen := remaining[bestPos]
		out = append(out, items[chosen])
		picked[recommend.GroupKey(&items[chosen].Profile)]++
		remaining = append(remaining[:bestPos], remaining[bestPos+1:]...)
	}

	return out
}

// adjustedScore applies the occupancy penalty for the item's group.
func adjustedScore(item *recommend.ScoredCandidate, factor float64, picked map[string]int) float64 {
	count := picked[recommend.GroupKey(&item.Profile)]
	occupancy := float64(count) / float64(count+1)
	return item.Composite - factor*occupancy
}

// Ensure Diversity implements the interface.
var _ recommend.Reranker = (*Diversity)(nil)
