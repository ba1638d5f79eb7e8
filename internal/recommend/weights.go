// FriendRec - Friend Recommendation Scoring Engine
// Copyright 2026 CampusMatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusmatch/friendrec

package recommend

import (
	"fmt"
	"sync/atomic"
)

// Weights defines the relative contribution of each scoring factor.
// Weights are non-negative and need not sum to 1; the composite score is
// a weighted sum, not a probability.
type Weights struct {
	University        float64 `json:"university"`
	MutualConnections float64 `json:"mutual_connections"`
	Interests         float64 `json:"interests"`
	Engagement        float64 `json:"engagement"`
	Geography         float64 `json:"geography"`
}

// DefaultWeights returns the default factor weights.
func DefaultWeights() Weights {
	return Weights{
		University:        0.40,
		MutualConnections: 0.25,
		Interests:         0.20,
		Engagement:        0.10,
		Geography:         0.05,
	}
}

// Validate rejects negative weights.
func (w Weights) Validate() error {
	for name, v := range w.ToMap() {
		if v < 0 {
			return fmt.Errorf("weight %s must be non-negative, got %f", name, v)
		}
	}
	return nil
}

// ToMap returns the weights as a string-keyed map.
func (w Weights) ToMap() map[string]float64 {
	return map[string]float64{
		"university":         w.University,
		"mutual_connections": w.MutualConnections,
		"interests":          w.Interests,
		"engagement":         w.Engagement,
		"geography":          w.Geography,
	}
}

// Composite computes the weighted sum of the factor scores.
func (w Weights) Composite(c ScoreComponents) float64 {
	return w.University*c.University +
		w.MutualConnections*c.MutualConnections +
		w.Interests*c.Interests +
		w.Engagement*c.Engagement +
		w.Geography*c.Geography
}

// WeightsPatch is a partial weights update. Nil fields leave the current
// value untouched.
type WeightsPatch struct {
	University        *float64 `json:"university,omitempty"`
	MutualConnections *float64 `json:"mutual_connections,omitempty"`
	Interests         *float64 `json:"interests,omitempty"`
	Engagement        *float64 `json:"engagement,omitempty"`
	Geography         *float64 `json:"geography,omitempty"`
}

// apply returns a copy of w with the patch's non-nil fields replaced.
func (p *WeightsPatch) apply(w Weights) Weights {
	if p.University != nil {
		w.University = *p.University
	}
	if p.MutualConnections != nil {
		w.MutualConnections = *p.MutualConnections
	}
	if p.Interests != nil {
		w.Interests = *p.Interests
	}
	if p.Engagement != nil {
		w.Engagement = *p.Engagement
	}
	if p.Geography != nil {
		w.Geography = *p.Geography
	}
	return w
}

// weightsSnapshot is an immutable weights value with a version. The
// engine swaps a pointer to it atomically so a request either sees the
// old or the new set in full, never a partial mix.
type weightsSnapshot struct {
	Weights Weights
	Version int64
}

// weightsHolder owns the current snapshot.
type weightsHolder struct {
	current atomic.Pointer[weightsSnapshot]
}

func newWeightsHolder(w Weights) *weightsHolder {
	h := &weightsHolder{}
	h.current.Store(&weightsSnapshot{Weights: w, Version: 1})
	return h
}

// Load returns the current snapshot.
func (h *weightsHolder) Load() *weightsSnapshot {
	return h.current.Load()
}

// Update applies a patch, validates the result, and swaps in a new
// snapshot with an incremented version. Concurrent updates serialize via
// compare-and-swap retry.
func (h *weightsHolder) Update(p *WeightsPatch) (Weights, int64, error) {
	for {
		old := h.current.Load()
		next := p.apply(old.Weights)
		if err := next.Validate(); err != nil {
			return Weights{}, 0, err
		}
		snap := &weightsSnapshot{Weights: next, Version: old.Version + 1}
		if h.current.CompareAndSwap(old, snap) {
			return snap.Weights, snap.Version, nil
		}
	}
}
