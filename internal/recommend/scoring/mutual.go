// FriendRec - Friend Recommendation Scoring Engine
// Copyright 2026 CampusMatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusmatch/friendrec

package scoring

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/campusmatch/friendrec/internal/recommend"
)

// ConnectionSource supplies connection sets for mutual-connection
// scoring. The repository implements this.
type ConnectionSource interface {
	GetExistingConnections(ctx context.Context, userID string) ([]string, error)
}

// Mutual scores shared-connection overlap between two users. The score
// follows a diminishing-returns curve
//
//	score = 1 - exp(-count / saturation)
//
// which is monotonic non-decreasing in the mutual count, saturates
// toward 1 as the count grows, and is exactly 0 at count 0.
type Mutual struct {
	source     ConnectionSource
	saturation float64

	// maxListed bounds the connection IDs echoed back in the result.
	maxListed int
}

// MutualConfig contains parameters for the mutual-connection scorer.
type MutualConfig struct {
	// Saturation is the mutual count at which the score reaches
	// 1-1/e (~0.63). Default 5.
	Saturation float64

	// MaxListed bounds the shared-connection IDs included in results.
	// Default 25.
	MaxListed int
}

// NewMutual creates a mutual-connection scorer.
func NewMutual(source ConnectionSource, cfg MutualConfig) *Mutual {
	if cfg.Saturation <= 0 {
		cfg.Saturation = 5
	}
	if cfg.MaxListed <= 0 {
		cfg.MaxListed = 25
	}
	return &Mutual{
		source:     source,
		saturation: cfg.Saturation,
		maxListed:  cfg.MaxListed,
	}
}

// Score computes the mutual-connection result for a user pair. An empty
// connection graph on either side yields a zero result, not an error.
func (m *Mutual) Score(ctx context.Context, requesterID, candidateID string) (*recommend.MutualConnectionResult, error) {
	reqConns, err := m.source.GetExistingConnections(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("get connections for %s: %w", requesterID, err)
	}
	candConns, err := m.source.GetExistingConnections(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("get connections for %s: %w", candidateID, err)
	}

	shared := intersect(reqConns, candConns)
	count := len(shared)

	listed := shared
	if len(listed) > m.maxListed {
		listed = listed[:m.maxListed]
	}

	return &recommend.MutualConnectionResult{
		Score:         m.curve(count),
		Count:         count,
		ConnectionIDs: listed,
		Analysis: map[string]string{
			"strength": strengthLabel(count),
		},
	}, nil
}

// curve maps a mutual count to [0, 1).
func (m *Mutual) curve(count int) float64 {
	if count <= 0 {
		return 0
	}
	return 1 - math.Exp(-float64(count)/m.saturation)
}

// intersect returns the sorted intersection of two ID slices.
func intersect(a, b []string) []string {
	if len(a) > len(b) {
		a, b = b, a
	}
	set := make(map[string]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}

	shared := make([]string, 0, len(a))
	seen := make(map[string]struct{}, len(a))
	for _, id := range b {
		if _, ok := set[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		shared = append(shared, id)
	}
	sort.Strings(shared)
	return shared
}

// strengthLabel buckets the mutual count for diagnostic metadata.
func strengthLabel(count int) string {
	switch {
	case count >= 10:
		return "strong"
	case count >= 3:
		return "moderate"
	case count >= 1:
		return "weak"
	default:
		return "none"
	}
}

// Ensure Mutual implements the interface.
var _ recommend.MutualConnectionScorer = (*Mutual)(nil)
