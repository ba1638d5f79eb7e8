// FriendRec - Friend Recommendation Scoring Engine
// Copyright 2026 CampusMatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusmatch/friendrec

package scoring

import (
	"math"
	"reflect"
	"testing"

	"github.com/campusmatch/friendrec/internal/recommend"
)

func interests(names ...string) []recommend.WeightedInterest {
	out := make([]recommend.WeightedInterest, len(names))
	for i, n := range names {
		out[i] = recommend.WeightedInterest{Name: n, Weight: 1}
	}
	return out
}

func TestBuildProfile(t *testing.T) {
	t.Parallel()

	s := NewInterest(InterestConfig{})

	p := &recommend.Profile{
		ID: "alice",
		Interests: []recommend.WeightedInterest{
			{Name: "climbing", Category: "sports", Weight: 0.9},
			{Name: "running", Category: "sports", Weight: 0.4},
			{Name: "jazz", Category: "music", Weight: 0.7},
			{Name: "uncategorized", Weight: 0.2},
		},
	}
	agg := &recommend.BehavioralAggregates{
		Counts:   map[string]recommend.BehaviorCounts{"climbing": {Posts: 3}},
		Recent:   []string{"climbing"},
		Trending: []string{"jazz"},
	}

	ip := s.BuildProfile(p, agg)
	if ip.UserID != "alice" {
		t.Errorf("UserID = %q", ip.UserID)
	}
	if got := ip.Categories["sports"]; !reflect.DeepEqual(got, []string{"climbing", "running"}) {
		t.Errorf("sports category = %v", got)
	}
	if _, ok := ip.Categories[""]; ok {
		t.Error("empty category keyed")
	}
	if len(ip.Behavior) != 1 || len(ip.Recent) != 1 || len(ip.Trending) != 1 {
		t.Error("aggregates not carried through")
	}

	// Nil inputs degrade, never panic.
	if ip := s.BuildProfile(nil, nil); ip == nil {
		t.Error("nil profile returned nil")
	}
	if ip := s.BuildProfile(p, nil); ip.Behavior != nil {
		t.Error("nil aggregates produced behavior data")
	}
}

func TestSharedInterestsExactIntersection(t *testing.T) {
	t.Parallel()

	s := NewInterest(InterestConfig{})

	a := s.BuildProfile(&recommend.Profile{
		ID:        "a",
		Interests: interests("climbing", "jazz", "chess"),
	}, nil)
	b := s.BuildProfile(&recommend.Profile{
		ID:        "b",
		Interests: interests("chess", "Climbing", "jazz", "cooking"),
	}, nil)

	sim := s.CalculateSimilarity(a, b)

	// Case-sensitive exact matching: "Climbing" does not match "climbing".
	want := []string{"chess", "jazz"}
	if !reflect.DeepEqual(sim.SharedInterests, want) {
		t.Errorf("SharedInterests = %v, want %v", sim.SharedInterests, want)
	}
}

func TestCalculateSimilarityBounds(t *testing.T) {
	t.Parallel()

	s := NewInterest(InterestConfig{})

	identical := s.BuildProfile(&recommend.Profile{
		ID: "a",
		Interests: []recommend.WeightedInterest{
			{Name: "climbing", Category: "sports", Weight: 0.8},
			{Name: "jazz", Category: "music", Weight: 0.6},
		},
	}, &recommend.BehavioralAggregates{
		Counts: map[string]recommend.BehaviorCounts{"climbing": {Posts: 5, Likes: 2}},
		Recent: []string{"climbing"},
	})

	sim := s.CalculateSimilarity(identical, identical)
	if math.Abs(sim.Score-1) > 1e-9 {
		t.Errorf("self similarity = %f, want 1", sim.Score)
	}

	disjointA := s.BuildProfile(&recommend.Profile{ID: "a", Interests: interests("chess")}, nil)
	disjointB := s.BuildProfile(&recommend.Profile{ID: "b", Interests: interests("surfing")}, nil)
	sim = s.CalculateSimilarity(disjointA, disjointB)
	if sim.Score != 0 {
		t.Errorf("disjoint similarity = %f, want 0", sim.Score)
	}

	if got := s.CalculateSimilarity(nil, identical); got.Score != 0 || got.SharedInterests == nil {
		t.Errorf("nil profile similarity = %+v", got)
	}
}

func TestCalculateSimilarityRenormalizes(t *testing.T) {
	t.Parallel()

	s := NewInterest(InterestConfig{})

	// Declared-only profiles: categories, behavior, and temporal signals
	// all absent. A perfect declared match must still reach 1.
	a := s.BuildProfile(&recommend.Profile{ID: "a", Interests: interests("climbing")}, nil)
	b := s.BuildProfile(&recommend.Profile{ID: "b", Interests: interests("climbing")}, nil)

	sim := s.CalculateSimilarity(a, b)
	if math.Abs(sim.Score-1) > 1e-9 {
		t.Errorf("declared-only perfect match = %f, want 1", sim.Score)
	}
}

func TestWeightedJaccard(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		a, b   []recommend.WeightedInterest
		want   float64
		wantOK bool
	}{
		{
			name:   "both empty",
			wantOK: false,
		},
		{
			name:   "identical unit weights",
			a:      interests("x", "y"),
			b:      interests("x", "y"),
			want:   1,
			wantOK: true,
		},
		{
			name: "partial weights",
			a: []recommend.WeightedInterest{
				{Name: "x", Weight: 0.8},
				{Name: "y", Weight: 0.4},
			},
			b: []recommend.WeightedInterest{
				{Name: "x", Weight: 0.6},
			},
			// min sum = 0.6, max sum = 0.8 + 0.4
			want:   0.6 / 1.2,
			wantOK: true,
		},
		{
			name:   "one side empty",
			a:      interests("x"),
			want:   0,
			wantOK: true,
		},
		{
			name: "unset weight counts as full",
			a:    []recommend.WeightedInterest{{Name: "x"}},
			b:    []recommend.WeightedInterest{{Name: "x"}},
			want: 1, wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := weightedJaccard(tt.a, tt.b)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("weightedJaccard = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestBehavioralCosine(t *testing.T) {
	t.Parallel()

	a := map[string]recommend.BehaviorCounts{
		"climbing": {Posts: 4, Likes: 2},
	}
	same := map[string]recommend.BehaviorCounts{
		"climbing": {Posts: 8, Likes: 4}, // same direction, doubled magnitude
	}
	orthogonal := map[string]recommend.BehaviorCounts{
		"surfing": {Shares: 3},
	}

	got, ok := behavioralCosine(a, same)
	if !ok || math.Abs(got-1) > 1e-9 {
		t.Errorf("parallel vectors = %f (ok=%v), want 1", got, ok)
	}

	got, ok = behavioralCosine(a, orthogonal)
	if !ok || got != 0 {
		t.Errorf("orthogonal vectors = %f (ok=%v), want 0", got, ok)
	}

	if _, ok := behavioralCosine(nil, a); ok {
		t.Error("empty side reported available")
	}

	zero := map[string]recommend.BehaviorCounts{"climbing": {}}
	if _, ok := behavioralCosine(zero, a); ok {
		t.Error("zero-magnitude vector reported available")
	}
}

func TestSetJaccard(t *testing.T) {
	t.Parallel()

	mk := func(names ...string) map[string]struct{} {
		s := make(map[string]struct{}, len(names))
		for _, n := range names {
			s[n] = struct{}{}
		}
		return s
	}

	if _, ok := setJaccard(nil, nil); ok {
		t.Error("two empty sets reported available")
	}
	if got, ok := setJaccard(mk("a", "b"), mk("b", "c")); !ok || math.Abs(got-1.0/3) > 1e-9 {
		t.Errorf("setJaccard = %f (ok=%v), want 1/3", got, ok)
	}
	if got, ok := setJaccard(mk("a"), nil); !ok || got != 0 {
		t.Errorf("one-sided = %f (ok=%v), want 0, true", got, ok)
	}
}
