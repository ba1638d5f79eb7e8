// FriendRec - Friend Recommendation Scoring Engine
// Copyright 2026 CampusMatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusmatch/friendrec

package reranking

import (
	"reflect"
	"testing"

	"github.com/campusmatch/friendrec/internal/recommend"
)

func candidate(id, department string, composite float64) recommend.ScoredCandidate {
	return recommend.ScoredCandidate{
		Profile:   recommend.Profile{ID: id, Department: department},
		Composite: composite,
	}
}

func ids(items []recommend.ScoredCandidate) []string {
	out := make([]string, len(items))
	for i := range items {
		out[i] = items[i].Profile.ID
	}
	return out
}

func TestRerankZeroFactorPreservesOrder(t *testing.T) {
	t.Parallel()

	items := []recommend.ScoredCandidate{
		candidate("a", "CS", 0.9),
		candidate("b", "CS", 0.8),
		candidate("c", "CS", 0.7),
	}

	got := NewDiversity().Rerank(items, 0)
	if !reflect.DeepEqual(ids(got), []string{"a", "b", "c"}) {
		t.Errorf("order changed at factor 0: %v", ids(got))
	}
}

func TestRerankNeverDropsOrDuplicates(t *testing.T) {
	t.Parallel()

	items := []recommend.ScoredCandidate{
		candidate("a", "CS", 0.9),
		candidate("b", "CS", 0.89),
		candidate("c", "CS", 0.88),
		candidate("d", "Biology", 0.5),
		candidate("e", "Physics", 0.4),
	}

	got := NewDiversity().Rerank(items, 0.8)
	if len(got) != len(items) {
		t.Fatalf("length %d, want %d", len(got), len(items))
	}

	seen := make(map[string]bool)
	for _, item := range got {
		if seen[item.Profile.ID] {
			t.Errorf("duplicate %s", item.Profile.ID)
		}
		seen[item.Profile.ID] = true
	}
	for _, item := range items {
		if !seen[item.Profile.ID] {
			t.Errorf("dropped %s", item.Profile.ID)
		}
	}
}

func TestRerankBreaksUpDominantGroup(t *testing.T) {
	t.Parallel()

	// Three close CS scores, then other departments. With a strong
	// factor, the second pick pays a 0.5 occupancy penalty on CS, so
	// Biology at 0.5 beats CS at 0.89 - 0.8*0.5.
	items := []recommend.ScoredCandidate{
		candidate("a", "CS", 0.9),
		candidate("b", "CS", 0.89),
		candidate("c", "CS", 0.88),
		candidate("d", "Biology", 0.5),
		candidate("e", "Physics", 0.45),
	}

	got := NewDiversity().Rerank(items, 0.8)

	if got[0].Profile.ID != "a" {
		t.Errorf("top pick = %s, want a (highest composite always first)", got[0].Profile.ID)
	}
	if recommend.GroupKey(&got[1].Profile) == "cs" {
		t.Errorf("second pick %s stayed in the dominant group", got[1].Profile.ID)
	}
}

func TestRerankDeterministic(t *testing.T) {
	t.Parallel()

	items := []recommend.ScoredCandidate{
		candidate("b", "CS", 0.8),
		candidate("a", "CS", 0.8),
		candidate("c", "Biology", 0.8),
	}

	first := ids(NewDiversity().Rerank(append([]recommend.ScoredCandidate(nil), items...), 0.5))
	for i := 0; i < 10; i++ {
		again := ids(NewDiversity().Rerank(append([]recommend.ScoredCandidate(nil), items...), 0.5))
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs: %v vs %v", i, first, again)
		}
	}
}

func TestRerankImprovesDiversityMetric(t *testing.T) {
	t.Parallel()

	items := []recommend.ScoredCandidate{
		candidate("a", "CS", 1.0),
		candidate("b", "CS", 0.99),
		candidate("c", "CS", 0.98),
		candidate("d", "CS", 0.97),
		candidate("e", "Biology", 0.6),
		candidate("f", "Physics", 0.55),
	}

	distinctInTop := func(ranked []recommend.ScoredCandidate, k int) int {
		groups := make(map[string]bool)
		for i := 0; i < k && i < len(ranked); i++ {
			groups[recommend.GroupKey(&ranked[i].Profile)] = true
		}
		return len(groups)
	}

	plain := NewDiversity().Rerank(append([]recommend.ScoredCandidate(nil), items...), 0)
	mixed := NewDiversity().Rerank(append([]recommend.ScoredCandidate(nil), items...), 1)

	if distinctInTop(mixed, 3) < distinctInTop(plain, 3) {
		t.Errorf("diversity in top 3 dropped: %d < %d",
			distinctInTop(mixed, 3), distinctInTop(plain, 3))
	}
	if distinctInTop(mixed, 3) < 2 {
		t.Errorf("strong factor left top 3 with %d groups", distinctInTop(mixed, 3))
	}
}

func TestRerankSingleAndEmpty(t *testing.T) {
	t.Parallel()

	d := NewDiversity()

	if got := d.Rerank(nil, 0.5); len(got) != 0 {
		t.Errorf("nil input returned %d items", len(got))
	}

	one := []recommend.ScoredCandidate{candidate("a", "CS", 0.5)}
	if got := d.Rerank(one, 0.5); len(got) != 1 || got[0].Profile.ID != "a" {
		t.Errorf("single item mangled: %v", ids(got))
	}
}

func TestRerankFactorAboveOneClamped(t *testing.T) {
	t.Parallel()

	items := []recommend.ScoredCandidate{
		candidate("a", "CS", 0.9),
		candidate("b", "Biology", 0.1),
	}

	// A factor above 1 behaves like 1 and still returns everything.
	got := NewDiversity().Rerank(items, 5)
	if len(got) != 2 {
		t.Fatalf("length %d, want 2", len(got))
	}
}
