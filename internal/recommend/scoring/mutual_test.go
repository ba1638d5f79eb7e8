// FriendRec - Friend Recommendation Scoring Engine
// Copyright 2026 CampusMatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusmatch/friendrec

package scoring

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
)

// fakeGraph serves connection lists from a map.
type fakeGraph struct {
	connections map[string][]string
	err         error
}

func (g *fakeGraph) GetExistingConnections(_ context.Context, userID string) ([]string, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.connections[userID], nil
}

func TestMutualScore(t *testing.T) {
	t.Parallel()

	graph := &fakeGraph{connections: map[string][]string{
		"alice": {"u1", "u2", "u3", "u4"},
		"bob":   {"u2", "u3", "u9"},
		"carol": {"u7"},
		"dave":  {},
	}}
	m := NewMutual(graph, MutualConfig{})

	tests := []struct {
		name       string
		a, b       string
		wantCount  int
		wantShared []string
		strength   string
	}{
		{"two shared", "alice", "bob", 2, []string{"u2", "u3"}, "weak"},
		{"no overlap", "alice", "carol", 0, []string{}, "none"},
		{"empty graph side", "alice", "dave", 0, []string{}, "none"},
		{"unknown user", "alice", "nobody", 0, []string{}, "none"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, err := m.Score(context.Background(), tt.a, tt.b)
			if err != nil {
				t.Fatalf("Score: %v", err)
			}
			if res.Count != tt.wantCount {
				t.Errorf("Count = %d, want %d", res.Count, tt.wantCount)
			}
			if tt.wantCount == 0 && res.Score != 0 {
				t.Errorf("zero mutuals scored %f", res.Score)
			}
			if tt.wantCount > 0 && (res.Score <= 0 || res.Score >= 1) {
				t.Errorf("score %f outside (0, 1)", res.Score)
			}
			if len(res.ConnectionIDs) != len(tt.wantShared) ||
				(tt.wantCount > 0 && !reflect.DeepEqual(res.ConnectionIDs, tt.wantShared)) {
				t.Errorf("ConnectionIDs = %v, want %v", res.ConnectionIDs, tt.wantShared)
			}
			if res.Analysis["strength"] != tt.strength {
				t.Errorf("strength = %q, want %q", res.Analysis["strength"], tt.strength)
			}
		})
	}
}

func TestMutualScoreMonotonicSaturating(t *testing.T) {
	t.Parallel()

	m := NewMutual(&fakeGraph{}, MutualConfig{})

	prev := m.curve(0)
	if prev != 0 {
		t.Fatalf("curve(0) = %f, want 0", prev)
	}
	for count := 1; count <= 100; count++ {
		cur := m.curve(count)
		if cur <= prev {
			t.Fatalf("curve(%d) = %f not above curve(%d) = %f", count, cur, count-1, prev)
		}
		if cur >= 1 {
			t.Fatalf("curve(%d) = %f reached 1", count, cur)
		}
		prev = cur
	}

	// Diminishing returns: the step from 50 to 51 is smaller than from
	// 1 to 2.
	if m.curve(51)-m.curve(50) >= m.curve(2)-m.curve(1) {
		t.Error("curve does not flatten")
	}
}

func TestMutualScorePropagatesError(t *testing.T) {
	t.Parallel()

	graph := &fakeGraph{err: errors.New("graph store down")}
	m := NewMutual(graph, MutualConfig{})

	if _, err := m.Score(context.Background(), "alice", "bob"); err == nil {
		t.Fatal("expected error from failing source")
	}
}

func TestMutualMaxListed(t *testing.T) {
	t.Parallel()

	conns := make([]string, 40)
	for i := range conns {
		conns[i] = fmt.Sprintf("u%02d", i)
	}
	graph := &fakeGraph{connections: map[string][]string{
		"alice": conns,
		"bob":   conns,
	}}
	m := NewMutual(graph, MutualConfig{MaxListed: 10})

	res, err := m.Score(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if res.Count != 40 {
		t.Errorf("Count = %d, want 40", res.Count)
	}
	if len(res.ConnectionIDs) != 10 {
		t.Errorf("listed %d IDs, want 10", len(res.ConnectionIDs))
	}
}

func TestIntersect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b []string
		want []string
	}{
		{"plain overlap", []string{"x", "y", "z"}, []string{"y", "z", "w"}, []string{"y", "z"}},
		{"duplicates collapse", []string{"x", "x", "y"}, []string{"x", "x"}, []string{"x"}},
		{"disjoint", []string{"a"}, []string{"b"}, []string{}},
		{"empty side", nil, []string{"a"}, []string{}},
		{"sorted output", []string{"c", "a", "b"}, []string{"b", "c", "a"}, []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := intersect(tt.a, tt.b)
			if len(got) != len(tt.want) {
				t.Fatalf("intersect = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("intersect = %v, want %v", got, tt.want)
				}
			}
		})
	}
}
