// FriendRec - Friend Recommendation Scoring Engine
// Copyright 2026 CampusMatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusmatch/friendrec

package repository

import (
	"context"
	"sort"
	"testing"

	"github.com/rs/zerolog"
)

func newTestDB(t *testing.T) *DuckDB {
	t.Helper()

	r, err := OpenDuckDB(context.Background(), "", zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenDuckDB: %v", err)
	}
	t.Cleanup(func() {
		if err := r.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return r
}

func seed(t *testing.T, r *DuckDB, stmts ...string) {
	t.Helper()
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(context.Background(), stmt); err != nil {
			t.Fatalf("seed %q: %v", stmt, err)
		}
	}
}

func TestGetUserProfile(t *testing.T) {
	t.Parallel()

	r := newTestDB(t)
	seed(t, r,
		`INSERT INTO user_profiles VALUES
			('alice', 'alice', 'State University', 'CS', 'Software Engineering', 2027,
			 52.52, 13.405, 'public', TIMESTAMP '2026-08-01 12:00:00')`,
		`INSERT INTO user_interests VALUES
			('alice', 'climbing', 'sports', 0.9),
			('alice', 'jazz', 'music', 0.6)`,
	)

	p, err := r.GetUserProfile(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetUserProfile: %v", err)
	}
	if p == nil {
		t.Fatal("profile not found")
	}
	if p.University != "State University" || p.GraduationYear != 2027 {
		t.Errorf("profile fields: %+v", p)
	}
	if p.Location == nil || p.Location.Lat != 52.52 {
		t.Errorf("location = %+v", p.Location)
	}
	if len(p.Interests) != 2 {
		t.Errorf("got %d interests, want 2", len(p.Interests))
	}
	if p.LastActiveAt.IsZero() {
		t.Error("last_active_at not scanned")
	}
}

func TestGetUserProfileAbsent(t *testing.T) {
	t.Parallel()

	r := newTestDB(t)

	p, err := r.GetUserProfile(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("GetUserProfile: %v", err)
	}
	if p != nil {
		t.Errorf("absent user returned %+v", p)
	}
}

func TestGetUserProfileNullLocation(t *testing.T) {
	t.Parallel()

	r := newTestDB(t)
	seed(t, r,
		`INSERT INTO user_profiles VALUES
			('bob', 'bob', 'State University', '', '', 0, NULL, NULL, 'public', NULL)`,
	)

	p, err := r.GetUserProfile(context.Background(), "bob")
	if err != nil {
		t.Fatalf("GetUserProfile: %v", err)
	}
	if p.Location != nil {
		t.Errorf("NULL coordinates produced location %+v", p.Location)
	}
	if !p.LastActiveAt.IsZero() {
		t.Errorf("NULL timestamp produced %v", p.LastActiveAt)
	}
}

func TestGetCandidates(t *testing.T) {
	t.Parallel()

	r := newTestDB(t)
	seed(t, r,
		`INSERT INTO user_profiles (id, username, university, last_active_at) VALUES
			('alice', 'alice', 'State University', TIMESTAMP '2026-08-01 12:00:00'),
			('bob', 'bob', 'State University', TIMESTAMP '2026-08-03 12:00:00'),
			('carol', 'carol', 'Tech Institute', TIMESTAMP '2026-08-02 12:00:00'),
			('dave', 'dave', 'Tech Institute', NULL)`,
		`INSERT INTO user_interests VALUES ('bob', 'climbing', 'sports', 1.0)`,
	)

	got, err := r.GetCandidates(context.Background(), "alice", 10)
	if err != nil {
		t.Fatalf("GetCandidates: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d candidates, want 3 (requester excluded)", len(got))
	}
	// Most recently active first, NULL activity last.
	if got[0].ID != "bob" || got[1].ID != "carol" || got[2].ID != "dave" {
		t.Errorf("order = %s, %s, %s", got[0].ID, got[1].ID, got[2].ID)
	}
	if len(got[0].Interests) != 1 {
		t.Errorf("bob interests = %v", got[0].Interests)
	}

	capped, err := r.GetCandidates(context.Background(), "alice", 2)
	if err != nil {
		t.Fatalf("GetCandidates: %v", err)
	}
	if len(capped) != 2 {
		t.Errorf("limit 2 returned %d", len(capped))
	}
}

func TestGetBlockedUsersBidirectional(t *testing.T) {
	t.Parallel()

	r := newTestDB(t)
	seed(t, r,
		`INSERT INTO blocks VALUES ('alice', 'eve'), ('mallory', 'alice'), ('bob', 'carol')`,
	)

	got, err := r.GetBlockedUsers(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetBlockedUsers: %v", err)
	}
	sort.Strings(got)
	if len(got) != 2 || got[0] != "eve" || got[1] != "mallory" {
		t.Errorf("blocked = %v, want [eve mallory]", got)
	}
}

func TestGetExistingConnectionsBidirectional(t *testing.T) {
	t.Parallel()

	r := newTestDB(t)
	seed(t, r,
		`INSERT INTO connections VALUES ('alice', 'bob'), ('carol', 'alice'), ('bob', 'dave')`,
	)

	got, err := r.GetExistingConnections(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetExistingConnections: %v", err)
	}
	sort.Strings(got)
	if len(got) != 2 || got[0] != "bob" || got[1] != "carol" {
		t.Errorf("connections = %v, want [bob carol]", got)
	}
}

func TestGetBehavioralAggregates(t *testing.T) {
	t.Parallel()

	r := newTestDB(t)
	seed(t, r,
		`INSERT INTO interest_activity VALUES
			('alice', 'climbing', 3, 5, 1, 0),
			('alice', 'climbing', 1, 0, 0, 2),
			('alice', 'jazz', 0, 2, 0, 0),
			('bob', 'chess', 7, 0, 0, 0)`,
		`INSERT INTO interest_buckets VALUES
			('alice', 'climbing', 'recent'),
			('alice', 'jazz', 'trending'),
			('bob', 'chess', 'historical')`,
	)

	got, err := r.GetBehavioralAggregates(context.Background(), []string{"alice", "bob", "nobody"})
	if err != nil {
		t.Fatalf("GetBehavioralAggregates: %v", err)
	}

	alice, ok := got["alice"]
	if !ok {
		t.Fatal("alice missing from aggregates")
	}
	// Activity rows for the same interest are summed.
	if c := alice.Counts["climbing"]; c.Posts != 4 || c.Likes != 5 || c.Searches != 2 {
		t.Errorf("climbing counts = %+v", c)
	}
	if len(alice.Recent) != 1 || alice.Recent[0] != "climbing" {
		t.Errorf("recent = %v", alice.Recent)
	}
	if len(alice.Trending) != 1 || alice.Trending[0] != "jazz" {
		t.Errorf("trending = %v", alice.Trending)
	}

	if bob := got["bob"]; len(bob.Historical) != 1 {
		t.Errorf("bob historical = %v", bob.Historical)
	}
	if _, ok := got["nobody"]; ok {
		t.Error("user with no activity present in map")
	}

	empty, err := r.GetBehavioralAggregates(context.Background(), nil)
	if err != nil {
		t.Fatalf("empty batch: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("empty batch returned %d entries", len(empty))
	}
}

func TestInArgs(t *testing.T) {
	t.Parallel()

	placeholders, args := inArgs([]string{"a", "b", "c"})
	if placeholders != "?,?,?" {
		t.Errorf("placeholders = %q", placeholders)
	}
	if len(args) != 3 || args[1] != "b" {
		t.Errorf("args = %v", args)
	}
}
