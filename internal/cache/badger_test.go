// FriendRec - Friend Recommendation Scoring Engine
// Copyright 2026 CampusMatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusmatch/friendrec

package cache

import (
	"context"
	"testing"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/campusmatch/friendrec/internal/recommend"
)

func newTestBadger(t *testing.T) *Badger {
	t.Helper()

	b, err := NewBadger(BadgerConfig{InMemory: true}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewBadger: %v", err)
	}
	t.Cleanup(func() {
		if err := b.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return b
}

func TestBadgerGetSet(t *testing.T) {
	t.Parallel()

	b := newTestBadger(t)
	ctx := context.Background()

	if _, status := b.Get(ctx, "rec:alice:0000000000000001"); status != recommend.CacheMiss {
		t.Fatalf("empty store returned %v, want miss", status)
	}

	want := testResponse("alice")
	if err := b.Set(ctx, "rec:alice:0000000000000001", want, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, status := b.Get(ctx, "rec:alice:0000000000000001")
	if status != recommend.CacheHit {
		t.Fatalf("status = %v, want hit", status)
	}
	if got.Metadata.UserID != "alice" {
		t.Errorf("UserID = %q after roundtrip", got.Metadata.UserID)
	}
	if got.AlgorithmVersion != recommend.AlgorithmVersion {
		t.Errorf("AlgorithmVersion = %q after roundtrip", got.AlgorithmVersion)
	}
	if len(got.Recommendations) != 1 || got.Recommendations[0].UserID != "candidate-1" {
		t.Errorf("recommendations mangled: %+v", got.Recommendations)
	}
}

func TestBadgerTTLExpiry(t *testing.T) {
	t.Parallel()

	b := newTestBadger(t)
	ctx := context.Background()

	if err := b.Set(ctx, "rec:alice:01", testResponse("alice"), 100*time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if _, status := b.Get(ctx, "rec:alice:01"); status != recommend.CacheHit {
		t.Fatal("fresh entry not served")
	}

	time.Sleep(150 * time.Millisecond)
	if _, status := b.Get(ctx, "rec:alice:01"); status != recommend.CacheMiss {
		t.Errorf("expired entry returned %v, want miss", status)
	}
}

func TestBadgerInvalidateUser(t *testing.T) {
	t.Parallel()

	b := newTestBadger(t)
	ctx := context.Background()

	keys := []string{
		"rec:alice:0000000000000001",
		"rec:alice:0000000000000002",
		"rec:bob:0000000000000001",
		"rec:alicia:0000000000000001",
	}
	for _, key := range keys {
		if err := b.Set(ctx, key, testResponse("x"), time.Minute); err != nil {
			t.Fatalf("Set %s: %v", key, err)
		}
	}

	if err := b.InvalidateUser(ctx, "alice"); err != nil {
		t.Fatalf("InvalidateUser: %v", err)
	}

	for _, key := range keys[:2] {
		if _, status := b.Get(ctx, key); status != recommend.CacheMiss {
			t.Errorf("key %s survived invalidation", key)
		}
	}
	for _, key := range keys[2:] {
		if _, status := b.Get(ctx, key); status != recommend.CacheHit {
			t.Errorf("key %s wrongly invalidated", key)
		}
	}
}

func TestBadgerCorruptEntryIsMiss(t *testing.T) {
	t.Parallel()

	b := newTestBadger(t)
	ctx := context.Background()

	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("rec:alice:01"), []byte("{not json"))
	})
	if err != nil {
		t.Fatalf("seed corrupt entry: %v", err)
	}

	if _, status := b.Get(ctx, "rec:alice:01"); status != recommend.CacheMiss {
		t.Errorf("corrupt entry returned %v, want miss", status)
	}
}

func TestBadgerSweepNoop(t *testing.T) {
	t.Parallel()

	b := newTestBadger(t)
	if removed := b.Sweep(); removed != 0 {
		t.Errorf("Sweep = %d, want 0", removed)
	}
}
