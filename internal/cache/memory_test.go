// FriendRec - Friend Recommendation Scoring Engine
// Copyright 2026 CampusMatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusmatch/friendrec

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/campusmatch/friendrec/internal/recommend"
)

func testResponse(userID string) *recommend.Response {
	return &recommend.Response{
		Recommendations:  []recommend.Recommendation{{UserID: "candidate-1", CompositeScore: 0.7}},
		AlgorithmVersion: recommend.AlgorithmVersion,
		TotalCandidates:  1,
		Metadata:         recommend.ResponseMetadata{UserID: userID},
	}
}

func TestMemoryGetSet(t *testing.T) {
	t.Parallel()

	m := NewMemory(MemoryConfig{}, zerolog.Nop())
	ctx := context.Background()

	if _, status := m.Get(ctx, "rec:alice:0000000000000001"); status != recommend.CacheMiss {
		t.Fatalf("empty cache returned %v, want miss", status)
	}

	want := testResponse("alice")
	if err := m.Set(ctx, "rec:alice:0000000000000001", want, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, status := m.Get(ctx, "rec:alice:0000000000000001")
	if status != recommend.CacheHit {
		t.Fatalf("status = %v, want hit", status)
	}
	if got.Metadata.UserID != "alice" || len(got.Recommendations) != 1 {
		t.Errorf("cached response mangled: %+v", got)
	}
}

func TestMemoryTTLExpiry(t *testing.T) {
	t.Parallel()

	m := NewMemory(MemoryConfig{DefaultTTL: time.Minute}, zerolog.Nop())
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }

	if err := m.Set(ctx, "rec:alice:01", testResponse("alice"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	m.now = func() time.Time { return base.Add(59 * time.Second) }
	if _, status := m.Get(ctx, "rec:alice:01"); status != recommend.CacheHit {
		t.Errorf("entry expired early: %v", status)
	}

	m.now = func() time.Time { return base.Add(61 * time.Second) }
	if _, status := m.Get(ctx, "rec:alice:01"); status != recommend.CacheMiss {
		t.Errorf("stale entry served: %v", status)
	}
}

func TestMemoryDefaultTTLApplied(t *testing.T) {
	t.Parallel()

	m := NewMemory(MemoryConfig{DefaultTTL: time.Minute}, zerolog.Nop())
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }

	// Non-positive TTL falls back to the default.
	if err := m.Set(ctx, "rec:alice:01", testResponse("alice"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	m.now = func() time.Time { return base.Add(30 * time.Second) }
	if _, status := m.Get(ctx, "rec:alice:01"); status != recommend.CacheHit {
		t.Errorf("entry with default TTL missing at 30s: %v", status)
	}
	m.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, status := m.Get(ctx, "rec:alice:01"); status != recommend.CacheMiss {
		t.Errorf("entry outlived default TTL: %v", status)
	}
}

func TestMemoryInvalidateUser(t *testing.T) {
	t.Parallel()

	m := NewMemory(MemoryConfig{}, zerolog.Nop())
	ctx := context.Background()

	keys := []string{
		"rec:alice:0000000000000001",
		"rec:alice:0000000000000002",
		"rec:bob:0000000000000001",
		"rec:alicia:0000000000000001",
	}
	for _, key := range keys {
		if err := m.Set(ctx, key, testResponse("x"), time.Minute); err != nil {
			t.Fatalf("Set %s: %v", key, err)
		}
	}

	if err := m.InvalidateUser(ctx, "alice"); err != nil {
		t.Fatalf("InvalidateUser: %v", err)
	}

	for _, key := range keys[:2] {
		if _, status := m.Get(ctx, key); status != recommend.CacheMiss {
			t.Errorf("key %s survived invalidation", key)
		}
	}
	// Other users are untouched, including prefix-adjacent IDs.
	for _, key := range keys[2:] {
		if _, status := m.Get(ctx, key); status != recommend.CacheHit {
			t.Errorf("key %s wrongly invalidated", key)
		}
	}
}

func TestMemorySweep(t *testing.T) {
	t.Parallel()

	m := NewMemory(MemoryConfig{}, zerolog.Nop())
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }

	if err := m.Set(ctx, "rec:alice:01", testResponse("alice"), time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := m.Set(ctx, "rec:bob:01", testResponse("bob"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}

	m.now = func() time.Time { return base.Add(time.Minute) }
	if removed := m.Sweep(); removed != 1 {
		t.Errorf("Sweep removed %d, want 1", removed)
	}
	if m.Len() != 1 {
		t.Errorf("Len = %d after sweep, want 1", m.Len())
	}
	if _, status := m.Get(ctx, "rec:bob:01"); status != recommend.CacheHit {
		t.Error("live entry swept")
	}
}

func TestMemoryMaxEntriesTriggersSweep(t *testing.T) {
	t.Parallel()

	m := NewMemory(MemoryConfig{MaxEntries: 2}, zerolog.Nop())
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }

	if err := m.Set(ctx, "rec:a:01", testResponse("a"), time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := m.Set(ctx, "rec:b:01", testResponse("b"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// At capacity with one expired entry: the next Set sweeps it out.
	m.now = func() time.Time { return base.Add(time.Minute) }
	if err := m.Set(ctx, "rec:c:01", testResponse("c"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if m.Len() != 2 {
		t.Errorf("Len = %d, want 2 (expired entry swept at capacity)", m.Len())
	}
}

func TestMemoryConcurrentAccess(t *testing.T) {
	t.Parallel()

	m := NewMemory(MemoryConfig{}, zerolog.Nop())
	ctx := context.Background()

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				_ = m.Set(ctx, "rec:alice:01", testResponse("alice"), time.Minute)
				m.Get(ctx, "rec:alice:01")
				_ = m.InvalidateUser(ctx, "alice")
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
