// FriendRec - Friend Recommendation Scoring Engine
// Copyright 2026 CampusMatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusmatch/friendrec

package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/campusmatch/friendrec/internal/recommend"
)

// Memory is an in-process TTL cache for recommendation responses.
// It is safe for concurrent use.
type Memory struct {
	mu         sync.RWMutex
	entries    map[string]memoryEntry
	defaultTTL time.Duration
	maxEntries int
	logger     zerolog.Logger

	// now is replaceable for deterministic tests.
	now func() time.Time
}

type memoryEntry struct {
	resp      *recommend.Response
	expiresAt time.Time
}

// MemoryConfig contains parameters for the in-memory cache.
type MemoryConfig struct {
	// DefaultTTL applies when Set receives a non-positive TTL.
	DefaultTTL time.Duration

	// MaxEntries triggers an expired-entry sweep when reached.
	MaxEntries int
}

// NewMemory creates an in-memory result cache.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewMemory(cfg MemoryConfig, logger zerolog.Logger) *Memory {
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = 5 * time.Minute
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 10000
	}
	return &Memory{
		entries:    make(map[string]memoryEntry),
		defaultTTL: cfg.DefaultTTL,
		maxEntries: cfg.MaxEntries,
		logger:     logger.With().Str("component", "cache").Str("backend", "memory").Logger(),
		now:        time.Now,
	}
}

// Get returns the cached response for a key, if fresh.
func (m *Memory) Get(_ context.Context, key string) (*recommend.Response, recommend.CacheStatus) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || m.now().After(entry.expiresAt) {
		return nil, recommend.CacheMiss
	}
	return entry.resp, recommend.CacheHit
}

// Set stores a response under a key.
func (m *Memory) Set(_ context.Context, key string, resp *recommend.Response, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = m.defaultTTL
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.entries) >= m.maxEntries {
		m.sweepLocked()
	}
	m.entries[key] = memoryEntry{resp: resp, expiresAt: m.now().Add(ttl)}
	return nil
}

// InvalidateUser removes every entry belonging to a user.
func (m *Memory) InvalidateUser(_ context.Context, userID string) error {
	prefix := "rec:" + userID + ":"

	m.mu.Lock()
	defer m.mu.Unlock()

	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

// Sweep removes expired entries. The janitor service calls this
// periodically.
func (m *Memory) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	before := len(m.entries)
	m.sweepLocked()
	removed := before - len(m.entries)
	if removed > 0 {
		m.logger.Debug().Int("removed", removed).Msg("swept expired entries")
	}
	return removed
}

// sweepLocked removes expired entries. Caller holds mu.
func (m *Memory) sweepLocked() {
	now := m.now()
	for key, entry := range m.entries {
		if now.After(entry.expiresAt) {
			delete(m.entries, key)
		}
	}
}

// Len returns the number of entries, including expired ones not yet
// swept.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Ensure Memory implements the interface.
var _ recommend.ResultCache = (*Memory)(nil)
