// FriendRec - Friend Recommendation Scoring Engine
// Copyright 2026 CampusMatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusmatch/friendrec

package cache

import (
	"context"
	"errors"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/campusmatch/friendrec/internal/recommend"
)

// Badger is a persistent result cache on dgraph-io/badger. Responses
// are serialized as JSON; TTL is enforced by Badger entry expiry.
//
// Backend failures are reported as CacheUnavailable from Get rather
// than errors, matching the engine's degraded-mode contract.
type Badger struct {
	db     *badger.DB
	logger zerolog.Logger
}

// BadgerConfig contains parameters for the persistent cache.
type BadgerConfig struct {
	// Path is the on-disk location. Empty with InMemory set runs fully
	// in memory (used by tests).
	Path string

	// InMemory disables persistence.
	InMemory bool
}

// NewBadger opens a persistent result cache.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBadger(cfg BadgerConfig, logger zerolog.Logger) (*Badger, error) {
	opts := badger.DefaultOptions(cfg.Path).
		WithInMemory(cfg.InMemory).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Badger{
		db:     db,
		logger: logger.With().Str("component", "cache").Str("backend", "badger").Logger(),
	}, nil
}

// Get returns the cached response for a key, if fresh.
func (b *Badger) Get(_ context.Context, key string) (*recommend.Response, recommend.CacheStatus) {
	var raw []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})

	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return nil, recommend.CacheMiss
	case err != nil:
		b.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
		return nil, recommend.CacheUnavailable
	}

	var resp recommend.Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		b.logger.Warn().Err(err).Str("key", key).Msg("cache entry corrupt, treating as miss")
		return nil, recommend.CacheMiss
	}
	return &resp, recommend.CacheHit
}

// Set stores a response under a key with entry-level TTL.
func (b *Badger) Set(_ context.Context, key string, resp *recommend.Response, ttl time.Duration) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	return b.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), raw)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
}

// InvalidateUser removes every entry belonging to a user via prefix
// scan.
func (b *Badger) InvalidateUser(_ context.Context, userID string) error {
	prefix := []byte("rec:" + userID + ":")

	return b.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().KeyCopy(nil)
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

// Sweep triggers Badger value-log garbage collection. Expired entries
// are already invisible to readers; this reclaims disk space.
func (b *Badger) Sweep() int {
	// Badger GC returns ErrNoRewrite when there is nothing to collect.
	if err := b.db.RunValueLogGC(0.5); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
		b.logger.Warn().Err(err).Msg("value log GC failed")
	}
	return 0
}

// Close releases the underlying store.
func (b *Badger) Close() error {
	return b.db.Close()
}

// Ensure Badger implements the interface.
var _ recommend.ResultCache = (*Badger)(nil)
