// FriendRec - Friend Recommendation Scoring Engine
// Copyright 2026 CampusMatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusmatch/friendrec

// Package cache provides recommendation result caches.
//
// Two backends implement recommend.ResultCache:
//
//   - Memory: an in-process TTL map, suitable for single-instance
//     deployments and tests.
//   - Badger: a persistent cache on dgraph-io/badger, surviving process
//     restarts and sharing hot results across restarts.
//
// Both backends report the tri-state lookup outcome the engine expects:
// hit, miss, or unavailable. Unavailable is a deliberate degraded-mode
// signal: the engine collapses it into the miss path and recomputes, so
// a failing cache backend can never fail a request.
//
// Keys are structured as "rec:<userID>:<hash>", which lets InvalidateUser
// drop every entry for a user with a prefix scan.
package cache
