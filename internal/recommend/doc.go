// FriendRec - Friend Recommendation Scoring Engine
// Copyright 2026 CampusMatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusmatch/friendrec

// Package recommend implements the friend-recommendation scoring engine.
//
// The engine produces a ranked, privacy-filtered, diversified list of
// candidate users to befriend for a requesting user. It combines three
// domain scorers (university affinity, mutual connections, interest
// similarity) with engagement and geography factors into a weighted
// composite score, applies a diversity reranker, and caches complete
// results per request key with a single-flight guarantee.
//
// # Architecture
//
// All collaborators are interfaces defined here and injected at
// construction time; concrete storage, cache, and scorer implementations
// live in sibling packages:
//
//   - CandidateRepository supplies profiles, candidate pools, and
//     exclusion sets (blocked users, existing connections).
//   - ResultCache stores complete responses with TTL and reports a
//     tri-state lookup outcome (hit / miss / unavailable).
//   - UniversityScorer, MutualConnectionScorer, and InterestScorer
//     produce the per-candidate factor scores.
//   - Reranker reorders the final list for grouping diversity.
//
// # Error taxonomy
//
// ErrProfileNotFound surfaces when the requester has no profile.
// UpstreamError wraps irrecoverable repository failures. Request
// validation failures surface as *ValidationError before any I/O.
// Cache failures are never fatal: an unavailable cache degrades to
// "always compute" and is only logged.
//
// # Concurrency
//
// Engine is safe for concurrent use. Input fetches run concurrently and
// join before scoring; per-candidate scoring runs on a bounded worker
// pool; identical in-flight requests collapse into a single computation
// via singleflight. Weights are an immutable snapshot swapped atomically,
// so readers never observe a torn update.
package recommend
