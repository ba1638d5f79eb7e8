// FriendRec - Friend Recommendation Scoring Engine
// Copyright 2026 CampusMatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusmatch/friendrec

// Package repository implements recommend.CandidateRepository over
// DuckDB.
//
// The engine treats profile storage, the social graph, and behavioral
// aggregates as external collaborators; this package is the concrete
// adapter a deployment wires in. It also provides Resilient, a
// decorator adding a circuit breaker (sony/gobreaker) and request
// pacing (golang.org/x/time/rate) in front of any repository
// implementation so a failing or slow store trips fast instead of
// piling up latency inside the scoring pipeline.
package repository
