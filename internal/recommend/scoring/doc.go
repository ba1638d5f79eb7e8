// FriendRec - Friend Recommendation Scoring Engine
// Copyright 2026 CampusMatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusmatch/friendrec

// Package scoring implements the factor scorers for the recommendation
// engine.
//
// Each scorer implements the corresponding interface in the recommend
// package and is injected into the engine at construction time:
//
//   - University scores institutional and academic overlap.
//   - Mutual scores shared-connection graph overlap with a saturating
//     diminishing-returns curve.
//   - Interest scores declared-interest, category, behavioral, and
//     temporal similarity.
//
// All scorers are stateless after construction and safe for concurrent
// use.
package scoring
