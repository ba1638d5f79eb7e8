// FriendRec - Friend Recommendation Scoring Engine
// Copyright 2026 CampusMatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusmatch/friendrec

// Package events consumes social-graph mutation events and invalidates
// cached recommendation results for the affected users.
//
// Connection and block events change the exclusion sets and mutual
// connection counts that recommendations are scored from, so any cached
// response for either party is stale the moment the event is published.
// The invalidator subscribes to the graph topics and drops both users'
// cache entries; the next request recomputes from fresh data.
//
// Production wiring uses NATS JetStream through watermill-nats. Tests
// substitute watermill's in-process gochannel Pub/Sub, which implements
// the same message.Subscriber interface.
package events
