// FriendRec - Friend Recommendation Scoring Engine
// Copyright 2026 CampusMatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusmatch/friendrec

// Package api exposes the recommendation engine over HTTP.
//
// Routes:
//
//	GET   /api/v1/recommendations/{userID}   ranked recommendations
//	GET   /api/v1/recommendations/config     engine configuration
//	PATCH /api/v1/recommendations/config     partial weight update
//	GET   /healthz                           liveness probe
//	GET   /metrics                           Prometheus exposition
//
// All API responses use the models.APIResponse envelope. Engine errors
// map onto status codes: validation failures are 400, an unknown
// requester is 404, candidate store failures are 502, anything else 500.
package api
