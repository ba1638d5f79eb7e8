// FriendRec - Friend Recommendation Scoring Engine
// Copyright 2026 CampusMatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusmatch/friendrec

package recommend

import (
	"errors"
	"fmt"
)

// ErrProfileNotFound indicates the requesting user has no profile. This
// is fatal and surfaced to the caller; it is never returned for missing
// candidate profiles.
var ErrProfileNotFound = errors.New("requester profile not found")

// UpstreamError wraps an irrecoverable repository failure. It carries
// the failing operation name so callers can log and alert with context.
type UpstreamError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// upstream wraps err as an UpstreamError unless it is nil or already
// one of the engine's typed errors.
func upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return err
	}
	return &UpstreamError{Op: op, Err: err}
}

// ValidationError indicates a malformed request, detected before any I/O.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %s %s", e.Field, e.Reason)
}
