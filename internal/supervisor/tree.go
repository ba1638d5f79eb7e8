// FriendRec - Friend Recommendation Scoring Engine
// Copyright 2026 CampusMatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusmatch/friendrec

// Package supervisor assembles the suture v4 supervision tree.
//
// The tree has two layers under the root: serving (the HTTP server) and
// background (event invalidator, cache janitor). A crashing background
// service restarts in isolation without interrupting request serving.
package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// TreeConfig holds supervisor tree configuration. Zero values take
// suture's production defaults.
type TreeConfig struct {
	FailureThreshold float64
	FailureDecay     float64
	FailureBackoff   time.Duration
	ShutdownTimeout  time.Duration
}

// DefaultTreeConfig returns suture's built-in defaults.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// Tree manages the service supervision hierarchy.
type Tree struct {
	root       *suture.Supervisor
	serving    *suture.Supervisor
	background *suture.Supervisor
	logger     *slog.Logger
}

// NewTree creates the supervision tree.
func NewTree(logger *slog.Logger, cfg TreeConfig) *Tree {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5.0
	}
	if cfg.FailureDecay == 0 {
		cfg.FailureDecay = 30.0
	}
	if cfg.FailureBackoff == 0 {
		cfg.FailureBackoff = 15 * time.Second
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	// sutureslog's hook carries supervisor lifecycle events into the
	// structured log stream.
	handler := &sutureslog.Handler{Logger: logger}

	rootSpec := suture.Spec{
		EventHook:        handler.MustHook(),
		FailureThreshold: cfg.FailureThreshold,
		FailureDecay:     cfg.FailureDecay,
		FailureBackoff:   cfg.FailureBackoff,
		Timeout:          cfg.ShutdownTimeout,
	}
	childSpec := suture.Spec{
		FailureThreshold: cfg.FailureThreshold,
		FailureDecay:     cfg.FailureDecay,
		FailureBackoff:   cfg.FailureBackoff,
		Timeout:          cfg.ShutdownTimeout,
	}

	root := suture.New("friendrec", rootSpec)
	serving := suture.New("serving-layer", childSpec)
	background := suture.New("background-layer", childSpec)

	root.Add(serving)
	root.Add(background)

	return &Tree{
		root:       root,
		serving:    serving,
		background: background,
		logger:     logger,
	}
}

// AddServing registers a service in the serving layer.
func (t *Tree) AddServing(svc suture.Service) suture.ServiceToken {
	return t.serving.Add(svc)
}

// AddBackground registers a service in the background layer.
func (t *Tree) AddBackground(svc suture.Service) suture.ServiceToken {
	return t.background.Add(svc)
}

// Serve runs the tree until ctx is canceled, then shuts down children.
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}
