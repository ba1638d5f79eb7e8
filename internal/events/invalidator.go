// FriendRec - Friend Recommendation Scoring Engine
// Copyright 2026 CampusMatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusmatch/friendrec

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/goccy/go-json"

	"github.com/campusmatch/friendrec/internal/metrics"
	"github.com/campusmatch/friendrec/internal/recommend"
)

// Topics carrying social-graph mutations.
const (
	TopicConnectionCreated = "social.connection.created"
	TopicConnectionRemoved = "social.connection.removed"
	TopicUserBlocked       = "social.user.blocked"
)

// ConnectionEvent is the payload for connection created/removed events.
type ConnectionEvent struct {
	UserID   string `json:"user_id"`
	TargetID string `json:"target_id"`
}

// BlockEvent is the payload for user block events.
type BlockEvent struct {
	UserID    string `json:"user_id"`
	BlockedID string `json:"blocked_id"`
}

// Invalidator routes graph events to cache invalidations.
type Invalidator struct {
	router *message.Router
	cache  recommend.ResultCache
	logger watermill.LoggerAdapter
}

// InvalidatorConfig tunes the router middleware.
type InvalidatorConfig struct {
	// CloseTimeout is how long to wait for in-flight handlers on shutdown.
	CloseTimeout time.Duration

	// RetryMaxRetries bounds redelivery attempts before giving up.
	RetryMaxRetries int

	// RetryInitialInterval is the first retry backoff step.
	RetryInitialInterval time.Duration
}

// DefaultInvalidatorConfig returns production defaults.
func DefaultInvalidatorConfig() InvalidatorConfig {
	return InvalidatorConfig{
		CloseTimeout:         30 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: 100 * time.Millisecond,
	}
}

// NewInvalidator builds the router and registers one handler per topic.
func NewInvalidator(
	subscriber message.Subscriber,
	cache recommend.ResultCache,
	cfg InvalidatorConfig,
	logger watermill.LoggerAdapter,
) (*Invalidator, error) {
	if subscriber == nil {
		return nil, fmt.Errorf("subscriber is required")
	}
	if cache == nil {
		return nil, fmt.Errorf("cache is required")
	}
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = 30 * time.Second
	}

	router, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: cfg.CloseTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create router: %w", err)
	}

	// Shutdown is owned by the supervisor's context, not a signal plugin.
	router.AddMiddleware(middleware.Recoverer)
	if cfg.RetryMaxRetries > 0 {
		router.AddMiddleware(middleware.Retry{
			MaxRetries:      cfg.RetryMaxRetries,
			InitialInterval: cfg.RetryInitialInterval,
			Logger:          logger,
		}.Middleware)
	}

	inv := &Invalidator{router: router, cache: cache, logger: logger}

	router.AddNoPublisherHandler(
		"invalidate-connection-created",
		TopicConnectionCreated,
		subscriber,
		inv.handleConnection(TopicConnectionCreated),
	)
	router.AddNoPublisherHandler(
		"invalidate-connection-removed",
		TopicConnectionRemoved,
		subscriber,
		inv.handleConnection(TopicConnectionRemoved),
	)
	router.AddNoPublisherHandler(
		"invalidate-user-blocked",
		TopicUserBlocked,
		subscriber,
		inv.handleBlock,
	)

	return inv, nil
}

// Run starts the router and blocks until ctx is canceled.
func (inv *Invalidator) Run(ctx context.Context) error {
	return inv.router.Run(ctx)
}

// Running returns a channel closed once all handlers are started.
func (inv *Invalidator) Running() chan struct{} {
	return inv.router.Running()
}

// Close stops the router and waits up to CloseTimeout for handlers.
func (inv *Invalidator) Close() error {
	return inv.router.Close()
}

func (inv *Invalidator) handleConnection(topic string) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		var ev ConnectionEvent
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			// Malformed payloads are acked, not retried: redelivery
			// cannot fix them.
			metrics.GraphEventsProcessed.WithLabelValues(topic, "malformed").Inc()
			inv.logger.Error("Malformed connection event", err, watermill.LogFields{
				"topic":        topic,
				"message_uuid": msg.UUID,
			})
			return nil
		}
		if ev.UserID == "" || ev.TargetID == "" {
			metrics.GraphEventsProcessed.WithLabelValues(topic, "malformed").Inc()
			return nil
		}

		if err := inv.invalidatePair(msg.Context(), topic, ev.UserID, ev.TargetID); err != nil {
			metrics.GraphEventsProcessed.WithLabelValues(topic, "error").Inc()
			return err
		}
		metrics.GraphEventsProcessed.WithLabelValues(topic, "ok").Inc()
		return nil
	}
}

func (inv *Invalidator) handleBlock(msg *message.Message) error {
	var ev BlockEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		metrics.GraphEventsProcessed.WithLabelValues(TopicUserBlocked, "malformed").Inc()
		inv.logger.Error("Malformed block event", err, watermill.LogFields{
			"message_uuid": msg.UUID,
		})
		return nil
	}
	if ev.UserID == "" || ev.BlockedID == "" {
		metrics.GraphEventsProcessed.WithLabelValues(TopicUserBlocked, "malformed").Inc()
		return nil
	}

	if err := inv.invalidatePair(msg.Context(), TopicUserBlocked, ev.UserID, ev.BlockedID); err != nil {
		metrics.GraphEventsProcessed.WithLabelValues(TopicUserBlocked, "error").Inc()
		return err
	}
	metrics.GraphEventsProcessed.WithLabelValues(TopicUserBlocked, "ok").Inc()
	return nil
}

// invalidatePair drops cached results for both sides of a graph edge.
// Each edge changes what both users should be recommended.
func (inv *Invalidator) invalidatePair(ctx context.Context, topic, a, b string) error {
	for _, userID := range []string{a, b} {
		if err := inv.cache.InvalidateUser(ctx, userID); err != nil {
			return fmt.Errorf("invalidate user %s: %w", userID, err)
		}
		metrics.CacheInvalidations.WithLabelValues("event").Inc()
	}
	inv.logger.Debug("Invalidated cached recommendations", watermill.LogFields{
		"topic":  topic,
		"user_a": a,
		"user_b": b,
	})
	return nil
}
