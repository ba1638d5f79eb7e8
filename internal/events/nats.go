// FriendRec - Friend Recommendation Scoring Engine
// Copyright 2026 CampusMatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusmatch/friendrec

package events

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
)

// NATSConfig holds JetStream subscriber settings.
type NATSConfig struct {
	URL         string
	DurableName string
	QueueGroup  string

	MaxReconnects  int
	ReconnectWait  time.Duration
	AckWaitTimeout time.Duration
	CloseTimeout   time.Duration
	MaxDeliver     int
	MaxAckPending  int
}

// DefaultNATSConfig returns production defaults for the given URL.
func DefaultNATSConfig(url, durableName, queueGroup string) NATSConfig {
	return NATSConfig{
		URL:            url,
		DurableName:    durableName,
		QueueGroup:     queueGroup,
		MaxReconnects:  -1, // retry forever
		ReconnectWait:  2 * time.Second,
		AckWaitTimeout: 30 * time.Second,
		CloseTimeout:   30 * time.Second,
		MaxDeliver:     5,
		MaxAckPending:  256,
	}
}

// NewNATSSubscriber creates a durable JetStream subscriber for the graph
// topics. Queue-group subscription load-balances across instances so an
// event invalidates each cache exactly once per deployment.
func NewNATSSubscriber(cfg NATSConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("nats url is required")
	}
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("Graph event subscriber disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("Graph event subscriber reconnected", watermill.LogFields{
				"url": nc.ConnectedUrl(),
			})
		}),
	}

	subOpts := []natsgo.SubOpt{
		natsgo.MaxDeliver(cfg.MaxDeliver),
		natsgo.MaxAckPending(cfg.MaxAckPending),
		natsgo.AckWait(cfg.AckWaitTimeout),
		// Old events predate the current cache contents only when the
		// service restarts with a warm persistent cache, so deliver new.
		natsgo.DeliverNew(),
	}

	wmConfig := wmNats.SubscriberConfig{
		URL:              cfg.URL,
		QueueGroupPrefix: cfg.QueueGroup,
		SubscribersCount: 1,
		AckWaitTimeout:   cfg.AckWaitTimeout,
		CloseTimeout:     cfg.CloseTimeout,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:         false,
			AutoProvision:    true,
			AckAsync:         false,
			SubscribeOptions: subOpts,
			DurablePrefix:    cfg.DurableName,
		},
	}

	sub, err := wmNats.NewSubscriber(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create nats subscriber: %w", err)
	}
	return sub, nil
}
