// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

package eventprocessor

import (
	"errors"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Transport names reported in Stats.
const (
	TransportGoChannel = "gochannel"
	TransportNATS      = "nats"
)

// transport is the pub/sub pair the dispatcher and router run on.
type transport struct {
	name       string
	publisher  message.Publisher
	subscriber message.Subscriber

	// closers run last-in first-out.
	closers []func() error
}

func (t *transport) Close() error {
	var errs []error
	for i := len(t.closers) - 1; i >= 0; i-- {
		errs = append(errs, t.closers[i]())
	}
	t.closers = nil
	return errors.Join(errs...)
}

// newGoChannelTransport returns the in-process transport. Jobs are lost on
// restart and messages published before a subscriber exists are dropped.
func newGoChannelTransport(cfg Config, logger watermill.LoggerAdapter) *transport {
	pubSub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: cfg.OutputBuffer,
	}, logger)
	return &transport{
		name:       TransportGoChannel,
		publisher:  pubSub,
		subscriber: pubSub,
		closers:    []func() error{pubSub.Close},
	}
}
