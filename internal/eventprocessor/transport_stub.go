// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

//go:build !nats

package eventprocessor

import (
	"github.com/ThreeDotsLabs/watermill"
)

// NATSAvailable reports whether the binary was built with -tags nats.
const NATSAvailable = false

func newTransport(cfg Config, logger watermill.LoggerAdapter) (*transport, error) {
	if cfg.NATS.Enabled {
		return nil, ErrNATSUnavailable
	}
	return newGoChannelTransport(cfg, logger), nil
}
