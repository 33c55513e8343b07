// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

package eventprocessor

import "errors"

// ErrInvalidEvent is returned when a job payload fails validation.
var ErrInvalidEvent = errors.New("invalid event")

// ErrNilPublisher is returned when a dispatcher is built without a publisher.
var ErrNilPublisher = errors.New("publisher cannot be nil")

// ErrInvalidConfig is returned when configuration is invalid.
var ErrInvalidConfig = errors.New("invalid configuration")

// ErrNATSUnavailable is returned when NATS is enabled in a build without the
// nats tag.
var ErrNATSUnavailable = errors.New("NATS transport not compiled in (build with -tags nats)")
