// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

package eventprocessor

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/affinity/internal/logging"
	"github.com/tomtom215/affinity/internal/metrics"
)

// Dispatcher publishes affinity jobs and returns without waiting for them.
// It is the engine's dispatch port.
type Dispatcher struct {
	publisher  message.Publisher
	serializer *Serializer
	logger     zerolog.Logger
	now        func() time.Time

	published atomic.Int64
	failed    atomic.Int64
}

// NewDispatcher creates a dispatcher publishing on publisher.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewDispatcher(publisher message.Publisher, logger zerolog.Logger) (*Dispatcher, error) {
	if publisher == nil {
		return nil, ErrNilPublisher
	}
	return &Dispatcher{
		publisher:  publisher,
		serializer: NewSerializer(),
		logger:     logger.With().Str("component", "dispatcher").Logger(),
		now:        time.Now,
	}, nil
}

// DispatchRefresh queues a refresh of the account's affinities on the
// publication's topics.
func (d *Dispatcher) DispatchRefresh(ctx context.Context, accountID, publicationID int64) error {
	return d.publish(ctx, &RefreshEvent{
		SchemaVersion: SchemaVersion,
		AccountID:     accountID,
		PublicationID: publicationID,
		RequestedAt:   d.now().UTC(),
	})
}

// DispatchRebuild queues a full rebuild of the account's affinities.
func (d *Dispatcher) DispatchRebuild(ctx context.Context, accountID int64) error {
	return d.publish(ctx, &RebuildEvent{
		SchemaVersion: SchemaVersion,
		AccountID:     accountID,
		RequestedAt:   d.now().UTC(),
	})
}

func (d *Dispatcher) publish(ctx context.Context, event Event) (err error) {
	topic := event.Topic()
	defer func() {
		metrics.RecordEventPublished(topic, err)
		if err != nil {
			d.failed.Add(1)
		} else {
			d.published.Add(1)
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := d.serializer.Marshal(event)
	if err != nil {
		return err
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	_, correlationID := logging.EnsureCorrelationID(ctx)
	middleware.SetCorrelationID(correlationID, msg)

	if err := d.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}

	d.logger.Debug().
		Str("topic", topic).
		Str("message_uuid", msg.UUID).
		Str("correlation_id", correlationID).
		Msg("Job dispatched")
	return nil
}

// DispatcherStats is a snapshot of dispatcher counters.
type DispatcherStats struct {
	Published int64 `json:"published"`
	Failed    int64 `json:"failed"`
}

// Stats returns the dispatcher counters.
func (d *Dispatcher) Stats() DispatcherStats {
	return DispatcherStats{Published: d.published.Load(), Failed: d.failed.Load()}
}
