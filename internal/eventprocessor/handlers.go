// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/rs/zerolog"

	"github.com/tomtom215/affinity/internal/logging"
	"github.com/tomtom215/affinity/internal/metrics"
	"github.com/tomtom215/affinity/internal/recommend/affinity"
)

// AffinityCache is what the job handlers need from the affinity calculator.
type AffinityCache interface {
	affinity.Cache
	// Update refreshes the account's affinities on every topic of the
	// publication in one write.
	Update(ctx context.Context, accountID, publicationID int64) error
}

// Handlers process affinity jobs.
type Handlers struct {
	cache      AffinityCache
	serializer *Serializer
	timeout    time.Duration
	logger     zerolog.Logger

	processed atomic.Int64
	failed    atomic.Int64
	invalid   atomic.Int64
	poisoned  atomic.Int64
}

// NewHandlers creates job handlers. Each job attempt runs under jobTimeout.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewHandlers(cache AffinityCache, jobTimeout time.Duration, logger zerolog.Logger) (*Handlers, error) {
	if cache == nil {
		return nil, errors.New("affinity cache cannot be nil")
	}
	if jobTimeout <= 0 {
		return nil, fmt.Errorf("%w: job timeout must be positive", ErrInvalidConfig)
	}
	return &Handlers{
		cache:      cache,
		serializer: NewSerializer(),
		timeout:    jobTimeout,
		logger:     logger.With().Str("component", "affinity-jobs").Logger(),
	}, nil
}

// HandleRefresh processes an affinity.refresh message.
func (h *Handlers) HandleRefresh(msg *message.Message) error {
	var event RefreshEvent
	return h.handle(msg, TopicRefresh, &event, func(ctx context.Context) error {
		if err := h.cache.Update(ctx, event.AccountID, event.PublicationID); err != nil {
			return fmt.Errorf("refresh affinities of account %d for publication %d: %w",
				event.AccountID, event.PublicationID, err)
		}
		return nil
	})
}

// HandleRebuild processes an affinity.rebuild message.
func (h *Handlers) HandleRebuild(msg *message.Message) error {
	var event RebuildEvent
	return h.handle(msg, TopicRebuild, &event, func(ctx context.Context) error {
		if err := h.cache.Rebuild(ctx, event.AccountID); err != nil {
			return fmt.Errorf("rebuild affinities of account %d: %w", event.AccountID, err)
		}
		return nil
	})
}

// HandlePoison records a job that exhausted its retries. The job is dropped;
// the next interaction of the account or the affinity batch recomputes it.
func (h *Handlers) HandlePoison(msg *message.Message) error {
	h.poisoned.Add(1)
	ctx := h.jobContext(msg)
	logging.Ctx(ctx).Error().
		Str("message_uuid", msg.UUID).
		Str("topic", msg.Metadata.Get(middleware.PoisonedTopicKey)).
		Str("handler", msg.Metadata.Get(middleware.PoisonedHandlerKey)).
		Str("reason", msg.Metadata.Get(middleware.ReasonForPoisonedKey)).
		Msg("Affinity job abandoned after retries")
	metrics.RecordEventProcessed(TopicPoison, 0, nil)
	return nil
}

func (h *Handlers) handle(msg *message.Message, topic string, event Event, run func(ctx context.Context) error) error {
	start := time.Now()
	ctx := h.jobContext(msg)

	if err := h.serializer.Unmarshal(msg.Payload, event); err != nil {
		// Redelivery cannot fix a malformed payload.
		h.invalid.Add(1)
		metrics.RecordEventProcessed(topic, time.Since(start), err)
		logging.CtxErr(ctx, err).Str("message_uuid", msg.UUID).Str("topic", topic).Msg("Dropping malformed job")
		return nil
	}

	jobCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	err := run(jobCtx)
	metrics.RecordEventProcessed(topic, time.Since(start), err)
	if err != nil {
		h.failed.Add(1)
		logging.Ctx(ctx).Warn().Err(err).Str("message_uuid", msg.UUID).Str("topic", topic).Msg("Affinity job failed")
		return err
	}

	h.processed.Add(1)
	logging.Ctx(ctx).Debug().
		Str("topic", topic).
		Dur("duration", time.Since(start)).
		Msg("Affinity job processed")
	return nil
}

// jobContext derives the handler context carrying the message's correlation
// id and the handler logger.
func (h *Handlers) jobContext(msg *message.Message) context.Context {
	ctx := logging.ContextWithLogger(msg.Context(), h.logger)
	if id := middleware.MessageCorrelationID(msg); id != "" {
		ctx = logging.ContextWithCorrelationID(ctx, id)
	}
	return ctx
}

// HandlerStats is a snapshot of handler counters.
type HandlerStats struct {
	Processed int64 `json:"processed"`
	Failed    int64 `json:"failed"`
	Invalid   int64 `json:"invalid"`
	Poisoned  int64 `json:"poisoned"`
}

// Stats returns the handler counters. Failed counts attempts, so a retried
// job that finally succeeds is counted in both.
func (h *Handlers) Stats() HandlerStats {
	return HandlerStats{
		Processed: h.processed.Load(),
		Failed:    h.failed.Load(),
		Invalid:   h.invalid.Load(),
		Poisoned:  h.poisoned.Load(),
	}
}
