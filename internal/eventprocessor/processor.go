// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

package eventprocessor

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/affinity/internal/logging"
)

// Handler names.
const (
	handlerRefresh = "affinity-refresh"
	handlerRebuild = "affinity-rebuild"
	handlerPoison  = "affinity-poison"
)

// Processor owns the transport, the router and its handlers.
type Processor struct {
	transport  *transport
	router     *Router
	handlers   *Handlers
	dispatcher *Dispatcher
	logger     zerolog.Logger
}

// NewProcessor wires the transport (gochannel, or JetStream when
// cfg.NATS.Enabled in a nats build), the job handlers and the router.
// Messages published before Run has subscribed the handlers are dropped by
// gochannel, so callers wait on Running before serving traffic.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewProcessor(cfg Config, cache AffinityCache, logger zerolog.Logger) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger = logger.With().Str("component", "eventprocessor").Logger()
	wmLogger := logging.NewWatermillAdapter(logger)

	handlers, err := NewHandlers(cache, cfg.JobTimeout, logger)
	if err != nil {
		return nil, err
	}

	tr, err := newTransport(cfg, wmLogger)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("transport", tr.name).Msg("Event transport ready")

	dispatcher, err := NewDispatcher(tr.publisher, logger)
	if err != nil {
		return nil, errors.Join(err, tr.Close())
	}

	router, err := NewRouter(cfg.Router, tr.publisher, wmLogger)
	if err != nil {
		return nil, errors.Join(err, tr.Close())
	}
	router.AddConsumerHandler(handlerRefresh, TopicRefresh, tr.subscriber, handlers.HandleRefresh)
	router.AddConsumerHandler(handlerRebuild, TopicRebuild, tr.subscriber, handlers.HandleRebuild)
	if cfg.Router.PoisonQueueTopic != "" {
		router.AddConsumerHandler(handlerPoison, cfg.Router.PoisonQueueTopic, tr.subscriber, handlers.HandlePoison)
	}

	return &Processor{
		transport:  tr,
		router:     router,
		handlers:   handlers,
		dispatcher: dispatcher,
		logger:     logger,
	}, nil
}

// Dispatcher returns the publisher side for the engine.
func (p *Processor) Dispatcher() *Dispatcher {
	return p.dispatcher
}

// Run starts the router and blocks until ctx is cancelled or Close is called.
func (p *Processor) Run(ctx context.Context) error {
	p.logger.Info().Strs("handlers", p.router.Handlers()).Msg("Event router starting")
	if err := p.router.Run(ctx); err != nil {
		return fmt.Errorf("event router: %w", err)
	}
	p.logger.Info().Msg("Event router stopped")
	return nil
}

// Running returns a channel closed once all handlers are subscribed.
func (p *Processor) Running() <-chan struct{} {
	return p.router.Running()
}

// IsRunning reports whether the router is active.
func (p *Processor) IsRunning() bool {
	return p.router.IsRunning()
}

// Close stops the router and then the transport.
func (p *Processor) Close() error {
	return errors.Join(p.router.Close(), p.transport.Close())
}

// Stats is a snapshot of processor counters.
type Stats struct {
	Running    bool            `json:"running"`
	Transport  string          `json:"transport"`
	Dispatcher DispatcherStats `json:"dispatcher"`
	Handlers   HandlerStats    `json:"handlers"`
}

// Stats returns the processor counters.
func (p *Processor) Stats() Stats {
	return Stats{
		Running:    p.IsRunning(),
		Transport:  p.transport.name,
		Dispatcher: p.dispatcher.Stats(),
		Handlers:   p.handlers.Stats(),
	}
}
