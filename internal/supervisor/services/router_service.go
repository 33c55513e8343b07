// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

package services

import (
	"context"
	"fmt"

	"github.com/thejerf/suture/v4"
)

// EventRouter is the part of the event processor the service drives.
type EventRouter interface {
	// Run blocks until ctx is canceled or the router is closed.
	Run(ctx context.Context) error
	Close() error
}

// EventRouterService runs the Watermill router under suture. A Watermill
// router cannot run again once stopped; an unexpected exit returns
// suture.ErrDoNotRestart and readiness reports the router as down.
type EventRouterService struct {
	router EventRouter
	name   string
}

// NewEventRouterService creates the service.
func NewEventRouterService(router EventRouter) *EventRouterService {
	return &EventRouterService{
		router: router,
		name:   "event-router",
	}
}

// Serve implements suture.Service.
func (s *EventRouterService) Serve(ctx context.Context) error {
	err := s.router.Run(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("event router stopped: %w: %w", err, suture.ErrDoNotRestart)
	}
	return fmt.Errorf("event router stopped unexpectedly: %w", suture.ErrDoNotRestart)
}

// String implements fmt.Stringer.
func (s *EventRouterService) String() string {
	return s.name
}
