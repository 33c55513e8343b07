// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

package api

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/affinity/internal/database"
	"github.com/tomtom215/affinity/internal/eventprocessor"
	"github.com/tomtom215/affinity/internal/models"
	"github.com/tomtom215/affinity/internal/recommend"
)

// Engine is the recommendation facade the handlers call.
type Engine interface {
	RecordInteraction(ctx context.Context, accountID, publicationID int64, t models.InteractionType) error
	RemoveSave(ctx context.Context, accountID, publicationID int64) error
	RecalculateAffinities(ctx context.Context, accountID int64) error
	UpsertPublication(ctx context.Context, pub models.Publication) error
	GetSimilarUsers(ctx context.Context, accountID int64, limit int) ([]int64, error)
	GetRecommendations(ctx context.Context, accountID int64, strategy recommend.Strategy, limit, offset int) (recommend.Result, error)
	Stats() recommend.Stats
}

// Store is the read side of the database the handlers use directly.
type Store interface {
	GetPublication(ctx context.Context, id int64) (models.Publication, error)
	TopicAffinities(ctx context.Context, accountID int64) ([]models.TopicAffinity, error)
	GetRecordCounts(ctx context.Context) (database.RecordCounts, error)
	Ping(ctx context.Context) error
}

// EventStatus reports on the asynchronous job processor.
type EventStatus interface {
	IsRunning() bool
	Stats() eventprocessor.Stats
}

// Handler contains dependencies for API handlers
//
// Handler methods are split across files:
//   - handlers_interactions.go: interaction log and affinity jobs
//   - handlers_recommend.go: recommendations, similar accounts, affinities
//   - handlers_publications.go: catalog feed
//   - handlers_health.go: liveness, readiness, stats
type Handler struct {
	engine    Engine
	store     Store
	events    EventStatus
	version   string
	startTime time.Time
}

// NewHandler creates the API handler. events may be nil, in which case
// readiness does not depend on the job processor.
func NewHandler(engine Engine, store Store, events EventStatus, version string) (*Handler, error) {
	if engine == nil {
		return nil, errors.New("engine is required")
	}
	if store == nil {
		return nil, errors.New("store is required")
	}
	return &Handler{
		engine:    engine,
		store:     store,
		events:    events,
		version:   version,
		startTime: time.Now(),
	}, nil
}
