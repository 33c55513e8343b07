// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/affinity/internal/database"
	"github.com/tomtom215/affinity/internal/eventprocessor"
	"github.com/tomtom215/affinity/internal/models"
	"github.com/tomtom215/affinity/internal/recommend"
)

const readinessTimeout = 2 * time.Second

// LiveStatus is the liveness payload.
type LiveStatus struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// ReadyStatus is the readiness payload.
type ReadyStatus struct {
	Status         string `json:"status"`
	Database       bool   `json:"database"`
	EventProcessor bool   `json:"event_processor"`
}

// StatsResponse is the payload of GET /api/v1/stats.
type StatsResponse struct {
	Records database.RecordCounts `json:"records"`
	Engine  recommend.Stats       `json:"engine"`
	Events  *eventprocessor.Stats `json:"events,omitempty"`
}

// HealthLive handles GET /api/v1/health/live. It answers 200 while the
// process can serve HTTP.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: LiveStatus{
			Status:        "alive",
			Version:       h.version,
			UptimeSeconds: time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	})
}

// HealthReady handles GET /api/v1/health/ready. It answers 503 until the
// database answers a ping and the event router is running.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	status := ReadyStatus{
		Database:       h.store.Ping(ctx) == nil,
		EventProcessor: h.events == nil || h.events.IsRunning(),
	}

	code := http.StatusOK
	status.Status = "ready"
	if !status.Database || !status.EventProcessor {
		code = http.StatusServiceUnavailable
		status.Status = "not_ready"
	}

	respondJSON(w, code, &models.APIResponse{
		Status:   "success",
		Data:     status,
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	})
}

// Stats handles GET /api/v1/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	counts, err := h.store.GetRecordCounts(r.Context())
	if err != nil {
		respondServiceError(w, r, err, ErrCodeDatabase)
		return
	}

	resp := StatsResponse{
		Records: counts,
		Engine:  h.engine.Stats(),
	}
	if h.events != nil {
		stats := h.events.Stats()
		resp.Events = &stats
	}
	respondSuccess(w, http.StatusOK, resp, start)
}
