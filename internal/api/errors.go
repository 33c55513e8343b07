// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/affinity/internal/models"
	"github.com/tomtom215/affinity/internal/recommend"
)

// Error codes for API responses
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeDatabase           = "DATABASE_ERROR"
	ErrCodeQueue              = "QUEUE_ERROR"
	ErrCodeTimeout            = "TIMEOUT"
	ErrCodePayloadTooLarge    = "PAYLOAD_TOO_LARGE"
	ErrCodeTooManyRequests    = "TOO_MANY_REQUESTS"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// respondServiceError maps an engine or store error onto status and code.
// Errors that match no sentinel are reported with fallbackCode.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error, fallbackCode string) {
	switch {
	case errors.Is(err, recommend.ErrInvalidID),
		errors.Is(err, recommend.ErrInvalidStrategy),
		errors.Is(err, models.ErrInvalidInteractionType):
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
	case errors.Is(err, models.ErrPublicationNotFound):
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Publication not found", nil)
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, r, http.StatusGatewayTimeout, ErrCodeTimeout, "Request timed out", err)
	case errors.Is(err, context.Canceled):
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Request cancelled", err)
	default:
		status := http.StatusInternalServerError
		message := "Failed to query database"
		if fallbackCode == ErrCodeQueue {
			status = http.StatusServiceUnavailable
			message = "Failed to queue job"
		}
		respondError(w, r, status, fallbackCode, message, err)
	}
}
