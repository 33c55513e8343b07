// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/affinity/internal/models"
	"github.com/tomtom215/affinity/internal/validation"
)

// RecordInteraction handles POST /api/v1/interactions
//
// @Summary Record an interaction
// @Description Appends a VIEW, LIKE or SAVE and queues an incremental affinity refresh
// @Tags Interactions
// @Accept json
// @Produce json
// @Param request body validation.InteractionRequest true "Interaction"
// @Success 202 {object} models.APIResponse{data=models.AcceptedResponse}
// @Failure 400 {object} models.APIResponse
// @Router /interactions [post]
func (h *Handler) RecordInteraction(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req validation.InteractionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidation(w, apiErr)
		return
	}
	interactionType, err := models.ParseInteractionType(req.Type)
	if err != nil {
		respondServiceError(w, r, err, ErrCodeDatabase)
		return
	}

	if err := h.engine.RecordInteraction(r.Context(), req.AccountID, req.PublicationID, interactionType); err != nil {
		respondServiceError(w, r, err, ErrCodeDatabase)
		return
	}
	respondSuccess(w, http.StatusAccepted, models.AcceptedResponse{Status: "accepted", Job: "affinity_refresh"}, start)
}

// RemoveSave handles DELETE /api/v1/accounts/{accountID}/saves/{publicationID}
//
// Removing a save that does not exist is not an error.
func (h *Handler) RemoveSave(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req validation.SavePath
	var err error
	if req.AccountID, err = pathID(r, "accountID"); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
		return
	}
	if req.PublicationID, err = pathID(r, "publicationID"); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidation(w, apiErr)
		return
	}

	if err := h.engine.RemoveSave(r.Context(), req.AccountID, req.PublicationID); err != nil {
		respondServiceError(w, r, err, ErrCodeDatabase)
		return
	}
	respondSuccess(w, http.StatusAccepted, models.AcceptedResponse{Status: "accepted", Job: "affinity_refresh"}, start)
}

// RecalculateAffinities handles POST /api/v1/accounts/{accountID}/affinities/recalculate
//
// @Summary Queue a full affinity rebuild
// @Tags Interactions
// @Produce json
// @Param accountID path int true "Account ID"
// @Success 202 {object} models.APIResponse{data=models.AcceptedResponse}
// @Failure 503 {object} models.APIResponse "QUEUE_ERROR"
// @Router /accounts/{accountID}/affinities/recalculate [post]
func (h *Handler) RecalculateAffinities(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	accountID, ok := h.accountPath(w, r)
	if !ok {
		return
	}

	if err := h.engine.RecalculateAffinities(r.Context(), accountID); err != nil {
		respondServiceError(w, r, err, ErrCodeQueue)
		return
	}
	respondSuccess(w, http.StatusAccepted, models.AcceptedResponse{Status: "accepted", Job: "affinity_rebuild"}, start)
}

// accountPath parses and validates {accountID}. On failure the response has
// been written.
func (h *Handler) accountPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := pathID(r, "accountID")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
		return 0, false
	}
	req := validation.AccountPath{AccountID: id}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidation(w, apiErr)
		return 0, false
	}
	return id, true
}
