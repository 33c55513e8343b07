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

// UpsertPublication handles PUT /api/v1/publications/{publicationID}
//
// @Summary Upsert a catalog entry
// @Description Sets status, publish date and topics. Topics are replaced, not merged.
// @Tags Publications
// @Accept json
// @Produce json
// @Param publicationID path int true "Publication ID"
// @Param request body validation.PublicationRequest true "Publication"
// @Success 200 {object} models.APIResponse{data=models.Publication}
// @Failure 400 {object} models.APIResponse
// @Router /publications/{publicationID} [put]
func (h *Handler) UpsertPublication(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	id, err := pathID(r, "publicationID")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
		return
	}

	var req validation.PublicationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ID = id
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidation(w, apiErr)
		return
	}
	status, err := models.ParsePublicationStatus(req.Status)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
		return
	}

	pub := models.Publication{
		ID:       req.ID,
		Status:   status,
		TopicIDs: req.TopicIDs,
	}
	if pub.TopicIDs == nil {
		pub.TopicIDs = []int64{}
	}
	if req.PublishedAt != nil {
		pub.PublishedAt = req.PublishedAt.UTC()
	}

	if err := h.engine.UpsertPublication(r.Context(), pub); err != nil {
		respondServiceError(w, r, err, ErrCodeDatabase)
		return
	}
	respondSuccess(w, http.StatusOK, pub, start)
}

// GetPublication handles GET /api/v1/publications/{publicationID}
func (h *Handler) GetPublication(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	id, err := pathID(r, "publicationID")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
		return
	}
	if id <= 0 {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "publicationID must be greater than 0", nil)
		return
	}

	pub, err := h.store.GetPublication(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err, ErrCodeDatabase)
		return
	}
	respondSuccess(w, http.StatusOK, pub, start)
}
