// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/affinity/internal/models"
	"github.com/tomtom215/affinity/internal/recommend"
	"github.com/tomtom215/affinity/internal/validation"
)

// Recommendations handles GET /api/v1/accounts/{accountID}/recommendations
//
// @Summary Get recommendations
// @Description Returns publication ids for the account. Personalized strategies degrade to popularity on error, timeout or an open circuit breaker; metadata.fallback is then true.
// @Tags Recommendations
// @Produce json
// @Param accountID path int true "Account ID"
// @Param strategy query string false "content, collaborative, hybrid, popularity or hybridWithFallback (default)"
// @Param limit query int false "Page size (default 20, max 100)"
// @Param offset query int false "Offset (max 1000)"
// @Success 200 {object} models.APIResponse{data=models.RecommendationsResponse}
// @Failure 400 {object} models.APIResponse
// @Router /accounts/{accountID}/recommendations [get]
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	accountID, err := pathID(r, "accountID")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
		return
	}
	strategy, err := recommend.ParseStrategy(r.URL.Query().Get("strategy"))
	if err != nil {
		respondServiceError(w, r, err, ErrCodeDatabase)
		return
	}
	q := validation.RecommendationsQuery{AccountID: accountID, Strategy: string(strategy)}
	if q.Limit, err = queryInt(r, "limit"); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
		return
	}
	if q.Offset, err = queryInt(r, "offset"); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
		return
	}
	if apiErr := validateRequest(&q); apiErr != nil {
		respondValidation(w, apiErr)
		return
	}

	result, err := h.engine.GetRecommendations(r.Context(), q.AccountID, strategy, q.Limit, q.Offset)
	if err != nil {
		respondServiceError(w, r, err, ErrCodeDatabase)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: models.RecommendationsResponse{
			AccountID:      q.AccountID,
			Strategy:       string(result.Requested),
			ServedStrategy: string(result.Served),
			Limit:          result.Limit,
			Offset:         result.Offset,
			PublicationIDs: nonNilIDs(result.PublicationIDs),
		},
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: time.Since(start).Milliseconds(),
			Fallback:    result.Fallback(),
		},
	})
}

// SimilarUsers handles GET /api/v1/accounts/{accountID}/similar
func (h *Handler) SimilarUsers(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	accountID, err := pathID(r, "accountID")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
		return
	}
	q := validation.SimilarQuery{AccountID: accountID}
	if q.Limit, err = queryInt(r, "limit"); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
		return
	}
	if apiErr := validateRequest(&q); apiErr != nil {
		respondValidation(w, apiErr)
		return
	}

	ids, err := h.engine.GetSimilarUsers(r.Context(), q.AccountID, q.Limit)
	if err != nil {
		respondServiceError(w, r, err, ErrCodeDatabase)
		return
	}
	respondSuccess(w, http.StatusOK, models.SimilarUsersResponse{
		AccountID:  q.AccountID,
		AccountIDs: nonNilIDs(ids),
	}, start)
}

// Affinities handles GET /api/v1/accounts/{accountID}/affinities
func (h *Handler) Affinities(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	accountID, ok := h.accountPath(w, r)
	if !ok {
		return
	}

	affinities, err := h.store.TopicAffinities(r.Context(), accountID)
	if err != nil {
		respondServiceError(w, r, err, ErrCodeDatabase)
		return
	}
	if affinities == nil {
		affinities = []models.TopicAffinity{}
	}
	respondSuccess(w, http.StatusOK, affinities, start)
}

func nonNilIDs(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
