// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

package validation

import "time"

// InteractionRequest is the body of POST /api/v1/interactions.
type InteractionRequest struct {
	AccountID     int64  `json:"account_id" validate:"required,gt=0"`
	PublicationID int64  `json:"publication_id" validate:"required,gt=0"`
	Type          string `json:"type" validate:"required,oneof=VIEW LIKE SAVE view like save"`
}

// PublicationRequest is the body of PUT /api/v1/publications/{publicationID}.
// The id comes from the path.
type PublicationRequest struct {
	ID          int64      `json:"-" validate:"gt=0"`
	Status      string     `json:"status" validate:"required,oneof=DRAFT PUBLISHED ARCHIVED draft published archived"`
	PublishedAt *time.Time `json:"published_at"`
	TopicIDs    []int64    `json:"topic_ids" validate:"max=200,dive,gt=0"`
}

// AccountPath carries an account id parsed from the URL.
type AccountPath struct {
	AccountID int64 `json:"account_id" validate:"gt=0"`
}

// SavePath carries the ids of DELETE /accounts/{accountID}/saves/{publicationID}.
type SavePath struct {
	AccountID     int64 `json:"account_id" validate:"gt=0"`
	PublicationID int64 `json:"publication_id" validate:"gt=0"`
}

// RecommendationsQuery is GET /accounts/{accountID}/recommendations. Limit
// and offset are clamped by the engine rather than rejected.
type RecommendationsQuery struct {
	AccountID int64  `json:"account_id" validate:"gt=0"`
	Strategy  string `json:"strategy" validate:"omitempty,oneof=content collaborative hybrid popularity hybridWithFallback"`
	Limit     int    `json:"limit"`
	Offset    int    `json:"offset"`
}

// SimilarQuery is GET /accounts/{accountID}/similar.
type SimilarQuery struct {
	AccountID int64 `json:"account_id" validate:"gt=0"`
	Limit     int   `json:"limit"`
}
