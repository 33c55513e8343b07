// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

package models

import (
	"time"
)

// APIResponse is the envelope returned by every HTTP endpoint.
//
// Status is "success" or "error". Error is only populated on failures.
//
//	{
//	  "status": "success",
//	  "data": {"account_id": 42, "strategy": "hybrid", "publication_ids": [7, 3, 9]},
//	  "metadata": {"timestamp": "2026-05-01T12:00:00Z", "query_time_ms": 12}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response timing information.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Fallback    bool      `json:"fallback,omitempty"`
}

// APIError is the structured error body.
//
// Common codes:
//   - VALIDATION_ERROR: invalid input parameters
//   - NOT_FOUND: unknown resource
//   - DATABASE_ERROR: storage failure
//   - QUEUE_ERROR: the job could not be dispatched
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// RecommendationsResponse is the payload of the recommendations endpoint.
type RecommendationsResponse struct {
	AccountID      int64   `json:"account_id"`
	Strategy       string  `json:"strategy"`
	ServedStrategy string  `json:"served_strategy"`
	Limit          int     `json:"limit"`
	Offset         int     `json:"offset"`
	PublicationIDs []int64 `json:"publication_ids"`
}

// SimilarUsersResponse is the payload of the similar-users endpoint.
type SimilarUsersResponse struct {
	AccountID  int64   `json:"account_id"`
	AccountIDs []int64 `json:"account_ids"`
}

// AcceptedResponse acknowledges an asynchronous job.
type AcceptedResponse struct {
	Status string `json:"status"`
	Job    string `json:"job"`
}
