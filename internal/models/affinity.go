// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

package models

import "time"

// TopicAffinity is an account's decayed interest in one topic.
// Unique per (AccountID, TopicID).
type TopicAffinity struct {
	AccountID   int64     `json:"account_id"`
	TopicID     int64     `json:"topic_id"`
	Score       float64   `json:"score"`
	LastUpdated time.Time `json:"last_updated"`
}

// UserSimilarity is a directional similarity edge computed for AccountID.
type UserSimilarity struct {
	AccountID      int64     `json:"account_id"`
	OtherAccountID int64     `json:"other_account_id"`
	Score          float64   `json:"similarity_score"`
	CalculatedAt   time.Time `json:"calculated_at"`
}
