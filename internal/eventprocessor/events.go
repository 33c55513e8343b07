// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

package eventprocessor

import (
	"fmt"
	"time"
)

// Topics.
const (
	TopicRefresh = "affinity.refresh"
	TopicRebuild = "affinity.rebuild"
	TopicPoison  = "affinity.poison"
)

// SchemaVersion is written into every payload.
const SchemaVersion = 1

// Event is a job payload.
type Event interface {
	Topic() string
	Validate() error
}

// RefreshEvent asks for the account's affinities on one publication's topics
// to be recomputed.
type RefreshEvent struct {
	SchemaVersion int       `json:"schema_version"`
	AccountID     int64     `json:"account_id"`
	PublicationID int64     `json:"publication_id"`
	RequestedAt   time.Time `json:"requested_at"`
}

// Topic implements Event.
func (e *RefreshEvent) Topic() string { return TopicRefresh }

// Validate implements Event.
func (e *RefreshEvent) Validate() error {
	if e.SchemaVersion != SchemaVersion {
		return fmt.Errorf("%w: unsupported schema version %d", ErrInvalidEvent, e.SchemaVersion)
	}
	if e.AccountID <= 0 {
		return fmt.Errorf("%w: account_id must be positive", ErrInvalidEvent)
	}
	if e.PublicationID <= 0 {
		return fmt.Errorf("%w: publication_id must be positive", ErrInvalidEvent)
	}
	return nil
}

// RebuildEvent asks for all of an account's affinities to be recomputed.
type RebuildEvent struct {
	SchemaVersion int       `json:"schema_version"`
	AccountID     int64     `json:"account_id"`
	RequestedAt   time.Time `json:"requested_at"`
}

// Topic implements Event.
func (e *RebuildEvent) Topic() string { return TopicRebuild }

// Validate implements Event.
func (e *RebuildEvent) Validate() error {
	if e.SchemaVersion != SchemaVersion {
		return fmt.Errorf("%w: unsupported schema version %d", ErrInvalidEvent, e.SchemaVersion)
	}
	if e.AccountID <= 0 {
		return fmt.Errorf("%w: account_id must be positive", ErrInvalidEvent)
	}
	return nil
}
