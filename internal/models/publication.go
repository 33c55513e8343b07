// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrPublicationNotFound is returned when a publication id is unknown to the catalog.
var ErrPublicationNotFound = errors.New("publication not found")

// PublicationStatus is the lifecycle state of a publication.
type PublicationStatus string

const (
	StatusDraft     PublicationStatus = "DRAFT"
	StatusPublished PublicationStatus = "PUBLISHED"
	StatusArchived  PublicationStatus = "ARCHIVED"
)

// Valid reports whether s is a known status.
func (s PublicationStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	default:
		return false
	}
}

// ParsePublicationStatus parses a case-insensitive status name.
func ParsePublicationStatus(s string) (PublicationStatus, error) {
	st := PublicationStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("invalid publication status %q", s)
	}
	return st, nil
}

// Publication is the slice of catalog metadata the engine reads.
type Publication struct {
	ID          int64             `json:"id"`
	Status      PublicationStatus `json:"status"`
	PublishedAt time.Time         `json:"published_at"`
	TopicIDs    []int64           `json:"topic_ids"`
}

// ScoredPublication is a ranking candidate.
type ScoredPublication struct {
	PublicationID int64
	Score         float64
	PublishedAt   time.Time
}
