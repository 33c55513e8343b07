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

// ErrInvalidInteractionType is returned for anything other than VIEW, LIKE or SAVE.
var ErrInvalidInteractionType = errors.New("invalid interaction type")

// InteractionType classifies how an account engaged with a publication.
type InteractionType string

const (
	// InteractionView is recorded when a publication is opened.
	InteractionView InteractionType = "VIEW"

	// InteractionLike is an explicit positive signal.
	InteractionLike InteractionType = "LIKE"

	// InteractionSave adds the publication to the account's default collection.
	// Unlike views and likes, saves can be removed.
	InteractionSave InteractionType = "SAVE"
)

// AllInteractionTypes lists the supported types in weight order.
var AllInteractionTypes = []InteractionType{InteractionLike, InteractionSave, InteractionView}

// Valid reports whether t is a known interaction type.
func (t InteractionType) Valid() bool {
	switch t {
	case InteractionView, InteractionLike, InteractionSave:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer.
func (t InteractionType) String() string {
	return string(t)
}

// ParseInteractionType parses a case-insensitive interaction type name.
func ParseInteractionType(s string) (InteractionType, error) {
	t := InteractionType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidInteractionType, s)
	}
	return t, nil
}

// Interaction is one record of the interaction log.
type Interaction struct {
	AccountID     int64           `json:"account_id"`
	PublicationID int64           `json:"publication_id"`
	Type          InteractionType `json:"type"`
	CreatedAt     time.Time       `json:"created_at"`
}

// TopicInteraction is an interaction expanded through the publication→topic
// mapping. One interaction yields one row per topic of its publication.
type TopicInteraction struct {
	TopicID   int64
	Type      InteractionType
	CreatedAt time.Time
}
