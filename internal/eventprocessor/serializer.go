// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

package eventprocessor

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Serializer encodes job payloads.
type Serializer struct{}

// NewSerializer creates a new serializer.
func NewSerializer() *Serializer {
	return &Serializer{}
}

// Marshal validates and encodes event.
func (s *Serializer) Marshal(event Event) ([]byte, error) {
	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("validate event: %w", err)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

// Unmarshal decodes data into event and validates the result. Malformed
// payloads wrap ErrInvalidEvent.
func (s *Serializer) Unmarshal(data []byte, event Event) error {
	if err := json.Unmarshal(data, event); err != nil {
		return fmt.Errorf("%w: unmarshal event: %v", ErrInvalidEvent, err)
	}
	return event.Validate()
}
