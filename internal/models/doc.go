// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

/*
Package models defines the data structures shared by the storage, scoring and
HTTP layers.

Key Components:

  - Interaction: one VIEW, LIKE or SAVE record of the interaction log
  - Publication: catalog metadata read by the engine (status, publish date, topics)
  - TopicAffinity: an account's decayed interest in a topic
  - UserSimilarity: a directional similarity edge between two accounts
  - APIResponse: standardized HTTP response envelope

The interaction log and the catalog are owned by the surrounding application;
the engine owns the TopicAffinity and UserSimilarity tables.
*/
package models
