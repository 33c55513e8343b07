// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

// Package affinity maintains per-account topic affinity vectors.
//
// Calculator offers a full Rebuild of one account, an incremental Update that
// recomputes only the topics of one publication, and a throttled RebuildAll
// batch. Writers for one account hold a per-account mutex; different accounts
// proceed in parallel.
package affinity
