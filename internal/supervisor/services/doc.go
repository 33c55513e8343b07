// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

// Package services adapts long-running components to suture.Service.
//
//   - HTTPServerService: ListenAndServe with graceful Shutdown
//   - EventRouterService: the Watermill router of the event processor
//   - JobService: a function run on a fixed interval (similarity batch,
//     affinity batch, retention cleanup)
//
// Every service returns ctx.Err() when its context is canceled and
// implements fmt.Stringer so supervisor logs name it.
package services
