// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

// Package logging provides the zerolog-based structured logging shared by
// every Affinity component.
//
// # Overview
//
//   - A global logger configured once from main via Init
//   - Context helpers carrying correlation and request ids (google/uuid)
//   - An slog.Handler so sutureslog writes into the same stream
//   - A watermill.LoggerAdapter for the event router and pub/sub
//
// # Usage
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	logger := logging.WithComponent("similarity")
//	logger.Info().Int("accounts", n).Msg("Similarity batch finished")
//
//	logging.Ctx(ctx).Warn().Err(err).Msg("Serving popularity fallback")
//
// Components receive a zerolog.Logger by value and derive children with
// logger.With().Str("component", ...). Tests pass zerolog.Nop().
//
// # Levels
//
// trace, debug, info, warn, error and disabled. Unknown names fall back to
// info; config validation rejects them before Init is reached.
package logging
