// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

// Package eventprocessor runs the asynchronous affinity jobs dispatched by the
// recommendation engine on Watermill.
//
// # Topics
//
//   - affinity.refresh: {account_id, publication_id}. Refreshes the account's
//     affinity on every topic of the publication.
//   - affinity.rebuild: {account_id}. Rebuilds all affinities of the account.
//   - affinity.poison: messages that still fail after every retry.
//
// # Flow
//
//	Engine.RecordInteraction
//	    -> Dispatcher.DispatchRefresh (publish, return)
//	    -> transport (gochannel or NATS JetStream)
//	    -> Router (PoisonQueue, Throttle, Retry, Recoverer)
//	    -> Handlers.HandleRefresh -> affinity.Calculator.Update
//
// Payloads are JSON (goccy/go-json) and validated before publishing. Every
// message carries a correlation id in its metadata; handlers copy it into the
// logging context so a job's log lines join the request that caused it.
//
// # Transports
//
// The default gochannel transport is in-process: queued jobs are lost on
// restart. Built with -tags nats and with NATS.Enabled, jobs go through a
// JetStream work-queue stream (embedded server or external URL) with one
// durable consumer per topic, so unacked jobs are redelivered after a
// restart. Enabling NATS in a build without the tag fails with
// ErrNATSUnavailable.
//
// Jobs recompute affinities from stored interactions, so redelivery of the
// same message is harmless.
//
// # Usage
//
//	proc, err := eventprocessor.NewProcessor(cfg, calculator, logger)
//	engine, err := recommend.NewEngine(recommend.Dependencies{Dispatcher: proc.Dispatcher(), ...}, ...)
//	go proc.Run(ctx)
//	<-proc.Running()
package eventprocessor
