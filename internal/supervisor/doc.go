// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

/*
Package supervisor runs the process as a suture v4 supervision tree.

# Layers

	affinity (root)
	├── jobs-layer       services.JobService: similarity batch, affinity batch, maintenance
	├── messaging-layer  services.EventRouterService: the Watermill router
	└── api-layer        services.HTTPServerService: the chi HTTP server

Each layer is its own supervisor with the same failure budget
(FailureThreshold failures decaying every FailureDecay seconds, then
FailureBackoff). Supervisor events are logged through sutureslog and the
zerolog slog adapter.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddJobService(services.NewJobService(similarityJob, jobCfg, logger))
	tree.AddMessagingService(services.NewEventRouterService(processor))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	errCh := tree.ServeBackground(ctx)
	<-ctx.Done()
	<-errCh

After shutdown, UnstoppedServiceReport names services that ignored the
shutdown timeout.
*/
package supervisor
