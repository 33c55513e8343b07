// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

/*
Package main is the entry point for the Affinity server.

Affinity records how accounts interact with publications (views, likes,
saves), turns those interactions into decayed per-topic interest scores,
derives account-to-account similarity from them and serves content,
collaborative, popularity and hybrid recommendations over HTTP.

# Application Architecture

The server runs under a Suture v4 supervision tree:

	RootSupervisor ("affinity")
	├── JobsSupervisor ("jobs-layer")
	│   ├── similarity-batch   (cosine similarity for every active account)
	│   ├── affinity-batch     (full affinity rebuild, optional)
	│   └── maintenance        (retention cleanup)
	├── MessagingSupervisor ("messaging-layer")
	│   └── event-router       (Watermill router for affinity jobs)
	└── APISupervisor ("api-layer")
	    └── http-server        (Chi router)

Component initialization order:

 1. Configuration: Koanf v2 with defaults, YAML file and environment
 2. Logging: zerolog with JSON/console output modes
 3. Database: DuckDB with versioned migrations
 4. Calculators: affinity, similarity and maintenance
 5. Event processor: Watermill GoChannel pub/sub with retry and poison queue
 6. Engine: recommendation facade with circuit breaker and fallback
 7. HTTP: Chi router with rate limiting, CORS and Prometheus metrics
 8. Supervisor tree: everything above that runs in the background

# Signal Handling

SIGINT and SIGTERM cancel the root context. The tree stops the HTTP server
within its shutdown timeout, the event router drains in-flight
jobs and the database is closed last.

# Example Usage

	export DUCKDB_PATH=/data/affinity.duckdb
	export LOG_LEVEL=debug
	export LOG_FORMAT=console
	./affinity

	curl -X POST localhost:8080/api/v1/interactions \
	  -d '{"account_id":1,"publication_id":42,"type":"LIKE"}'
	curl localhost:8080/api/v1/accounts/1/recommendations?strategy=hybrid&limit=10
*/
package main
