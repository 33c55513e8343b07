// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

/*
Package api serves the affinity and recommendation HTTP API on a chi router.

# Endpoints

	POST   /api/v1/interactions                              record VIEW, LIKE or SAVE
	DELETE /api/v1/accounts/{accountID}/saves/{publicationID} remove a save
	POST   /api/v1/accounts/{accountID}/affinities/recalculate queue a full rebuild
	GET    /api/v1/accounts/{accountID}/affinities           stored topic affinities
	GET    /api/v1/accounts/{accountID}/recommendations      ?strategy=&limit=&offset=
	GET    /api/v1/accounts/{accountID}/similar              ?limit=
	PUT    /api/v1/publications/{publicationID}              catalog upsert
	GET    /api/v1/publications/{publicationID}              catalog read
	GET    /api/v1/stats                                     table counts and engine counters
	GET    /api/v1/health/live                               liveness
	GET    /api/v1/health/ready                              readiness (database, event router)
	GET    /metrics                                          Prometheus

Every JSON response uses the models.APIResponse envelope. Errors carry one of
the codes declared in errors.go.

# Middleware

Global: request id, real IP, panic recovery, CORS. The /api/v1 group adds
rate limiting (go-chi/httprate), Prometheus request metrics, slow request
logging and a body size cap. Write endpoints get a stricter limiter.
*/
package api
