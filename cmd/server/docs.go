// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

// @title Affinity API
// @version 1.0
// @description Topic affinity scoring, user similarity and publication recommendations.
// @description
// @description ## Rate Limiting
// @description
// @description Default rate limit: 600 requests per minute per client IP, half of that for write endpoints.
// @description Health endpoints are not rate limited.
// @description
// @description ## Error Responses
// @description
// @description All error responses follow this format:
// @description ```json
// @description {
// @description   "status": "error",
// @description   "data": null,
// @description   "error": {
// @description     "code": "VALIDATION_ERROR",
// @description     "message": "Human-readable error message",
// @description     "details": {}
// @description   },
// @description   "metadata": {
// @description     "timestamp": "2026-01-18T12:34:56Z"
// @description   }
// @description }
// @description ```
//
// @contact.name GitHub Repository
// @contact.url https://github.com/tomtom215/affinity/issues
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
//
// @tag.name Core
// @tag.description Health checks and statistics
//
// @tag.name Interactions
// @tag.description Recording and removing account interactions, affinity recalculation
//
// @tag.name Publications
// @tag.description Publication catalog and topic mappings
//
// @tag.name Recommendations
// @tag.description Recommendations, similar accounts and topic affinities
package main
