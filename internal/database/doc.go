// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

/*
Package database provides DuckDB storage for the affinity engine.

# Tables

  - interactions: append-only VIEW/LIKE/SAVE log (SAVE rows can be deleted)
  - publications: catalog slice (status, publish date)
  - publication_topics: publication to topic mapping
  - topic_affinities: derived per-account topic scores, PK (account_id, topic_id)
  - user_similarities: derived directional neighbours, PK (account_id, other_account_id)
  - schema_migrations: applied migration versions

# Interfaces

DB implements the persistence ports of the engine packages:

  - affinity.Store
  - similarity.Store
  - maintenance.Store
  - recommend.WriteStore and recommend.CandidateStore

All timestamps are written by the caller's clock as TIMESTAMP (UTC). The store
never calls CURRENT_TIMESTAMP so derived rows stay reproducible under test
clocks.

# Transactions

Multi-statement writes (affinity replacement, incremental changes, catalog
upserts, similarity batches) run in a single transaction. DuckDB uses
optimistic concurrency, so a transaction that loses a write-write race is
retried with a short exponential backoff.

# Usage

	db, err := database.New(&cfg.Database)
	if err != nil {
	    return err
	}
	defer db.Close()

	ids, err := db.ContentCandidates(ctx, accountID, 0.5, 20, 0)

# Metrics

Every query records metrics.DBQueryDuration and, on failure,
metrics.DBQueryErrors labelled by operation and table.
*/
package database
