// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range getTableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

// getTableCreationQueries returns the table creation SQL statements
func getTableCreationQueries() []string {
	return []string{
		`CREATE SEQUENCE IF NOT EXISTS interactions_id_seq START 1;`,

		`CREATE TABLE IF NOT EXISTS interactions (
			id BIGINT PRIMARY KEY DEFAULT nextval('interactions_id_seq'),
			account_id BIGINT NOT NULL,
			publication_id BIGINT NOT NULL,
			type VARCHAR NOT NULL CHECK (type IN ('VIEW', 'LIKE', 'SAVE')),
			created_at TIMESTAMP NOT NULL
		);`,

		`CREATE TABLE IF NOT EXISTS publications (
			id BIGINT PRIMARY KEY,
			status VARCHAR NOT NULL CHECK (status IN ('DRAFT', 'PUBLISHED', 'ARCHIVED')),
			published_at TIMESTAMP,
			updated_at TIMESTAMP NOT NULL
		);`,

		`CREATE TABLE IF NOT EXISTS publication_topics (
			publication_id BIGINT NOT NULL,
			topic_id BIGINT NOT NULL,
			PRIMARY KEY (publication_id, topic_id)
		);`,

		`CREATE TABLE IF NOT EXISTS topic_affinities (
			account_id BIGINT NOT NULL,
			topic_id BIGINT NOT NULL,
			score DOUBLE NOT NULL,
			last_updated TIMESTAMP NOT NULL,
			PRIMARY KEY (account_id, topic_id)
		);`,

		`CREATE TABLE IF NOT EXISTS user_similarities (
			account_id BIGINT NOT NULL,
			other_account_id BIGINT NOT NULL,
			similarity_score DOUBLE NOT NULL,
			calculated_at TIMESTAMP NOT NULL,
			PRIMARY KEY (account_id, other_account_id)
		);`,
	}
}

// createIndexes creates secondary indexes unless the config skips them.
func (db *DB) createIndexes() error {
	if db.cfg != nil && db.cfg.SkipIndexes {
		return nil
	}

	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range getIndexQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute index query: %s: %w", query, err)
		}
	}
	return nil
}

// getIndexQueries returns index creation SQL statements.
// Columns assigned by ON CONFLICT DO UPDATE must stay unindexed in DuckDB, so
// only the append-only tables carry secondary indexes. Retention deletes on
// the derived tables rely on zonemaps.
func getIndexQueries() []string {
	return []string{
		`CREATE INDEX IF NOT EXISTS idx_interactions_account_created ON interactions(account_id, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_interactions_publication ON interactions(publication_id);`,
		`CREATE INDEX IF NOT EXISTS idx_publication_topics_topic ON publication_topics(topic_id);`,
	}
}
