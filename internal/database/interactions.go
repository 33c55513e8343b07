// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/affinity/internal/models"
)

// InsertInteraction appends one record to the interaction log and reports
// whether a row was written. VIEW and LIKE always append. A publication is
// saved at most once per account, so a SAVE that already exists is a no-op.
func (db *DB) InsertInteraction(ctx context.Context, in models.Interaction) (inserted bool, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("insert", "interactions", time.Now(), &err)

	if in.Type != models.InteractionSave {
		_, err = db.conn.ExecContext(ctx,
			`INSERT INTO interactions (account_id, publication_id, type, created_at) VALUES (?, ?, ?, ?)`,
			in.AccountID, in.PublicationID, string(in.Type), in.CreatedAt.UTC())
		if err != nil {
			return false, fmt.Errorf("failed to insert interaction: %w", err)
		}
		return true, nil
	}

	db.saveMu.Lock()
	defer db.saveMu.Unlock()

	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO interactions (account_id, publication_id, type, created_at)
		SELECT CAST(? AS BIGINT), CAST(? AS BIGINT), 'SAVE', CAST(? AS TIMESTAMP)
		WHERE NOT EXISTS (
			SELECT 1 FROM interactions
			WHERE account_id = ? AND publication_id = ? AND type = 'SAVE'
		)`,
		in.AccountID, in.PublicationID, in.CreatedAt.UTC(), in.AccountID, in.PublicationID)
	if err != nil {
		return false, fmt.Errorf("failed to insert save: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

// DeleteSaves removes the account's SAVE of the publication and returns the
// number of rows removed. Logs written before saves were deduplicated may
// hold several; all of them go.
func (db *DB) DeleteSaves(ctx context.Context, accountID, publicationID int64) (n int64, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("delete", "interactions", time.Now(), &err)

	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM interactions WHERE account_id = ? AND publication_id = ? AND type = 'SAVE'`,
		accountID, publicationID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete saves: %w", err)
	}
	n, err = res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

// AccountTopicInteractions returns one row per interaction x topic for the
// account, for interactions created at or after since. Interactions on
// publications without topics yield nothing.
func (db *DB) AccountTopicInteractions(ctx context.Context, accountID int64, since time.Time) (out []models.TopicInteraction, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "interactions", time.Now(), &err)

	rows, err := db.conn.QueryContext(ctx, `
		SELECT pt.topic_id, i.type, i.created_at
		FROM interactions i
		JOIN publication_topics pt ON pt.publication_id = i.publication_id
		WHERE i.account_id = ? AND i.created_at >= ?
		ORDER BY pt.topic_id, i.created_at, i.id`,
		accountID, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query topic interactions: %w", err)
	}
	return scanTopicInteractions(rows)
}

// AccountTopicInteractionsForTopics is AccountTopicInteractions restricted to
// the given topics.
func (db *DB) AccountTopicInteractionsForTopics(ctx context.Context, accountID int64, topicIDs []int64, since time.Time) (out []models.TopicInteraction, err error) {
	if len(topicIDs) == 0 {
		return []models.TopicInteraction{}, nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "interactions", time.Now(), &err)

	query := fmt.Sprintf(`
		SELECT pt.topic_id, i.type, i.created_at
		FROM interactions i
		JOIN publication_topics pt ON pt.publication_id = i.publication_id
		WHERE i.account_id = ? AND i.created_at >= ? AND pt.topic_id IN (%s)
		ORDER BY pt.topic_id, i.created_at, i.id`, placeholders(len(topicIDs)))

	args := append([]interface{}{accountID, since.UTC()}, int64Args(topicIDs)...)
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query topic interactions: %w", err)
	}
	return scanTopicInteractions(rows)
}

func scanTopicInteractions(rows *sql.Rows) ([]models.TopicInteraction, error) {
	defer closeWithLog(rows, "rows")

	out := make([]models.TopicInteraction, 0)
	for rows.Next() {
		var ti models.TopicInteraction
		var typ string
		if err := rows.Scan(&ti.TopicID, &typ, &ti.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan topic interaction: %w", err)
		}
		ti.Type = models.InteractionType(typ)
		out = append(out, ti)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate topic interactions: %w", err)
	}
	return out, nil
}

// AccountsWithInteractionsSince lists accounts with at least one interaction
// at or after since, in ascending id order.
func (db *DB) AccountsWithInteractionsSince(ctx context.Context, since time.Time) (ids []int64, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "interactions", time.Now(), &err)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT DISTINCT account_id FROM interactions WHERE created_at >= ? ORDER BY account_id`,
		since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query active accounts: %w", err)
	}
	return scanIDs(rows)
}

// scanIDs reads a single BIGINT column and closes rows.
func scanIDs(rows *sql.Rows) ([]int64, error) {
	defer closeWithLog(rows, "rows")

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ids: %w", err)
	}
	return ids, nil
}
