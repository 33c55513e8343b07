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

const upsertAffinityQuery = `
	INSERT INTO topic_affinities (account_id, topic_id, score, last_updated)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (account_id, topic_id) DO UPDATE SET
		score = excluded.score,
		last_updated = excluded.last_updated`

// ReplaceTopicAffinities atomically replaces every affinity row of the account.
func (db *DB) ReplaceTopicAffinities(ctx context.Context, accountID int64, rows []models.TopicAffinity) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("replace", "topic_affinities", time.Now(), &err)

	return db.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM topic_affinities WHERE account_id = ?`, accountID); err != nil {
			return fmt.Errorf("failed to clear affinities of account %d: %w", accountID, err)
		}
		return upsertAffinities(ctx, tx, accountID, rows)
	})
}

// ApplyTopicAffinityChanges removes and upserts rows of one account in a
// single transaction. When maxTopics > 0 the account is then trimmed to its
// maxTopics highest scores (ties keep the lower topic id).
func (db *DB) ApplyTopicAffinityChanges(ctx context.Context, accountID int64, upserts []models.TopicAffinity, removals []int64, maxTopics int) (err error) {
	if len(upserts) == 0 && len(removals) == 0 && maxTopics <= 0 {
		return nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("upsert", "topic_affinities", time.Now(), &err)

	return db.inTx(ctx, func(tx *sql.Tx) error {
		if len(removals) > 0 {
			query := fmt.Sprintf(`DELETE FROM topic_affinities WHERE account_id = ? AND topic_id IN (%s)`,
				placeholders(len(removals)))
			args := append([]interface{}{accountID}, int64Args(removals)...)
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("failed to remove affinities of account %d: %w", accountID, err)
			}
		}

		if err := upsertAffinities(ctx, tx, accountID, upserts); err != nil {
			return err
		}

		if maxTopics <= 0 {
			return nil
		}
		_, err := tx.ExecContext(ctx, `
			DELETE FROM topic_affinities
			WHERE account_id = ? AND topic_id IN (
				SELECT topic_id FROM (
					SELECT topic_id, row_number() OVER (ORDER BY score DESC, topic_id ASC) AS rn
					FROM topic_affinities
					WHERE account_id = ?
				) ranked
				WHERE rn > ?
			)`, accountID, accountID, maxTopics)
		if err != nil {
			return fmt.Errorf("failed to trim affinities of account %d: %w", accountID, err)
		}
		return nil
	})
}

func upsertAffinities(ctx context.Context, tx *sql.Tx, accountID int64, rows []models.TopicAffinity) error {
	if len(rows) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, upsertAffinityQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare affinity upsert: %w", err)
	}
	defer closeWithLog(stmt, "prepared statement")

	for _, r := range rows {
		if r.AccountID != accountID {
			return fmt.Errorf("affinity row for account %d in batch of account %d", r.AccountID, accountID)
		}
		if _, err := stmt.ExecContext(ctx, accountID, r.TopicID, r.Score, r.LastUpdated.UTC()); err != nil {
			return fmt.Errorf("failed to upsert affinity (%d, %d): %w", accountID, r.TopicID, err)
		}
	}
	return nil
}

// TopicAffinities returns the account's stored affinities, highest score first.
func (db *DB) TopicAffinities(ctx context.Context, accountID int64) (out []models.TopicAffinity, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "topic_affinities", time.Now(), &err)

	rows, err := db.conn.QueryContext(ctx, `
		SELECT account_id, topic_id, score, last_updated
		FROM topic_affinities
		WHERE account_id = ?
		ORDER BY score DESC, topic_id ASC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query affinities: %w", err)
	}
	defer closeWithLog(rows, "rows")

	out = make([]models.TopicAffinity, 0)
	for rows.Next() {
		var a models.TopicAffinity
		if err := rows.Scan(&a.AccountID, &a.TopicID, &a.Score, &a.LastUpdated); err != nil {
			return nil, fmt.Errorf("failed to scan affinity: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate affinities: %w", err)
	}
	return out, nil
}

// StrongAffinities returns topic -> score for the account's affinities above threshold.
func (db *DB) StrongAffinities(ctx context.Context, accountID int64, threshold float64) (out map[int64]float64, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "topic_affinities", time.Now(), &err)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT topic_id, score FROM topic_affinities WHERE account_id = ? AND score > ?`,
		accountID, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to query strong affinities: %w", err)
	}
	defer closeWithLog(rows, "rows")

	out = make(map[int64]float64)
	for rows.Next() {
		var topicID int64
		var score float64
		if err := rows.Scan(&topicID, &score); err != nil {
			return nil, fmt.Errorf("failed to scan affinity: %w", err)
		}
		out[topicID] = score
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate affinities: %w", err)
	}
	return out, nil
}

// CandidateAffinities returns, for every other account with an affinity above
// threshold on one of topicIDs, its above-threshold scores on those topics.
func (db *DB) CandidateAffinities(ctx context.Context, accountID int64, topicIDs []int64, threshold float64) (out map[int64]map[int64]float64, err error) {
	out = make(map[int64]map[int64]float64)
	if len(topicIDs) == 0 {
		return out, nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "topic_affinities", time.Now(), &err)

	query := fmt.Sprintf(`
		SELECT account_id, topic_id, score
		FROM topic_affinities
		WHERE account_id <> ? AND score > ? AND topic_id IN (%s)`, placeholders(len(topicIDs)))
	args := append([]interface{}{accountID, threshold}, int64Args(topicIDs)...)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidate affinities: %w", err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		var other, topicID int64
		var score float64
		if err := rows.Scan(&other, &topicID, &score); err != nil {
			return nil, fmt.Errorf("failed to scan candidate affinity: %w", err)
		}
		vector, ok := out[other]
		if !ok {
			vector = make(map[int64]float64)
			out[other] = vector
		}
		vector[topicID] = score
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate candidate affinities: %w", err)
	}
	return out, nil
}

// AccountsWithAffinityAbove lists accounts with at least one affinity above
// threshold, in ascending id order.
func (db *DB) AccountsWithAffinityAbove(ctx context.Context, threshold float64) (ids []int64, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "topic_affinities", time.Now(), &err)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT DISTINCT account_id FROM topic_affinities WHERE score > ? ORDER BY account_id`, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts with affinities: %w", err)
	}
	return scanIDs(rows)
}

// DeleteAffinitiesBefore removes affinity rows last updated before cutoff.
func (db *DB) DeleteAffinitiesBefore(ctx context.Context, cutoff time.Time) (n int64, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("delete", "topic_affinities", time.Now(), &err)

	res, err := db.conn.ExecContext(ctx, `DELETE FROM topic_affinities WHERE last_updated < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old affinities: %w", err)
	}
	return res.RowsAffected()
}
