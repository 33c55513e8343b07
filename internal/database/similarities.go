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

// ReplaceSimilarities swaps the similarity rows of one account for rows in
// a single transaction. An empty rows clears the account.
func (db *DB) ReplaceSimilarities(ctx context.Context, accountID int64, rows []models.UserSimilarity) (err error) {
	for _, r := range rows {
		if r.AccountID != accountID {
			return fmt.Errorf("similarity row of account %d passed for account %d", r.AccountID, accountID)
		}
		if r.OtherAccountID == accountID {
			return fmt.Errorf("self similarity for account %d", accountID)
		}
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("replace", "user_similarities", time.Now(), &err)

	return db.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM user_similarities WHERE account_id = ?`, accountID); err != nil {
			return fmt.Errorf("failed to clear similarities of account %d: %w", accountID, err)
		}
		if len(rows) == 0 {
			return nil
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO user_similarities (account_id, other_account_id, similarity_score, calculated_at)
			VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare similarity insert: %w", err)
		}
		defer closeWithLog(stmt, "prepared statement")

		for _, r := range rows {
			if _, err := stmt.ExecContext(ctx, accountID, r.OtherAccountID, r.Score, r.CalculatedAt.UTC()); err != nil {
				return fmt.Errorf("failed to insert similarity (%d, %d): %w", accountID, r.OtherAccountID, err)
			}
		}
		return nil
	})
}

// SimilarAccounts returns other-account ids calculated at or after since,
// ordered by score descending then id ascending.
func (db *DB) SimilarAccounts(ctx context.Context, accountID int64, since time.Time, limit int) (ids []int64, err error) {
	if limit <= 0 {
		return []int64{}, nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "user_similarities", time.Now(), &err)

	rows, err := db.conn.QueryContext(ctx, `
		SELECT other_account_id
		FROM user_similarities
		WHERE account_id = ? AND calculated_at >= ?
		ORDER BY similarity_score DESC, other_account_id ASC
		LIMIT ?`, accountID, since.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar accounts: %w", err)
	}
	return scanIDs(rows)
}

// DeleteSimilaritiesBefore removes similarity rows calculated before cutoff.
func (db *DB) DeleteSimilaritiesBefore(ctx context.Context, cutoff time.Time) (n int64, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("delete", "user_similarities", time.Now(), &err)

	res, err := db.conn.ExecContext(ctx, `DELETE FROM user_similarities WHERE calculated_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old similarities: %w", err)
	}
	return res.RowsAffected()
}
