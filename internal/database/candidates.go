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

// notSeenClause excludes publications the requesting account viewed, liked or
// saved. It binds the account id once.
const notSeenClause = `NOT EXISTS (
	SELECT 1 FROM interactions seen
	WHERE seen.account_id = ? AND seen.publication_id = p.id
)`

// ContentCandidates ranks PUBLISHED, unseen publications by the summed
// affinity of the account on their topics, over affinities above minAffinity.
// Order: score desc, published_at desc, id asc.
func (db *DB) ContentCandidates(ctx context.Context, accountID int64, minAffinity float64, limit, offset int) (ids []int64, err error) {
	if limit <= 0 {
		return []int64{}, nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "content_candidates", time.Now(), &err)

	rows, err := db.conn.QueryContext(ctx, `
		SELECT p.id, SUM(ta.score) AS affinity_sum, p.published_at
		FROM topic_affinities ta
		JOIN publication_topics pt ON pt.topic_id = ta.topic_id
		JOIN publications p ON p.id = pt.publication_id
		WHERE ta.account_id = ?
			AND ta.score > ?
			AND p.status = 'PUBLISHED'
			AND `+notSeenClause+`
		GROUP BY p.id, p.published_at
		ORDER BY affinity_sum DESC, p.published_at DESC NULLS LAST, p.id ASC
		LIMIT ? OFFSET ?`,
		accountID, minAffinity, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query content candidates: %w", err)
	}

	scored, err := scanScored(rows)
	if err != nil {
		return nil, err
	}
	ids = make([]int64, len(scored))
	for i, s := range scored {
		ids[i] = s.PublicationID
	}
	return ids, nil
}

// CollaborativeCandidates scores PUBLISHED, unseen publications that
// neighbours liked or saved at or after interactedSince. Only similarity rows
// calculated at or after similarSince count, and each neighbour contributes
// its similarity once per publication. It returns the top limit by score plus
// every publication tied with the last of them, so the caller's random
// tie-break sees the whole tie group. Order: score desc, then id asc.
func (db *DB) CollaborativeCandidates(ctx context.Context, accountID int64, similarSince, interactedSince time.Time, limit int) (out []models.ScoredPublication, err error) {
	if limit <= 0 {
		return []models.ScoredPublication{}, nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "collaborative_candidates", time.Now(), &err)

	rows, err := db.conn.QueryContext(ctx, `
		WITH neighbours AS (
			SELECT other_account_id, similarity_score
			FROM user_similarities
			WHERE account_id = ? AND calculated_at >= ?
		),
		contributions AS (
			SELECT DISTINCT n.other_account_id, n.similarity_score, i.publication_id
			FROM neighbours n
			JOIN interactions i ON i.account_id = n.other_account_id
			WHERE i.type IN ('LIKE', 'SAVE') AND i.created_at >= ?
		),
		ranked AS (
			SELECT p.id, SUM(c.similarity_score) AS neighbour_score, p.published_at,
				RANK() OVER (ORDER BY SUM(c.similarity_score) DESC) AS score_rank
			FROM contributions c
			JOIN publications p ON p.id = c.publication_id
			WHERE p.status = 'PUBLISHED'
				AND `+notSeenClause+`
			GROUP BY p.id, p.published_at
		)
		SELECT id, neighbour_score, published_at
		FROM ranked
		WHERE score_rank <= ?
		ORDER BY neighbour_score DESC, id ASC`,
		accountID, similarSince.UTC(), interactedSince.UTC(), accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query collaborative candidates: %w", err)
	}
	return scanScored(rows)
}

// PopularPublications ranks PUBLISHED, unseen publications published at or
// after since by distinct likers plus distinct savers.
// Order: engagement desc, published_at desc, id asc.
func (db *DB) PopularPublications(ctx context.Context, accountID int64, since time.Time, limit, offset int) (ids []int64, err error) {
	if limit <= 0 {
		return []int64{}, nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "popular_publications", time.Now(), &err)

	rows, err := db.conn.QueryContext(ctx, `
		SELECT p.id,
			CAST(COUNT(DISTINCT CASE WHEN i.type = 'LIKE' THEN i.account_id END)
				+ COUNT(DISTINCT CASE WHEN i.type = 'SAVE' THEN i.account_id END) AS DOUBLE) AS engagement,
			p.published_at
		FROM publications p
		LEFT JOIN interactions i ON i.publication_id = p.id AND i.type IN ('LIKE', 'SAVE')
		WHERE p.status = 'PUBLISHED'
			AND p.published_at >= ?
			AND `+notSeenClause+`
		GROUP BY p.id, p.published_at
		ORDER BY engagement DESC, p.published_at DESC, p.id ASC
		LIMIT ? OFFSET ?`,
		since.UTC(), accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query popular publications: %w", err)
	}

	scored, err := scanScored(rows)
	if err != nil {
		return nil, err
	}
	ids = make([]int64, len(scored))
	for i, s := range scored {
		ids[i] = s.PublicationID
	}
	return ids, nil
}

// scanScored reads (id, score, published_at) rows and closes rows.
func scanScored(rows *sql.Rows) ([]models.ScoredPublication, error) {
	defer closeWithLog(rows, "rows")

	out := make([]models.ScoredPublication, 0)
	for rows.Next() {
		var sp models.ScoredPublication
		var publishedAt sql.NullTime
		if err := rows.Scan(&sp.PublicationID, &sp.Score, &publishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		if publishedAt.Valid {
			sp.PublishedAt = publishedAt.Time
		}
		out = append(out, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate candidates: %w", err)
	}
	return out, nil
}
