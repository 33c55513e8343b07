// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/tomtom215/affinity/internal/models"
)

// UpsertPublication inserts or updates a catalog entry and replaces its topic
// mapping in one transaction.
func (db *DB) UpsertPublication(ctx context.Context, pub models.Publication) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("upsert", "publications", time.Now(), &err)

	var publishedAt interface{}
	if !pub.PublishedAt.IsZero() {
		publishedAt = pub.PublishedAt.UTC()
	}
	topics := uniqueSorted(pub.TopicIDs)
	updatedAt := db.now().UTC()

	return db.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO publications (id, status, published_at, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				status = excluded.status,
				published_at = excluded.published_at,
				updated_at = excluded.updated_at`,
			pub.ID, string(pub.Status), publishedAt, updatedAt)
		if err != nil {
			return fmt.Errorf("failed to upsert publication %d: %w", pub.ID, err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM publication_topics WHERE publication_id = ?`, pub.ID); err != nil {
			return fmt.Errorf("failed to clear topics of publication %d: %w", pub.ID, err)
		}

		if len(topics) == 0 {
			return nil
		}
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO publication_topics (publication_id, topic_id) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare topic insert: %w", err)
		}
		defer closeWithLog(stmt, "prepared statement")

		for _, topicID := range topics {
			if _, err := stmt.ExecContext(ctx, pub.ID, topicID); err != nil {
				return fmt.Errorf("failed to insert topic %d of publication %d: %w", topicID, pub.ID, err)
			}
		}
		return nil
	})
}

// GetPublication returns a catalog entry with its topics.
func (db *DB) GetPublication(ctx context.Context, id int64) (pub models.Publication, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "publications", time.Now(), &err)

	var status string
	var publishedAt sql.NullTime
	err = db.conn.QueryRowContext(ctx,
		`SELECT id, status, published_at FROM publications WHERE id = ?`, id).
		Scan(&pub.ID, &status, &publishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Publication{}, fmt.Errorf("%w: %d", models.ErrPublicationNotFound, id)
	}
	if err != nil {
		return models.Publication{}, fmt.Errorf("failed to query publication %d: %w", id, err)
	}
	pub.Status = models.PublicationStatus(status)
	if publishedAt.Valid {
		pub.PublishedAt = publishedAt.Time
	}

	pub.TopicIDs, err = db.PublicationTopics(ctx, id)
	if err != nil {
		return models.Publication{}, err
	}
	return pub, nil
}

// PublicationTopics returns the topics mapped to a publication in ascending order.
func (db *DB) PublicationTopics(ctx context.Context, publicationID int64) (ids []int64, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "publication_topics", time.Now(), &err)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT topic_id FROM publication_topics WHERE publication_id = ? ORDER BY topic_id`,
		publicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query publication topics: %w", err)
	}
	return scanIDs(rows)
}

func uniqueSorted(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
