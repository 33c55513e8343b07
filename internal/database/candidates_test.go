// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

package database

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/affinity/internal/models"
	"github.com/tomtom215/affinity/internal/recommend"
	"github.com/tomtom215/affinity/internal/recommend/affinity"
	"github.com/tomtom215/affinity/internal/recommend/similarity"
)

func TestContentCandidates(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.ReplaceTopicAffinities(ctx, 1, []models.TopicAffinity{
		{AccountID: 1, TopicID: 1, Score: 2.0, LastUpdated: testNow},
		{AccountID: 1, TopicID: 2, Score: 1.0, LastUpdated: testNow},
		{AccountID: 1, TopicID: 3, Score: 0.4, LastUpdated: testNow}, // below 0.5
	}); err != nil {
		t.Fatalf("ReplaceTopicAffinities() error = %v", err)
	}

	mustPublish(t, db, 10, models.StatusPublished, testNow.Add(-48*time.Hour), 1, 2) // 3.0
	mustPublish(t, db, 11, models.StatusPublished, testNow.Add(-24*time.Hour), 1)    // 2.0, newer
	mustPublish(t, db, 12, models.StatusPublished, testNow.Add(-72*time.Hour), 1)    // 2.0, older
	mustPublish(t, db, 13, models.StatusPublished, testNow, 3)                       // weak topic only
	mustPublish(t, db, 14, models.StatusDraft, testNow, 1)                           // not published
	mustPublish(t, db, 15, models.StatusPublished, testNow, 2)                       // seen
	mustInteract(t, db, 1, 15, models.InteractionView, testNow)

	ids, err := db.ContentCandidates(ctx, 1, 0.5, 10, 0)
	if err != nil {
		t.Fatalf("ContentCandidates() error = %v", err)
	}
	assertIDs(t, "content", ids, []int64{10, 11, 12})

	ids, err = db.ContentCandidates(ctx, 1, 0.5, 1, 1)
	if err != nil {
		t.Fatalf("ContentCandidates() error = %v", err)
	}
	assertIDs(t, "content page", ids, []int64{11})

	cold, err := db.ContentCandidates(ctx, 99, 0.5, 10, 0)
	if err != nil {
		t.Fatalf("ContentCandidates() error = %v", err)
	}
	if cold == nil || len(cold) != 0 {
		t.Errorf("cold account = %v, want empty", cold)
	}
}

func TestCollaborativeCandidates(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.ReplaceSimilarities(ctx, 1, []models.UserSimilarity{
		{AccountID: 1, OtherAccountID: 2, Score: 0.8, CalculatedAt: testNow},
		{AccountID: 1, OtherAccountID: 3, Score: 0.5, CalculatedAt: testNow},
		{AccountID: 1, OtherAccountID: 4, Score: 0.9, CalculatedAt: testNow.Add(-10 * 24 * time.Hour)}, // stale
	}); err != nil {
		t.Fatalf("ReplaceSimilarities() error = %v", err)
	}

	for _, id := range []int64{20, 21, 22, 23, 24} {
		mustPublish(t, db, id, models.StatusPublished, testNow.Add(-time.Hour), 1)
	}
	mustPublish(t, db, 25, models.StatusArchived, testNow, 1)

	// Account 2 likes and saves 20: counted once.
	mustInteract(t, db, 2, 20, models.InteractionLike, testNow.Add(-time.Hour))
	mustInteract(t, db, 2, 20, models.InteractionSave, testNow.Add(-time.Hour))
	mustInteract(t, db, 3, 20, models.InteractionLike, testNow.Add(-time.Hour))
	mustInteract(t, db, 3, 21, models.InteractionSave, testNow.Add(-time.Hour))
	// Views, likes outside the window, stale neighbours and archived
	// publications are all ignored.
	mustInteract(t, db, 2, 22, models.InteractionView, testNow)
	mustInteract(t, db, 2, 23, models.InteractionLike, testNow.Add(-40*24*time.Hour))
	mustInteract(t, db, 4, 24, models.InteractionLike, testNow)
	mustInteract(t, db, 2, 25, models.InteractionLike, testNow)
	// 21 qualifies but the requester has seen it.
	mustInteract(t, db, 2, 21, models.InteractionLike, testNow)
	mustInteract(t, db, 1, 21, models.InteractionView, testNow)

	got, err := db.CollaborativeCandidates(ctx, 1,
		testNow.Add(-7*24*time.Hour), testNow.Add(-30*24*time.Hour), 10)
	if err != nil {
		t.Fatalf("CollaborativeCandidates() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("candidates = %+v, want only publication 20", got)
	}
	if got[0].PublicationID != 20 || math.Abs(got[0].Score-1.3) > 1e-9 {
		t.Errorf("candidate = %+v, want 20 with score 1.3", got[0])
	}
}

func TestPopularPublications(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	mustPublish(t, db, 30, models.StatusPublished, testNow.Add(-2*24*time.Hour), 1)
	mustPublish(t, db, 31, models.StatusPublished, testNow.Add(-1*24*time.Hour), 1)
	mustPublish(t, db, 32, models.StatusPublished, testNow.Add(-3*24*time.Hour), 1)
	mustPublish(t, db, 33, models.StatusPublished, testNow.Add(-40*24*time.Hour), 1) // too old
	mustPublish(t, db, 34, models.StatusPublished, testNow, 1)                       // seen

	// 30: two likers + one saver = 3. 31: one liker who also saved = 2.
	mustInteract(t, db, 2, 30, models.InteractionLike, testNow)
	mustInteract(t, db, 3, 30, models.InteractionLike, testNow)
	mustInteract(t, db, 3, 30, models.InteractionLike, testNow)
	mustInteract(t, db, 4, 30, models.InteractionSave, testNow)
	mustInteract(t, db, 2, 31, models.InteractionLike, testNow)
	mustInteract(t, db, 2, 31, models.InteractionSave, testNow)
	mustInteract(t, db, 5, 32, models.InteractionView, testNow)
	mustInteract(t, db, 2, 33, models.InteractionLike, testNow)
	mustInteract(t, db, 1, 34, models.InteractionView, testNow)

	since := testNow.Add(-30 * 24 * time.Hour)
	ids, err := db.PopularPublications(ctx, 1, since, 10, 0)
	if err != nil {
		t.Fatalf("PopularPublications() error = %v", err)
	}
	assertIDs(t, "popular", ids, []int64{30, 31, 32})

	ids, err = db.PopularPublications(ctx, 1, since, 10, 2)
	if err != nil {
		t.Fatalf("PopularPublications() error = %v", err)
	}
	assertIDs(t, "popular offset", ids, []int64{32})
}

// TestEndToEnd drives the calculators and generator against DuckDB.
func TestEndToEnd(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	clock := func() time.Time { return testNow }

	mustPublish(t, db, 1, models.StatusPublished, testNow.Add(-5*24*time.Hour), 100, 200)
	mustPublish(t, db, 2, models.StatusPublished, testNow.Add(-4*24*time.Hour), 100, 200)
	mustPublish(t, db, 3, models.StatusPublished, testNow.Add(-3*24*time.Hour), 100)
	mustPublish(t, db, 4, models.StatusPublished, testNow.Add(-2*24*time.Hour), 300)

	// Accounts 1 and 2 share interests in topics 100 and 200.
	for _, account := range []int64{1, 2} {
		mustInteract(t, db, account, 1, models.InteractionLike, testNow.Add(-time.Hour))
		mustInteract(t, db, account, 2, models.InteractionSave, testNow.Add(-time.Hour))
	}
	mustInteract(t, db, 2, 4, models.InteractionLike, testNow.Add(-time.Hour))

	affCalc, err := affinity.NewCalculator(db, affinity.DefaultConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("affinity.NewCalculator() error = %v", err)
	}
	affCalc.SetClock(clock)
	if res, err := affCalc.RebuildAll(ctx); err != nil || res.Failed != 0 || res.Succeeded != 2 {
		t.Fatalf("RebuildAll() = %+v, %v", res, err)
	}

	simCalc, err := similarity.NewCalculator(db, similarity.DefaultConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("similarity.NewCalculator() error = %v", err)
	}
	simCalc.SetClock(clock)
	if _, err := simCalc.CalculateAll(ctx); err != nil {
		t.Fatalf("CalculateAll() error = %v", err)
	}

	neighbours, err := simCalc.SimilarUsers(ctx, 1, 10)
	if err != nil {
		t.Fatalf("SimilarUsers() error = %v", err)
	}
	assertIDs(t, "neighbours", neighbours, []int64{2})

	gen, err := recommend.NewGenerator(db, recommend.DefaultConfig())
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	gen.SetClock(clock)

	content, err := gen.Content(ctx, 1, 10, 0)
	if err != nil {
		t.Fatalf("Content() error = %v", err)
	}
	assertIDs(t, "content", content, []int64{3})

	collaborative, err := gen.Collaborative(ctx, 1, 10, 0)
	if err != nil {
		t.Fatalf("Collaborative() error = %v", err)
	}
	assertIDs(t, "collaborative", collaborative, []int64{4})

	hybrid, err := gen.Generate(ctx, recommend.StrategyHybridWithFallback, 1, 10, 0)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	assertIDs(t, "hybrid with fallback", hybrid, []int64{3, 4})
}

func TestSimilarityRecomputeDropsNeighbour(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for _, account := range []int64{1, 2} {
		if err := db.ReplaceTopicAffinities(ctx, account, []models.TopicAffinity{
			{AccountID: account, TopicID: 1, Score: 0.8, LastUpdated: testNow},
			{AccountID: account, TopicID: 2, Score: 0.8, LastUpdated: testNow},
		}); err != nil {
			t.Fatalf("ReplaceTopicAffinities() error = %v", err)
		}
	}

	simCalc, err := similarity.NewCalculator(db, similarity.DefaultConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("similarity.NewCalculator() error = %v", err)
	}
	simCalc.SetClock(func() time.Time { return testNow })
	if n, err := simCalc.Calculate(ctx, 1); err != nil || n != 1 {
		t.Fatalf("Calculate() = %d, %v; want 1", n, err)
	}

	// Account 2 moves to an unrelated topic.
	if err := db.ReplaceTopicAffinities(ctx, 2, []models.TopicAffinity{
		{AccountID: 2, TopicID: 9, Score: 0.8, LastUpdated: testNow},
	}); err != nil {
		t.Fatalf("ReplaceTopicAffinities() error = %v", err)
	}
	simCalc.SetClock(func() time.Time { return testNow.Add(24 * time.Hour) })
	if n, err := simCalc.Calculate(ctx, 1); err != nil || n != 0 {
		t.Fatalf("Calculate() = %d, %v; want 0", n, err)
	}

	neighbours, err := simCalc.SimilarUsers(ctx, 1, 10)
	if err != nil {
		t.Fatalf("SimilarUsers() error = %v", err)
	}
	assertIDs(t, "neighbours", neighbours, []int64{})
}

func TestCollaborativeCandidatesKeepsBoundaryTies(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.ReplaceSimilarities(ctx, 1, []models.UserSimilarity{
		{AccountID: 1, OtherAccountID: 2, Score: 0.9, CalculatedAt: testNow},
		{AccountID: 1, OtherAccountID: 3, Score: 0.4, CalculatedAt: testNow},
	}); err != nil {
		t.Fatalf("ReplaceSimilarities() error = %v", err)
	}

	// 40 scores 0.9; 41, 42 and 43 tie at 0.4; 44 has no neighbour likes.
	for _, id := range []int64{40, 41, 42, 43, 44} {
		mustPublish(t, db, id, models.StatusPublished, testNow.Add(-time.Hour), 1)
	}
	mustInteract(t, db, 2, 40, models.InteractionLike, testNow)
	for _, id := range []int64{41, 42, 43} {
		mustInteract(t, db, 3, id, models.InteractionLike, testNow)
	}

	since := testNow.Add(-7 * 24 * time.Hour)
	got, err := db.CollaborativeCandidates(ctx, 1, since, testNow.Add(-30*24*time.Hour), 2)
	if err != nil {
		t.Fatalf("CollaborativeCandidates() error = %v", err)
	}
	ids := make([]int64, len(got))
	for i, c := range got {
		ids[i] = c.PublicationID
	}
	assertIDs(t, "pool with boundary ties", ids, []int64{40, 41, 42, 43})

	got, err = db.CollaborativeCandidates(ctx, 1, since, testNow.Add(-30*24*time.Hour), 1)
	if err != nil {
		t.Fatalf("CollaborativeCandidates() error = %v", err)
	}
	if len(got) != 1 || got[0].PublicationID != 40 {
		t.Errorf("limit 1 = %+v, want only 40", got)
	}
}
