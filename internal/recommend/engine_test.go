// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

package recommend

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/affinity/internal/models"
)

type mockWriteStore struct {
	mu           sync.Mutex
	interactions []models.Interaction
	publications []models.Publication
	deleted      int64
	insertErr    error
	deleteErr    error
}

func (m *mockWriteStore) InsertInteraction(_ context.Context, in models.Interaction) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return false, m.insertErr
	}
	if in.Type == models.InteractionSave {
		for _, prev := range m.interactions {
			if prev.Type == models.InteractionSave && prev.AccountID == in.AccountID && prev.PublicationID == in.PublicationID {
				return false, nil
			}
		}
	}
	m.interactions = append(m.interactions, in)
	return true, nil
}

func (m *mockWriteStore) DeleteSaves(_ context.Context, _, _ int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	return m.deleted, nil
}

func (m *mockWriteStore) UpsertPublication(_ context.Context, pub models.Publication) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publications = append(m.publications, pub)
	return nil
}

type mockSimilar struct {
	ids       []int64
	lastLimit int
}

func (m *mockSimilar) SimilarUsers(_ context.Context, _ int64, limit int) ([]int64, error) {
	m.lastLimit = limit
	return m.ids, nil
}

type dispatched struct {
	kind          string
	accountID     int64
	publicationID int64
}

type mockDispatcher struct {
	mu   sync.Mutex
	jobs []dispatched
	err  error
}

func (m *mockDispatcher) DispatchRefresh(_ context.Context, accountID, publicationID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.jobs = append(m.jobs, dispatched{kind: "refresh", accountID: accountID, publicationID: publicationID})
	return nil
}

func (m *mockDispatcher) DispatchRebuild(_ context.Context, accountID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.jobs = append(m.jobs, dispatched{kind: "rebuild", accountID: accountID})
	return nil
}

type engineFixture struct {
	engine     *Engine
	writes     *mockWriteStore
	candidates *mockCandidateStore
	similar    *mockSimilar
	dispatcher *mockDispatcher
}

func newEngineFixture(t *testing.T, cfg *Config) *engineFixture {
	t.Helper()
	f := &engineFixture{
		writes:     &mockWriteStore{},
		candidates: &mockCandidateStore{},
		similar:    &mockSimilar{},
		dispatcher: &mockDispatcher{},
	}
	engine, err := NewEngine(Dependencies{
		Writes:     f.writes,
		Candidates: f.candidates,
		Similar:    f.similar,
		Dispatcher: f.dispatcher,
	}, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	engine.SetClock(func() time.Time { return testNow })
	f.engine = engine
	return f
}

func TestNewEngine(t *testing.T) {
	t.Run("incomplete dependencies", func(t *testing.T) {
		_, err := NewEngine(Dependencies{Writes: &mockWriteStore{}}, nil, zerolog.Nop())
		if err == nil {
			t.Error("expected error for missing dependencies")
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.HybridContentRatio = 2
		_, err := NewEngine(Dependencies{
			Writes:     &mockWriteStore{},
			Candidates: &mockCandidateStore{},
			Similar:    &mockSimilar{},
			Dispatcher: &mockDispatcher{},
		}, cfg, zerolog.Nop())
		if err == nil {
			t.Error("expected error for invalid config")
		}
	})
}

func TestEngine_RecordInteraction(t *testing.T) {
	f := newEngineFixture(t, nil)
	ctx := context.Background()

	if err := f.engine.RecordInteraction(ctx, 7, 70, models.InteractionLike); err != nil {
		t.Fatalf("RecordInteraction() error = %v", err)
	}

	if len(f.writes.interactions) != 1 {
		t.Fatalf("expected 1 stored interaction, got %d", len(f.writes.interactions))
	}
	got := f.writes.interactions[0]
	if got.AccountID != 7 || got.PublicationID != 70 || got.Type != models.InteractionLike {
		t.Errorf("unexpected interaction %+v", got)
	}
	if !got.CreatedAt.Equal(testNow) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, testNow)
	}

	want := []dispatched{{kind: "refresh", accountID: 7, publicationID: 70}}
	if !reflect.DeepEqual(f.dispatcher.jobs, want) {
		t.Errorf("dispatched = %+v, want %+v", f.dispatcher.jobs, want)
	}
}

func TestEngine_RepeatedSaveDispatchesOnce(t *testing.T) {
	f := newEngineFixture(t, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := f.engine.RecordInteraction(ctx, 3, 30, models.InteractionSave); err != nil {
			t.Fatalf("RecordInteraction() error = %v", err)
		}
	}

	if len(f.writes.interactions) != 1 {
		t.Errorf("stored interactions = %d, want 1", len(f.writes.interactions))
	}
	want := []dispatched{{kind: "refresh", accountID: 3, publicationID: 30}}
	if !reflect.DeepEqual(f.dispatcher.jobs, want) {
		t.Errorf("dispatched = %+v, want %+v", f.dispatcher.jobs, want)
	}
}

func TestEngine_RecordInteractionValidation(t *testing.T) {
	f := newEngineFixture(t, nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		account int64
		pub     int64
		typ     models.InteractionType
		wantErr error
	}{
		{"zero account", 0, 1, models.InteractionView, ErrInvalidID},
		{"negative publication", 1, -1, models.InteractionView, ErrInvalidID},
		{"unknown type", 1, 1, models.InteractionType("SHARE"), models.ErrInvalidInteractionType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.engine.RecordInteraction(ctx, tt.account, tt.pub, tt.typ)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("RecordInteraction() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if len(f.writes.interactions) != 0 || len(f.dispatcher.jobs) != 0 {
		t.Error("invalid input must not reach the store or dispatcher")
	}
}

func TestEngine_RecordInteractionDispatchFailureIsNotReturned(t *testing.T) {
	f := newEngineFixture(t, nil)
	f.dispatcher.err = errors.New("queue closed")

	if err := f.engine.RecordInteraction(context.Background(), 1, 2, models.InteractionView); err != nil {
		t.Errorf("RecordInteraction() error = %v, want nil", err)
	}
	if len(f.writes.interactions) != 1 {
		t.Error("interaction should still be stored")
	}
}

func TestEngine_RecordInteractionStoreFailure(t *testing.T) {
	f := newEngineFixture(t, nil)
	storeErr := errors.New("disk full")
	f.writes.insertErr = storeErr

	err := f.engine.RecordInteraction(context.Background(), 1, 2, models.InteractionSave)
	if !errors.Is(err, storeErr) {
		t.Errorf("RecordInteraction() error = %v, want %v", err, storeErr)
	}
	if len(f.dispatcher.jobs) != 0 {
		t.Error("nothing should be dispatched when the write fails")
	}
}

func TestEngine_RemoveSave(t *testing.T) {
	tests := []struct {
		name         string
		deleted      int64
		wantDispatch int
	}{
		{"nothing removed", 0, 0},
		{"save removed", 1, 1},
		{"duplicate saves removed", 3, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEngineFixture(t, nil)
			f.writes.deleted = tt.deleted

			if err := f.engine.RemoveSave(context.Background(), 1, 2); err != nil {
				t.Fatalf("RemoveSave() error = %v", err)
			}
			if len(f.dispatcher.jobs) != tt.wantDispatch {
				t.Errorf("dispatched %d jobs, want %d", len(f.dispatcher.jobs), tt.wantDispatch)
			}
		})
	}
}

func TestEngine_RecalculateAffinities(t *testing.T) {
	f := newEngineFixture(t, nil)

	if err := f.engine.RecalculateAffinities(context.Background(), 9); err != nil {
		t.Fatalf("RecalculateAffinities() error = %v", err)
	}
	if len(f.dispatcher.jobs) != 1 || f.dispatcher.jobs[0].kind != "rebuild" {
		t.Errorf("unexpected jobs %+v", f.dispatcher.jobs)
	}

	queueErr := errors.New("queue closed")
	f.dispatcher.err = queueErr
	if err := f.engine.RecalculateAffinities(context.Background(), 9); !errors.Is(err, queueErr) {
		t.Errorf("RecalculateAffinities() error = %v, want %v", err, queueErr)
	}
	if err := f.engine.RecalculateAffinities(context.Background(), 0); !errors.Is(err, ErrInvalidID) {
		t.Errorf("RecalculateAffinities(0) error = %v, want ErrInvalidID", err)
	}
}

func TestEngine_UpsertPublication(t *testing.T) {
	tests := []struct {
		name    string
		pub     models.Publication
		wantErr bool
	}{
		{"valid", models.Publication{ID: 1, Status: models.StatusPublished, PublishedAt: testNow, TopicIDs: []int64{1, 2}}, false},
		{"draft without topics", models.Publication{ID: 2, Status: models.StatusDraft}, false},
		{"zero id", models.Publication{ID: 0, Status: models.StatusPublished}, true},
		{"unknown status", models.Publication{ID: 3, Status: "LIVE"}, true},
		{"bad topic", models.Publication{ID: 4, Status: models.StatusPublished, TopicIDs: []int64{0}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEngineFixture(t, nil)
			err := f.engine.UpsertPublication(context.Background(), tt.pub)
			if (err != nil) != tt.wantErr {
				t.Errorf("UpsertPublication() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && len(f.writes.publications) != 1 {
				t.Error("publication not stored")
			}
		})
	}
}

func TestEngine_GetSimilarUsers(t *testing.T) {
	f := newEngineFixture(t, nil)
	f.similar.ids = []int64{3, 4}

	ids, err := f.engine.GetSimilarUsers(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("GetSimilarUsers() error = %v", err)
	}
	if !reflect.DeepEqual(ids, []int64{3, 4}) {
		t.Errorf("GetSimilarUsers() = %v", ids)
	}
	if f.similar.lastLimit != 20 {
		t.Errorf("limit = %d, want default 20", f.similar.lastLimit)
	}

	if _, err := f.engine.GetSimilarUsers(context.Background(), 1, 1000); err != nil {
		t.Fatalf("GetSimilarUsers() error = %v", err)
	}
	if f.similar.lastLimit != 100 {
		t.Errorf("limit = %d, want clamped 100", f.similar.lastLimit)
	}
}

func TestEngine_GetRecommendationsColdAccount(t *testing.T) {
	f := newEngineFixture(t, nil)
	f.candidates.popular = []int64{50, 51}

	tests := []struct {
		strategy Strategy
		want     []int64
	}{
		{StrategyContent, []int64{}},
		{StrategyCollaborative, []int64{}},
		{StrategyHybrid, []int64{}},
		{StrategyPopularity, []int64{50, 51}},
		{StrategyHybridWithFallback, []int64{50, 51}},
	}

	for _, tt := range tests {
		t.Run(string(tt.strategy), func(t *testing.T) {
			result, err := f.engine.GetRecommendations(context.Background(), 1, tt.strategy, 10, 0)
			if err != nil {
				t.Fatalf("GetRecommendations() error = %v", err)
			}
			if !reflect.DeepEqual(result.PublicationIDs, tt.want) {
				t.Errorf("ids = %v, want %v", result.PublicationIDs, tt.want)
			}
			if result.Fallback() {
				t.Errorf("unexpected fallback %q", result.FallbackReason)
			}
			if result.Served != tt.strategy {
				t.Errorf("served = %s, want %s", result.Served, tt.strategy)
			}
		})
	}
}

func TestEngine_GetRecommendationsDefaultsAndClamping(t *testing.T) {
	f := newEngineFixture(t, nil)

	result, err := f.engine.GetRecommendations(context.Background(), 1, "", 500, -3)
	if err != nil {
		t.Fatalf("GetRecommendations() error = %v", err)
	}
	if result.Requested != DefaultStrategy {
		t.Errorf("requested = %s, want %s", result.Requested, DefaultStrategy)
	}
	if result.Limit != 100 || result.Offset != 0 {
		t.Errorf("limit/offset = %d/%d, want 100/0", result.Limit, result.Offset)
	}

	result, err = f.engine.GetRecommendations(context.Background(), 1, StrategyPopularity, 0, 5000)
	if err != nil {
		t.Fatalf("GetRecommendations() error = %v", err)
	}
	if result.Limit != 20 || result.Offset != 1000 {
		t.Errorf("limit/offset = %d/%d, want 20/1000", result.Limit, result.Offset)
	}
}

func TestEngine_GetRecommendationsInvalidInput(t *testing.T) {
	f := newEngineFixture(t, nil)

	if _, err := f.engine.GetRecommendations(context.Background(), 1, "trending", 10, 0); !errors.Is(err, ErrInvalidStrategy) {
		t.Errorf("error = %v, want ErrInvalidStrategy", err)
	}
	if _, err := f.engine.GetRecommendations(context.Background(), -1, StrategyContent, 10, 0); !errors.Is(err, ErrInvalidID) {
		t.Errorf("error = %v, want ErrInvalidID", err)
	}
}

func TestEngine_FallbackOnError(t *testing.T) {
	f := newEngineFixture(t, nil)
	f.candidates.contentErr = errors.New("query failed")
	f.candidates.popular = []int64{9, 8}

	result, err := f.engine.GetRecommendations(context.Background(), 1, StrategyContent, 10, 0)
	if err != nil {
		t.Fatalf("GetRecommendations() error = %v", err)
	}
	if result.Served != StrategyPopularity || result.Requested != StrategyContent {
		t.Errorf("requested/served = %s/%s", result.Requested, result.Served)
	}
	if result.FallbackReason != FallbackReasonError {
		t.Errorf("reason = %q, want %q", result.FallbackReason, FallbackReasonError)
	}
	if !reflect.DeepEqual(result.PublicationIDs, []int64{9, 8}) {
		t.Errorf("ids = %v", result.PublicationIDs)
	}
}

func TestEngine_FallbackOnTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Limits.ReadTimeout = 20 * time.Millisecond
	f := newEngineFixture(t, cfg)
	f.candidates.contentDelay = time.Second
	f.candidates.popular = []int64{4}

	start := time.Now()
	result, err := f.engine.GetRecommendations(context.Background(), 1, StrategyHybrid, 10, 0)
	if err != nil {
		t.Fatalf("GetRecommendations() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("fallback took %v, read timeout not enforced", elapsed)
	}
	if result.FallbackReason != FallbackReasonTimeout {
		t.Errorf("reason = %q, want %q", result.FallbackReason, FallbackReasonTimeout)
	}
	if !reflect.DeepEqual(result.PublicationIDs, []int64{4}) {
		t.Errorf("ids = %v", result.PublicationIDs)
	}
}

func TestEngine_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Breaker.FailureThreshold = 2
	f := newEngineFixture(t, cfg)
	f.candidates.contentErr = errors.New("query failed")
	f.candidates.popular = []int64{1}

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		result, err := f.engine.GetRecommendations(ctx, 1, StrategyContent, 10, 0)
		if err != nil {
			t.Fatalf("request %d: error = %v", i, err)
		}
		if result.FallbackReason != FallbackReasonError {
			t.Errorf("request %d: reason = %q, want %q", i, result.FallbackReason, FallbackReasonError)
		}
	}

	result, err := f.engine.GetRecommendations(ctx, 1, StrategyContent, 10, 0)
	if err != nil {
		t.Fatalf("GetRecommendations() error = %v", err)
	}
	if result.FallbackReason != FallbackReasonBreakerOpen {
		t.Errorf("reason = %q, want %q", result.FallbackReason, FallbackReasonBreakerOpen)
	}
	if f.candidates.contentCalls != 2 {
		t.Errorf("content queried %d times, want 2", f.candidates.contentCalls)
	}

	stats := f.engine.Stats()
	if stats.Requests != 3 || stats.Fallbacks != 3 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.Breaker != "open" {
		t.Errorf("breaker = %q, want open", stats.Breaker)
	}

	// Popularity bypasses the breaker.
	result, err = f.engine.GetRecommendations(ctx, 1, StrategyPopularity, 10, 0)
	if err != nil || result.Fallback() {
		t.Errorf("popularity result = %+v, err = %v", result, err)
	}
}

func TestEngine_PopularityFailureIsReturned(t *testing.T) {
	f := newEngineFixture(t, nil)
	f.candidates.contentErr = errors.New("query failed")
	popErr := errors.New("popular failed")
	f.candidates.popularErr = popErr

	_, err := f.engine.GetRecommendations(context.Background(), 1, StrategyContent, 10, 0)
	if !errors.Is(err, popErr) {
		t.Errorf("error = %v, want %v", err, popErr)
	}
	if f.engine.Stats().Errors != 1 {
		t.Errorf("errors = %d, want 1", f.engine.Stats().Errors)
	}
}

func TestEngine_CancelledRequestDoesNotFallBack(t *testing.T) {
	f := newEngineFixture(t, nil)
	f.candidates.popular = []int64{1}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.engine.GetRecommendations(ctx, 1, StrategyContent, 10, 0)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if f.candidates.popularCalls != 0 {
		t.Error("cancelled request must not fall back to popularity")
	}
}

func TestEngine_ConcurrentRequests(t *testing.T) {
	f := newEngineFixture(t, nil)
	f.candidates.content = []int64{1, 2, 3}
	f.candidates.popular = []int64{4, 5}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(account int64) {
			defer wg.Done()
			if _, err := f.engine.GetRecommendations(context.Background(), account, StrategyHybridWithFallback, 5, 0); err != nil {
				t.Errorf("GetRecommendations() error = %v", err)
			}
		}(int64(i + 1))
	}
	wg.Wait()

	if got := f.engine.Stats().Requests; got != 20 {
		t.Errorf("requests = %d, want 20", got)
	}
}
