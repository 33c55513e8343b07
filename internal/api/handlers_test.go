// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	_ "github.com/tomtom215/affinity/docs"
	"github.com/tomtom215/affinity/internal/database"
	"github.com/tomtom215/affinity/internal/eventprocessor"
	"github.com/tomtom215/affinity/internal/models"
	"github.com/tomtom215/affinity/internal/recommend"
)

type interactionCall struct {
	accountID, publicationID int64
	t                        models.InteractionType
}

type recommendCall struct {
	accountID     int64
	strategy      recommend.Strategy
	limit, offset int
}

type mockEngine struct {
	mu sync.Mutex

	interactions []interactionCall
	removed      []interactionCall
	rebuilds     []int64
	publications []models.Publication
	recommends   []recommendCall
	similarLimit int

	err       error
	result    recommend.Result
	similar   []int64
	recordErr error
}

func (m *mockEngine) RecordInteraction(_ context.Context, accountID, publicationID int64, t models.InteractionType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interactions = append(m.interactions, interactionCall{accountID, publicationID, t})
	return m.recordErr
}

func (m *mockEngine) RemoveSave(_ context.Context, accountID, publicationID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, interactionCall{accountID, publicationID, models.InteractionSave})
	return m.err
}

func (m *mockEngine) RecalculateAffinities(_ context.Context, accountID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rebuilds = append(m.rebuilds, accountID)
	return m.err
}

func (m *mockEngine) UpsertPublication(_ context.Context, pub models.Publication) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publications = append(m.publications, pub)
	return m.err
}

func (m *mockEngine) GetSimilarUsers(_ context.Context, _ int64, limit int) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.similarLimit = limit
	return m.similar, m.err
}

func (m *mockEngine) GetRecommendations(_ context.Context, accountID int64, strategy recommend.Strategy, limit, offset int) (recommend.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recommends = append(m.recommends, recommendCall{accountID, strategy, limit, offset})
	if m.err != nil {
		return recommend.Result{}, m.err
	}
	res := m.result
	if res.Requested == "" {
		res.Requested, res.Served = strategy, strategy
	}
	return res, nil
}

func (m *mockEngine) Stats() recommend.Stats {
	return recommend.Stats{Requests: 7, Breaker: "closed"}
}

type mockStore struct {
	pingErr    error
	err        error
	affinities []models.TopicAffinity
	pub        models.Publication
}

func (m *mockStore) GetPublication(_ context.Context, id int64) (models.Publication, error) {
	if m.err != nil {
		return models.Publication{}, m.err
	}
	if m.pub.ID != id {
		return models.Publication{}, fmt.Errorf("%w: %d", models.ErrPublicationNotFound, id)
	}
	return m.pub, nil
}

func (m *mockStore) TopicAffinities(context.Context, int64) ([]models.TopicAffinity, error) {
	return m.affinities, m.err
}

func (m *mockStore) GetRecordCounts(context.Context) (database.RecordCounts, error) {
	return database.RecordCounts{Interactions: 3, Publications: 2}, m.err
}

func (m *mockStore) Ping(context.Context) error {
	return m.pingErr
}

type mockEvents struct {
	running bool
}

func (m *mockEvents) IsRunning() bool { return m.running }

func (m *mockEvents) Stats() eventprocessor.Stats {
	return eventprocessor.Stats{Running: m.running, Handlers: eventprocessor.HandlerStats{Processed: 4}}
}

type envelope struct {
	Status   string          `json:"status"`
	Data     json.RawMessage `json:"data"`
	Metadata models.Metadata `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

func setupTestRouter(t *testing.T, engine *mockEngine, store *mockStore, events EventStatus) http.Handler {
	t.Helper()
	handler, err := NewHandler(engine, store, events, "test")
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	mw := DefaultChiMiddlewareConfig()
	mw.RateLimitDisabled = true
	return NewRouter(handler, RouterConfig{Middleware: mw, MaxBodyBytes: 256}).SetupChi()
}

func doRequest(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("invalid JSON response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, env
}

func errorCode(env envelope) string {
	if env.Error == nil {
		return ""
	}
	return env.Error.Code
}

func TestNewHandler_RequiresDependencies(t *testing.T) {
	t.Parallel()

	if _, err := NewHandler(nil, &mockStore{}, nil, ""); err == nil {
		t.Error("nil engine accepted")
	}
	if _, err := NewHandler(&mockEngine{}, nil, nil, ""); err == nil {
		t.Error("nil store accepted")
	}
}

func TestRecordInteraction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"accepted", `{"account_id":1,"publication_id":2,"type":"like"}`, http.StatusAccepted, ""},
		{"missing account", `{"publication_id":2,"type":"LIKE"}`, http.StatusBadRequest, ErrCodeValidation},
		{"unknown type", `{"account_id":1,"publication_id":2,"type":"SHARE"}`, http.StatusBadRequest, ErrCodeValidation},
		{"malformed", `{"account_id":`, http.StatusBadRequest, ErrCodeValidation},
		{"empty body", ``, http.StatusBadRequest, ErrCodeValidation},
		{"too large", `{"account_id":1,"publication_id":2,"type":"LIKE","pad":"` + strings.Repeat("x", 300) + `"}`, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			engine := &mockEngine{}
			h := setupTestRouter(t, engine, &mockStore{}, nil)

			rec, env := doRequest(t, h, http.MethodPost, "/api/v1/interactions", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if got := errorCode(env); got != tt.wantCode {
				t.Errorf("code = %q, want %q", got, tt.wantCode)
			}
			if tt.wantStatus != http.StatusAccepted {
				if len(engine.interactions) != 0 {
					t.Errorf("engine called on rejected request: %+v", engine.interactions)
				}
				return
			}
			want := interactionCall{1, 2, models.InteractionLike}
			if len(engine.interactions) != 1 || engine.interactions[0] != want {
				t.Errorf("interactions = %+v, want [%+v]", engine.interactions, want)
			}
			var accepted models.AcceptedResponse
			if err := json.Unmarshal(env.Data, &accepted); err != nil || accepted.Status != "accepted" {
				t.Errorf("data = %s, err = %v", env.Data, err)
			}
		})
	}
}

func TestRecordInteraction_StoreFailure(t *testing.T) {
	t.Parallel()

	engine := &mockEngine{recordErr: errors.New("disk full")}
	h := setupTestRouter(t, engine, &mockStore{}, nil)

	rec, env := doRequest(t, h, http.MethodPost, "/api/v1/interactions", `{"account_id":1,"publication_id":2,"type":"VIEW"}`)
	if rec.Code != http.StatusInternalServerError || errorCode(env) != ErrCodeDatabase {
		t.Errorf("status = %d, code = %q", rec.Code, errorCode(env))
	}
	if strings.Contains(rec.Body.String(), "disk full") {
		t.Error("internal error leaked to client")
	}
}

func TestRemoveSave(t *testing.T) {
	t.Parallel()

	engine := &mockEngine{}
	h := setupTestRouter(t, engine, &mockStore{}, nil)

	rec, _ := doRequest(t, h, http.MethodDelete, "/api/v1/accounts/5/saves/9", "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if len(engine.removed) != 1 || engine.removed[0].accountID != 5 || engine.removed[0].publicationID != 9 {
		t.Errorf("removed = %+v", engine.removed)
	}

	for _, target := range []string{"/api/v1/accounts/abc/saves/9", "/api/v1/accounts/5/saves/0", "/api/v1/accounts/-1/saves/9"} {
		rec, env := doRequest(t, h, http.MethodDelete, target, "")
		if rec.Code != http.StatusBadRequest || errorCode(env) != ErrCodeValidation {
			t.Errorf("%s: status = %d, code = %q", target, rec.Code, errorCode(env))
		}
	}
}

func TestRecalculateAffinities(t *testing.T) {
	t.Parallel()

	engine := &mockEngine{}
	h := setupTestRouter(t, engine, &mockStore{}, nil)

	rec, env := doRequest(t, h, http.MethodPost, "/api/v1/accounts/12/affinities/recalculate", "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var accepted models.AcceptedResponse
	if err := json.Unmarshal(env.Data, &accepted); err != nil || accepted.Status != "accepted" || accepted.Job != "affinity_rebuild" {
		t.Errorf("data = %s", env.Data)
	}
	if len(engine.rebuilds) != 1 || engine.rebuilds[0] != 12 {
		t.Errorf("rebuilds = %v", engine.rebuilds)
	}

	failing := &mockEngine{err: fmt.Errorf("dispatch rebuild: %w", errors.New("pubsub closed"))}
	h = setupTestRouter(t, failing, &mockStore{}, nil)
	rec, env = doRequest(t, h, http.MethodPost, "/api/v1/accounts/12/affinities/recalculate", "")
	if rec.Code != http.StatusServiceUnavailable || errorCode(env) != ErrCodeQueue {
		t.Errorf("status = %d, code = %q", rec.Code, errorCode(env))
	}
}

func TestRecommendations(t *testing.T) {
	t.Parallel()

	engine := &mockEngine{result: recommend.Result{
		Requested:      recommend.StrategyContent,
		Served:         recommend.StrategyPopularity,
		FallbackReason: recommend.FallbackReasonTimeout,
		PublicationIDs: []int64{4, 2},
		Limit:          10,
		Offset:         5,
	}}
	h := setupTestRouter(t, engine, &mockStore{}, nil)

	rec, env := doRequest(t, h, http.MethodGet, "/api/v1/accounts/3/recommendations?strategy=CONTENT&limit=10&offset=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	want := recommendCall{3, recommend.StrategyContent, 10, 5}
	if len(engine.recommends) != 1 || engine.recommends[0] != want {
		t.Fatalf("calls = %+v, want %+v", engine.recommends, want)
	}
	if !env.Metadata.Fallback {
		t.Error("metadata.fallback = false, want true")
	}
	var data models.RecommendationsResponse
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.ServedStrategy != "popularity" || data.Strategy != "content" || len(data.PublicationIDs) != 2 {
		t.Errorf("data = %+v", data)
	}
}

func TestRecommendations_Defaults(t *testing.T) {
	t.Parallel()

	engine := &mockEngine{}
	h := setupTestRouter(t, engine, &mockStore{}, nil)

	rec, env := doRequest(t, h, http.MethodGet, "/api/v1/accounts/3/recommendations", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := engine.recommends[0]; got.strategy != recommend.StrategyHybridWithFallback || got.limit != 0 || got.offset != 0 {
		t.Errorf("call = %+v", got)
	}
	if env.Metadata.Fallback {
		t.Error("metadata.fallback = true on a direct answer")
	}
	if !strings.Contains(rec.Body.String(), `"publication_ids":[]`) {
		t.Errorf("empty result not serialized as []: %s", rec.Body.String())
	}
}

func TestRecommendations_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		target     string
		engineErr  error
		wantStatus int
		wantCode   string
	}{
		{"unknown strategy", "/api/v1/accounts/3/recommendations?strategy=trending", nil, http.StatusBadRequest, ErrCodeValidation},
		{"bad limit", "/api/v1/accounts/3/recommendations?limit=ten", nil, http.StatusBadRequest, ErrCodeValidation},
		{"bad offset", "/api/v1/accounts/3/recommendations?offset=1.5", nil, http.StatusBadRequest, ErrCodeValidation},
		{"zero account", "/api/v1/accounts/0/recommendations", nil, http.StatusBadRequest, ErrCodeValidation},
		{"timeout", "/api/v1/accounts/3/recommendations?strategy=popularity", context.DeadlineExceeded, http.StatusGatewayTimeout, ErrCodeTimeout},
		{"database", "/api/v1/accounts/3/recommendations", errors.New("io error"), http.StatusInternalServerError, ErrCodeDatabase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := setupTestRouter(t, &mockEngine{err: tt.engineErr}, &mockStore{}, nil)
			rec, env := doRequest(t, h, http.MethodGet, tt.target, "")
			if rec.Code != tt.wantStatus || errorCode(env) != tt.wantCode {
				t.Errorf("status = %d, code = %q; want %d, %q", rec.Code, errorCode(env), tt.wantStatus, tt.wantCode)
			}
		})
	}
}

func TestSimilarUsers(t *testing.T) {
	t.Parallel()

	engine := &mockEngine{}
	h := setupTestRouter(t, engine, &mockStore{}, nil)

	rec, env := doRequest(t, h, http.MethodGet, "/api/v1/accounts/8/similar?limit=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if engine.similarLimit != 5 {
		t.Errorf("limit = %d, want 5", engine.similarLimit)
	}
	var data models.SimilarUsersResponse
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.AccountID != 8 || data.AccountIDs == nil || len(data.AccountIDs) != 0 {
		t.Errorf("data = %+v", data)
	}
}

func TestAffinities(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	store := &mockStore{affinities: []models.TopicAffinity{
		{AccountID: 2, TopicID: 10, Score: 4.5, LastUpdated: now},
		{AccountID: 2, TopicID: 11, Score: 1.0, LastUpdated: now},
	}}
	h := setupTestRouter(t, &mockEngine{}, store, nil)

	rec, env := doRequest(t, h, http.MethodGet, "/api/v1/accounts/2/affinities", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var got []models.TopicAffinity
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].TopicID != 10 || got[0].Score != 4.5 {
		t.Errorf("affinities = %+v", got)
	}
}

func TestUpsertPublication(t *testing.T) {
	t.Parallel()

	engine := &mockEngine{}
	h := setupTestRouter(t, engine, &mockStore{}, nil)

	body := `{"status":"published","published_at":"2026-05-01T10:00:00+02:00","topic_ids":[3,1]}`
	rec, _ := doRequest(t, h, http.MethodPut, "/api/v1/publications/77", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if len(engine.publications) != 1 {
		t.Fatalf("publications = %+v", engine.publications)
	}
	pub := engine.publications[0]
	wantAt := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	if pub.ID != 77 || pub.Status != models.StatusPublished || !pub.PublishedAt.Equal(wantAt) || len(pub.TopicIDs) != 2 {
		t.Errorf("publication = %+v", pub)
	}

	rec, _ = doRequest(t, h, http.MethodPut, "/api/v1/publications/78", `{"status":"DRAFT"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("draft without topics: status = %d", rec.Code)
	}
	if draft := engine.publications[1]; !draft.PublishedAt.IsZero() || draft.TopicIDs == nil {
		t.Errorf("draft = %+v", draft)
	}

	for _, tt := range []struct{ target, body string }{
		{"/api/v1/publications/79", `{"status":"DELETED"}`},
		{"/api/v1/publications/79", `{"status":"DRAFT","topic_ids":[0]}`},
		{"/api/v1/publications/0", `{"status":"DRAFT"}`},
		{"/api/v1/publications/x", `{"status":"DRAFT"}`},
	} {
		rec, env := doRequest(t, h, http.MethodPut, tt.target, tt.body)
		if rec.Code != http.StatusBadRequest || errorCode(env) != ErrCodeValidation {
			t.Errorf("%s %s: status = %d, code = %q", tt.target, tt.body, rec.Code, errorCode(env))
		}
	}
}

func TestGetPublication(t *testing.T) {
	t.Parallel()

	store := &mockStore{pub: models.Publication{ID: 5, Status: models.StatusArchived, TopicIDs: []int64{1}}}
	h := setupTestRouter(t, &mockEngine{}, store, nil)

	rec, env := doRequest(t, h, http.MethodGet, "/api/v1/publications/5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var pub models.Publication
	if err := json.Unmarshal(env.Data, &pub); err != nil || pub.Status != models.StatusArchived {
		t.Errorf("publication = %+v, err = %v", pub, err)
	}

	rec, env = doRequest(t, h, http.MethodGet, "/api/v1/publications/6", "")
	if rec.Code != http.StatusNotFound || errorCode(env) != ErrCodeNotFound {
		t.Errorf("status = %d, code = %q", rec.Code, errorCode(env))
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		store      *mockStore
		events     EventStatus
		wantStatus int
	}{
		{"ready", &mockStore{}, &mockEvents{running: true}, http.StatusOK},
		{"ready without processor", &mockStore{}, nil, http.StatusOK},
		{"database down", &mockStore{pingErr: errors.New("closed")}, &mockEvents{running: true}, http.StatusServiceUnavailable},
		{"router stopped", &mockStore{}, &mockEvents{running: false}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := setupTestRouter(t, &mockEngine{}, tt.store, tt.events)

			rec, _ := doRequest(t, h, http.MethodGet, "/api/v1/health/live", "")
			if rec.Code != http.StatusOK {
				t.Errorf("live status = %d", rec.Code)
			}

			rec, env := doRequest(t, h, http.MethodGet, "/api/v1/health/ready", "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("ready status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var status ReadyStatus
			if err := json.Unmarshal(env.Data, &status); err != nil {
				t.Fatal(err)
			}
			if (status.Status == "ready") != (tt.wantStatus == http.StatusOK) {
				t.Errorf("status = %+v", status)
			}
		})
	}
}

func TestStats(t *testing.T) {
	t.Parallel()

	h := setupTestRouter(t, &mockEngine{}, &mockStore{}, &mockEvents{running: true})
	rec, env := doRequest(t, h, http.MethodGet, "/api/v1/stats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var stats StatsResponse
	if err := json.Unmarshal(env.Data, &stats); err != nil {
		t.Fatal(err)
	}
	if stats.Records.Interactions != 3 || stats.Engine.Requests != 7 || stats.Events == nil || stats.Events.Handlers.Processed != 4 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRouting(t *testing.T) {
	t.Parallel()

	h := setupTestRouter(t, &mockEngine{}, &mockStore{}, nil)

	rec, env := doRequest(t, h, http.MethodGet, "/api/v1/nothing", "")
	if rec.Code != http.StatusNotFound || errorCode(env) != ErrCodeNotFound {
		t.Errorf("unknown route: status = %d, code = %q", rec.Code, errorCode(env))
	}

	rec, _ = doRequest(t, h, http.MethodPatch, "/api/v1/interactions", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("wrong method: status = %d", rec.Code)
	}

	rec, _ = doRequest(t, h, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Errorf("metrics: status = %d", rec.Code)
	}

	rec, _ = doRequest(t, h, http.MethodGet, "/api/v1/health/live", "")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}

	req := httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil)
	docRec := httptest.NewRecorder()
	h.ServeHTTP(docRec, req)
	if docRec.Code != http.StatusOK || !strings.Contains(docRec.Body.String(), "/accounts/{accountID}/recommendations") {
		t.Errorf("swagger doc: status = %d", docRec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	handler, err := NewHandler(&mockEngine{}, &mockStore{}, nil, "test")
	if err != nil {
		t.Fatal(err)
	}
	mw := DefaultChiMiddlewareConfig()
	mw.RateLimitRequests = 2
	h := NewRouter(handler, RouterConfig{Middleware: mw}).SetupChi()

	for i := 0; i < 2; i++ {
		if rec, _ := doRequest(t, h, http.MethodGet, "/api/v1/stats", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, rec.Code)
		}
	}
	rec, env := doRequest(t, h, http.MethodGet, "/api/v1/stats", "")
	if rec.Code != http.StatusTooManyRequests || errorCode(env) != ErrCodeTooManyRequests {
		t.Errorf("status = %d, code = %q", rec.Code, errorCode(env))
	}

	// Probes are not limited.
	if rec, _ := doRequest(t, h, http.MethodGet, "/api/v1/health/live", ""); rec.Code != http.StatusOK {
		t.Errorf("health limited: status = %d", rec.Code)
	}
}

func TestSanitizeLogValue(t *testing.T) {
	t.Parallel()

	if got := sanitizeLogValue("a\nb\x7f"); got != `a\x0ab\x7f` {
		t.Errorf("sanitizeLogValue() = %q", got)
	}
}
