// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

package eventprocessor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/affinity/internal/logging"
)

// mockCache records affinity jobs.
type mockCache struct {
	mu       sync.Mutex
	updates  [][2]int64
	rebuilds []int64
	refresh  [][2]int64
	err      error
	block    bool
}

func (m *mockCache) Refresh(_ context.Context, accountID, topicID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refresh = append(m.refresh, [2]int64{accountID, topicID})
	return m.err
}

func (m *mockCache) Rebuild(ctx context.Context, accountID int64) error {
	m.mu.Lock()
	m.rebuilds = append(m.rebuilds, accountID)
	block, err := m.block, m.err
	m.mu.Unlock()
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

func (m *mockCache) Update(_ context.Context, accountID, publicationID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, [2]int64{accountID, publicationID})
	return m.err
}

func (m *mockCache) counts() (updates, rebuilds int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.updates), len(m.rebuilds)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JobTimeout = time.Second
	cfg.Router.CloseTimeout = time.Second
	cfg.Router.RetryMaxRetries = 1
	cfg.Router.RetryInitialInterval = time.Millisecond
	cfg.Router.RetryMaxInterval = 5 * time.Millisecond
	return cfg
}

func newMessage(t *testing.T, event Event) *message.Message {
	t.Helper()
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	msg := message.NewMessage("test-uuid", payload)
	msg.SetContext(context.Background())
	return msg
}

func TestEventValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		event   Event
		wantErr bool
	}{
		{"refresh ok", &RefreshEvent{SchemaVersion: SchemaVersion, AccountID: 1, PublicationID: 2}, false},
		{"refresh no account", &RefreshEvent{SchemaVersion: SchemaVersion, PublicationID: 2}, true},
		{"refresh no publication", &RefreshEvent{SchemaVersion: SchemaVersion, AccountID: 1}, true},
		{"refresh bad version", &RefreshEvent{SchemaVersion: 9, AccountID: 1, PublicationID: 2}, true},
		{"rebuild ok", &RebuildEvent{SchemaVersion: SchemaVersion, AccountID: 1}, false},
		{"rebuild negative account", &RebuildEvent{SchemaVersion: SchemaVersion, AccountID: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.event.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidEvent) {
				t.Errorf("error %v does not wrap ErrInvalidEvent", err)
			}
		})
	}
}

func TestSerializer(t *testing.T) {
	t.Parallel()
	s := NewSerializer()

	if _, err := s.Marshal(&RefreshEvent{SchemaVersion: SchemaVersion}); !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("Marshal(invalid) error = %v, want ErrInvalidEvent", err)
	}

	in := &RefreshEvent{SchemaVersion: SchemaVersion, AccountID: 3, PublicationID: 4,
		RequestedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	data, err := s.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var out RefreshEvent
	if err := s.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if out.AccountID != 3 || out.PublicationID != 4 || !out.RequestedAt.Equal(in.RequestedAt) {
		t.Errorf("decoded %+v, want %+v", out, in)
	}

	if err := s.Unmarshal([]byte("{not json"), &out); !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("Unmarshal(garbage) error = %v, want ErrInvalidEvent", err)
	}
	if err := s.Unmarshal([]byte(`{"schema_version":1}`), &RebuildEvent{}); !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("Unmarshal(no account) error = %v, want ErrInvalidEvent", err)
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	defaultCfg := DefaultConfig()
	if err := defaultCfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative buffer", func(c *Config) { c.OutputBuffer = -1 }},
		{"zero job timeout", func(c *Config) { c.JobTimeout = 0 }},
		{"zero close timeout", func(c *Config) { c.Router.CloseTimeout = 0 }},
		{"negative retries", func(c *Config) { c.Router.RetryMaxRetries = -1 }},
		{"zero retry interval", func(c *Config) { c.Router.RetryInitialInterval = 0 }},
		{"shrinking multiplier", func(c *Config) { c.Router.RetryMultiplier = 0.5 }},
		{"negative throttle", func(c *Config) { c.Router.ThrottlePerSecond = -1 }},
		{"nats without url", func(c *Config) { c.NATS.Enabled = true; c.NATS.Embedded = false }},
		{"nats dotted stream", func(c *Config) { c.NATS.Enabled = true; c.NATS.StreamName = "a.b" }},
		{"nats zero max deliver", func(c *Config) { c.NATS.Enabled = true; c.NATS.MaxDeliver = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestDispatcherPublishes(t *testing.T) {
	t.Parallel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 8}, watermill.NopLogger{})
	defer pubSub.Close()

	refreshes, err := pubSub.Subscribe(context.Background(), TopicRefresh)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	rebuilds, err := pubSub.Subscribe(context.Background(), TopicRebuild)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	d, err := NewDispatcher(pubSub, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewDispatcher() error = %v", err)
	}

	ctx := logging.ContextWithCorrelationID(context.Background(), "corr-42")
	if err := d.DispatchRefresh(ctx, 7, 11); err != nil {
		t.Fatalf("DispatchRefresh() error = %v", err)
	}
	if err := d.DispatchRebuild(context.Background(), 7); err != nil {
		t.Fatalf("DispatchRebuild() error = %v", err)
	}

	select {
	case msg := <-refreshes:
		msg.Ack()
		if got := middleware.MessageCorrelationID(msg); got != "corr-42" {
			t.Errorf("correlation id = %q, want corr-42", got)
		}
		var ev RefreshEvent
		if err := NewSerializer().Unmarshal(msg.Payload, &ev); err != nil {
			t.Fatalf("payload invalid: %v", err)
		}
		if ev.AccountID != 7 || ev.PublicationID != 11 {
			t.Errorf("payload = %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("refresh not published")
	}

	select {
	case msg := <-rebuilds:
		msg.Ack()
		if middleware.MessageCorrelationID(msg) == "" {
			t.Error("rebuild message has no correlation id")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("rebuild not published")
	}

	if st := d.Stats(); st.Published != 2 || st.Failed != 0 {
		t.Errorf("Stats() = %+v", st)
	}
}

func TestDispatcherRejects(t *testing.T) {
	t.Parallel()

	if _, err := NewDispatcher(nil, zerolog.Nop()); !errors.Is(err, ErrNilPublisher) {
		t.Errorf("NewDispatcher(nil) error = %v", err)
	}

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()
	d, err := NewDispatcher(pubSub, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewDispatcher() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.DispatchRebuild(ctx, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled dispatch error = %v", err)
	}
	if err := d.DispatchRefresh(context.Background(), 1, 0); !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("invalid dispatch error = %v", err)
	}
	if st := d.Stats(); st.Failed != 2 || st.Published != 0 {
		t.Errorf("Stats() = %+v", st)
	}
}

func TestHandlers(t *testing.T) {
	t.Parallel()

	cache := &mockCache{}
	h, err := NewHandlers(cache, time.Second, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHandlers() error = %v", err)
	}

	if err := h.HandleRefresh(newMessage(t, &RefreshEvent{SchemaVersion: SchemaVersion, AccountID: 1, PublicationID: 2})); err != nil {
		t.Fatalf("HandleRefresh() error = %v", err)
	}
	if err := h.HandleRebuild(newMessage(t, &RebuildEvent{SchemaVersion: SchemaVersion, AccountID: 3})); err != nil {
		t.Fatalf("HandleRebuild() error = %v", err)
	}
	if len(cache.updates) != 1 || cache.updates[0] != [2]int64{1, 2} {
		t.Errorf("updates = %v", cache.updates)
	}
	if len(cache.rebuilds) != 1 || cache.rebuilds[0] != 3 {
		t.Errorf("rebuilds = %v", cache.rebuilds)
	}

	// Malformed payloads are acked and counted, never retried.
	bad := message.NewMessage("bad", []byte(`{"schema_version":1,"account_id":0}`))
	if err := h.HandleRebuild(bad); err != nil {
		t.Errorf("HandleRebuild(malformed) error = %v, want nil", err)
	}

	cache.err = errors.New("database is locked")
	if err := h.HandleRefresh(newMessage(t, &RefreshEvent{SchemaVersion: SchemaVersion, AccountID: 1, PublicationID: 2})); err == nil {
		t.Error("HandleRefresh() should return the cache error for retry")
	}

	st := h.Stats()
	if st.Processed != 2 || st.Invalid != 1 || st.Failed != 1 {
		t.Errorf("Stats() = %+v", st)
	}
}

func TestHandlersJobTimeout(t *testing.T) {
	t.Parallel()

	cache := &mockCache{block: true}
	h, err := NewHandlers(cache, 20*time.Millisecond, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHandlers() error = %v", err)
	}

	err = h.HandleRebuild(newMessage(t, &RebuildEvent{SchemaVersion: SchemaVersion, AccountID: 1}))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("HandleRebuild() error = %v, want deadline exceeded", err)
	}
}

func TestNewHandlersRejects(t *testing.T) {
	t.Parallel()

	if _, err := NewHandlers(nil, time.Second, zerolog.Nop()); err == nil {
		t.Error("nil cache accepted")
	}
	if _, err := NewHandlers(&mockCache{}, 0, zerolog.Nop()); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("zero timeout error = %v", err)
	}
}

func startProcessor(t *testing.T, cache *mockCache) *Processor {
	t.Helper()

	proc, err := NewProcessor(testConfig(), cache, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewProcessor() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- proc.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := proc.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
		<-done
	})

	select {
	case <-proc.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("router did not start")
	}
	return proc
}

func TestProcessorEndToEnd(t *testing.T) {
	t.Parallel()

	cache := &mockCache{}
	proc := startProcessor(t, cache)
	d := proc.Dispatcher()

	for i := int64(1); i <= 5; i++ {
		if err := d.DispatchRefresh(context.Background(), i, 100+i); err != nil {
			t.Fatalf("DispatchRefresh() error = %v", err)
		}
	}
	if err := d.DispatchRebuild(context.Background(), 9); err != nil {
		t.Fatalf("DispatchRebuild() error = %v", err)
	}

	waitFor(t, "jobs to be processed", func() bool {
		u, r := cache.counts()
		return u == 5 && r == 1
	})

	st := proc.Stats()
	if !st.Running || st.Dispatcher.Published != 6 || st.Transport != TransportGoChannel {
		t.Errorf("Stats() = %+v", st)
	}
}

func TestProcessorPoisonQueue(t *testing.T) {
	t.Parallel()

	cache := &mockCache{err: errors.New("disk full")}
	proc := startProcessor(t, cache)

	if err := proc.Dispatcher().DispatchRebuild(context.Background(), 4); err != nil {
		t.Fatalf("DispatchRebuild() error = %v", err)
	}

	waitFor(t, "job to reach the poison queue", func() bool {
		return proc.Stats().Handlers.Poisoned == 1
	})

	// One attempt plus one retry.
	if _, r := cache.counts(); r != 2 {
		t.Errorf("rebuild attempts = %d, want 2", r)
	}
}

func TestProcessorRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.JobTimeout = 0
	if _, err := NewProcessor(cfg, &mockCache{}, zerolog.Nop()); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("NewProcessor() error = %v", err)
	}
}
