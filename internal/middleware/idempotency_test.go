package middleware_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Strob0t/PMForge/internal/middleware"
	"github.com/Strob0t/PMForge/internal/port/cache"
)

// memCache is an in-memory cache.Cache for testing.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memCache) Reserve(_ context.Context, key string, value []byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = value
	return true, nil
}

func (m *memCache) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

// plainCache hides Reserve so the lookup-only path is exercised.
type plainCache struct{ cache.Cache }

func countingHandler(status int) (http.Handler, *int) {
	calls := 0
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = fmt.Fprintf(w, `{"call":%d}`, calls)
	}), &calls
}

func do(t *testing.T, h http.Handler, method, path, key string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(`{}`))
	if key != "" {
		req.Header.Set(middleware.HeaderIdempotencyKey, key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIdempotencyReplaysResponse(t *testing.T) {
	inner, calls := countingHandler(http.StatusCreated)
	h := middleware.Idempotency(newMemCache(), time.Hour)(inner)

	first := do(t, h, http.MethodPost, "/api/v1/projects/p1/chat/messages", "k1")
	second := do(t, h, http.MethodPost, "/api/v1/projects/p1/chat/messages", "k1")

	if *calls != 1 {
		t.Fatalf("handler called %d times, want 1", *calls)
	}
	if second.Code != http.StatusCreated {
		t.Errorf("replayed status = %d, want 201", second.Code)
	}
	if first.Body.String() != second.Body.String() {
		t.Errorf("replayed body %q != original %q", second.Body.String(), first.Body.String())
	}
	if second.Header().Get(middleware.HeaderIdempotentReplay) != "true" {
		t.Error("expected replay header")
	}
	if second.Header().Get("Content-Type") != "application/json" {
		t.Errorf("content type = %q", second.Header().Get("Content-Type"))
	}
}

func TestIdempotencyKeyScopedByPath(t *testing.T) {
	inner, calls := countingHandler(http.StatusCreated)
	h := middleware.Idempotency(newMemCache(), time.Hour)(inner)

	do(t, h, http.MethodPost, "/a", "same")
	do(t, h, http.MethodPost, "/b", "same")
	if *calls != 2 {
		t.Errorf("handler called %d times, want 2", *calls)
	}
}

func TestIdempotencyPassThrough(t *testing.T) {
	tests := []struct {
		name   string
		method string
		key    string
	}{
		{"no key", http.MethodPost, ""},
		{"GET ignored", http.MethodGet, "k"},
		{"oversized key", http.MethodPost, strings.Repeat("k", 201)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner, calls := countingHandler(http.StatusOK)
			h := middleware.Idempotency(newMemCache(), time.Hour)(inner)
			do(t, h, tt.method, "/x", tt.key)
			do(t, h, tt.method, "/x", tt.key)
			if *calls != 2 {
				t.Errorf("handler called %d times, want 2", *calls)
			}
		})
	}
}

func TestIdempotencyServerErrorNotStored(t *testing.T) {
	inner, calls := countingHandler(http.StatusInternalServerError)
	h := middleware.Idempotency(newMemCache(), time.Hour)(inner)

	do(t, h, http.MethodPost, "/x", "k")
	do(t, h, http.MethodPost, "/x", "k")
	if *calls != 2 {
		t.Errorf("handler called %d times, want 2 (5xx must not be replayed)", *calls)
	}
}

func TestIdempotencyConcurrentDuplicateRunsOnce(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	calls := 0
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		close(entered)
		<-release
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"m1"}`))
	})
	h := middleware.Idempotency(newMemCache(), time.Hour)(inner)

	path := "/api/v1/projects/p1/chat/messages"
	first := make(chan *httptest.ResponseRecorder, 1)
	go func() { first <- do(t, h, http.MethodPost, path, "k1") }()
	<-entered

	dup := do(t, h, http.MethodPost, path, "k1")
	if dup.Code != http.StatusConflict {
		t.Fatalf("in-flight duplicate status = %d, want 409", dup.Code)
	}
	if dup.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After on in-flight duplicate")
	}

	close(release)
	if rec := <-first; rec.Code != http.StatusCreated {
		t.Fatalf("first status = %d, want 201", rec.Code)
	}

	replayed := do(t, h, http.MethodPost, path, "k1")
	if replayed.Code != http.StatusCreated || replayed.Body.String() != `{"id":"m1"}` {
		t.Errorf("replay = %d %q", replayed.Code, replayed.Body.String())
	}
	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("handler called %d times, want 1", calls)
	}
}

func TestIdempotencyReservationReleased(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		store := newMemCache()
		inner, calls := countingHandler(http.StatusBadGateway)
		h := middleware.Idempotency(store, time.Hour)(inner)

		do(t, h, http.MethodPost, "/x", "k")
		if store.len() != 0 {
			t.Fatalf("reservation kept after 5xx: %d entries", store.len())
		}
		do(t, h, http.MethodPost, "/x", "k")
		if *calls != 2 {
			t.Errorf("handler called %d times, want 2", *calls)
		}
	})

	t.Run("panic", func(t *testing.T) {
		store := newMemCache()
		h := middleware.Idempotency(store, time.Hour)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}))
		func() {
			defer func() { _ = recover() }()
			do(t, h, http.MethodPost, "/x", "k")
		}()
		if store.len() != 0 {
			t.Errorf("reservation kept after panic: %d entries", store.len())
		}
	})
}

func TestIdempotencyWithoutReserver(t *testing.T) {
	inner, calls := countingHandler(http.StatusCreated)
	h := middleware.Idempotency(plainCache{newMemCache()}, time.Hour)(inner)

	first := do(t, h, http.MethodPost, "/x", "k")
	second := do(t, h, http.MethodPost, "/x", "k")
	if *calls != 1 || first.Body.String() != second.Body.String() {
		t.Errorf("calls = %d, bodies %q / %q", *calls, first.Body.String(), second.Body.String())
	}
}
