package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/Strob0t/PMForge/internal/port/cache"
)

const (
	// HeaderIdempotencyKey names the client-chosen deduplication key.
	HeaderIdempotencyKey = "Idempotency-Key"
	// HeaderIdempotentReplay is set on responses served from the store.
	HeaderIdempotentReplay = "Idempotent-Replay"

	maxIdempotencyBody = 1 << 20 // 1 MB
	maxIdempotencyKey  = 200
)

// Reserver is implemented by idempotency stores that can claim a key
// atomically. Reserve stores value only when key is absent and reports
// whether it did.
type Reserver interface {
	Reserve(ctx context.Context, key string, value []byte) (bool, error)
}

// idempotencyEntry stores a recorded HTTP response. A pending entry marks a
// request that is still being handled.
type idempotencyEntry struct {
	Pending    bool                `json:"pending,omitempty"`
	StatusCode int                 `json:"status_code,omitempty"`
	Headers    map[string][]string `json:"headers,omitempty"`
	Body       []byte              `json:"body,omitempty"`
}

var pendingEntry = []byte(`{"pending":true}`)

// Idempotency returns middleware that deduplicates POST/PUT/DELETE requests
// carrying an Idempotency-Key header. The first response for a key (scoped by
// method and path) is stored for ttl and replayed to later requests with the
// same key. 5xx responses are not stored so the client may retry them.
//
// When store implements Reserver the key is claimed before the handler runs,
// and a duplicate arriving while the first is in flight gets 409 Conflict.
// Other stores only deduplicate requests that arrive after the first
// response was stored.
func Idempotency(store cache.Cache, ttl time.Duration) func(http.Handler) http.Handler {
	reserver, _ := store.(Reserver)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(HeaderIdempotencyKey)
			if key == "" || len(key) > maxIdempotencyKey {
				next.ServeHTTP(w, r)
				return
			}
			storeKey := "idem:" + r.Method + ":" + r.URL.Path + ":" + key

			ctx := r.Context()
			reserved := false
			if reserver != nil {
				ok, err := reserver.Reserve(ctx, storeKey, pendingEntry)
				if err != nil {
					slog.WarnContext(ctx, "idempotency reserve failed", "key", key, "error", err)
				}
				reserved = ok
			}

			if !reserved {
				data, ok, err := store.Get(ctx, storeKey)
				switch {
				case err != nil:
					slog.WarnContext(ctx, "idempotency lookup failed", "key", key, "error", err)
				case ok:
					var cached idempotencyEntry
					if err := json.Unmarshal(data, &cached); err != nil {
						slog.WarnContext(ctx, "idempotency: corrupt entry", "key", key)
						break
					}
					if cached.Pending {
						w.Header().Set("Content-Type", "application/json")
						w.Header().Set("Retry-After", "1")
						w.WriteHeader(http.StatusConflict)
						_, _ = w.Write([]byte(`{"error":"a request with this idempotency key is in progress"}`))
						return
					}
					replay(w, cached)
					return
				}
			}

			rec := &responseRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
				body:           &bytes.Buffer{},
			}
			stored := false
			if reserved {
				// Release the claim unless a response replaces it, so a
				// failed or panicking request can be retried.
				defer func() {
					if !stored {
						if err := store.Delete(context.WithoutCancel(ctx), storeKey); err != nil {
							slog.WarnContext(ctx, "idempotency: release failed", "key", key, "error", err)
						}
					}
				}()
			}
			next.ServeHTTP(rec, r)

			if rec.statusCode >= http.StatusInternalServerError || rec.body.Len() > maxIdempotencyBody {
				return
			}
			headers := make(map[string][]string)
			if ct := w.Header().Get("Content-Type"); ct != "" {
				headers["Content-Type"] = []string{ct}
			}
			entry, err := json.Marshal(idempotencyEntry{
				StatusCode: rec.statusCode,
				Headers:    headers,
				Body:       rec.body.Bytes(),
			})
			if err != nil {
				return
			}
			if err := store.Set(ctx, storeKey, entry, ttl); err != nil {
				slog.WarnContext(ctx, "idempotency: store failed", "key", key, "error", err)
				return
			}
			stored = true
		})
	}
}

func replay(w http.ResponseWriter, cached idempotencyEntry) {
	for k, vals := range cached.Headers {
		for _, v := range vals {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set(HeaderIdempotentReplay, "true")
	w.WriteHeader(cached.StatusCode)
	_, _ = w.Write(cached.Body)
}

// responseRecorder wraps http.ResponseWriter to capture the response.
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
