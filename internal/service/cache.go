package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Strob0t/PMForge/internal/port/cache"
)

// readCacheTTL bounds how long a cached read survives without invalidation.
const readCacheTTL = 5 * time.Minute

func projectKey(id string) string { return "project:" + id }
func prdKey(projectID string) string { return "prd:" + projectID }
func specKey(projectID string) string { return "spec:" + projectID }

// projectKeys lists every cache key derived from a project.
func projectKeys(projectID string) []string {
	return []string{projectKey(projectID), prdKey(projectID), specKey(projectID)}
}

// cachedGet returns the cached value for key or loads and caches it. Cache
// failures fall through to load. Errors from load (including not found) are
// never cached.
func cachedGet[T any](ctx context.Context, c cache.Cache, key string, load func(context.Context) (*T, error)) (*T, error) {
	if c == nil {
		return load(ctx)
	}

	if data, ok, err := c.Get(ctx, key); err != nil {
		slog.WarnContext(ctx, "cache read failed", "key", key, "error", err)
	} else if ok {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			return &v, nil
		}
		slog.WarnContext(ctx, "cache entry corrupt", "key", key)
	}

	v, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(v); err == nil {
		if err := c.Set(ctx, key, data, readCacheTTL); err != nil {
			slog.WarnContext(ctx, "cache write failed", "key", key, "error", err)
		}
	}
	return v, nil
}
