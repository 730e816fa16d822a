package mcp

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// AuthMiddleware guards the MCP endpoint with a shared key, sent either as
// "Authorization: Bearer <key>" or as X-API-Key. An empty apiKey disables
// the check.
func AuthMiddleware(apiKey string, next http.Handler) http.Handler {
	if apiKey == "" {
		return next
	}
	want := []byte(apiKey)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-API-Key")
		if key == "" {
			key = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		}
		switch {
		case key == "":
			w.Header().Set("WWW-Authenticate", `Bearer realm="pmforge-mcp"`)
			http.Error(w, "missing api key", http.StatusUnauthorized)
		case subtle.ConstantTimeCompare([]byte(key), want) != 1:
			http.Error(w, "invalid api key", http.StatusForbidden)
		default:
			next.ServeHTTP(w, r)
		}
	})
}
