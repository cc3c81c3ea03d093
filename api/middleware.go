package api

import (
	"crypto/subtle"
	"net/http"
)

// APIKeyHeader carries the shared secret for manager and cashier routes.
const APIKeyHeader = "X-API-Key"

// RequireAPIKey rejects requests without the shared secret: 401 when the
// header is missing, 403 when it does not match. An empty key disables the check.
func RequireAPIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(APIKeyHeader)
			if got == "" {
				writeError(w, http.StatusUnauthorized, "API key required", nil)
				return
			}
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				writeError(w, http.StatusForbidden, "Invalid API key", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
