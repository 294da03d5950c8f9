package http

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// ══════════════════════════════════════════════════════════════════════════════
// API-KEY AUTHENTICATION
// The engine sits behind the LMS backend, which calls it with a shared
// service key. Identity of the end learner is the caller's concern; the
// engine only verifies that the caller holds a provisioned key. Keys are
// stored as bcrypt hashes so a leaked configuration does not leak the keys.
// ══════════════════════════════════════════════════════════════════════════════

// openPaths are reachable without a key: probes and the root banner.
var openPaths = map[string]bool{
	"/":        true,
	"/health":  true,
	"/healthz": true,
	"/ready":   true,
	"/live":    true,
}

// authMiddleware verifies the API key against the configured bcrypt hashes.
// An empty hash list disables authentication entirely (development only;
// config validation rejects that in production).
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(s.config.APIKeyHashes) == 0 || openPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get(s.config.APIKeyHeader)
		if key == "" {
			writeJSONError(w, http.StatusUnauthorized, "missing_api_key", "API key is required")
			return
		}

		if !s.verifyAPIKey(key) {
			writeJSONError(w, http.StatusUnauthorized, "invalid_api_key", "API key is not valid")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// verifyAPIKey compares the presented key against every configured hash.
// The list is small (one key per calling service), so the linear scan over
// bcrypt comparisons is fine.
func (s *Server) verifyAPIKey(key string) bool {
	for _, hash := range s.config.APIKeyHashes {
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil {
			return true
		}
	}
	return false
}
