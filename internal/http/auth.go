package http

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// extractBearerToken extracts a bearer token from the Authorization header.
func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(auth, "Bearer ")
}

// tokenMatch performs a constant-time comparison of a provided token against the expected token.
// Returns true if expected is empty (no auth configured) or if tokens match.
func tokenMatch(provided, expected string) bool {
	if expected == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) == 1
}

// requireToken rejects requests whose bearer token does not match the
// current token. token is read per request so reloads take effect.
func requireToken(token func() string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !tokenMatch(extractBearerToken(c.Request), token()) {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
			return
		}
		c.Next()
	}
}
