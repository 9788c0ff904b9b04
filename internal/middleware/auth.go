package middleware

import (
	"net/http"
	"strings"
)

// TokenValidator validates an access token and returns the user ID and role it carries
type TokenValidator interface {
	ValidateAccessToken(token string) (int, int, error)
}

// AuthMiddleware admits any authenticated learner
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return RoleMiddleware(validator, 0)
}

// RoleMiddleware admits callers whose token role is at least requiredRole and
// stores their identity in the request context
func RoleMiddleware(validator TokenValidator, requiredRole int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				writeJSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			userID, role, err := validator.ValidateAccessToken(token)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			if role < requiredRole {
				writeJSONError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), userID, role)))
		})
	}
}

// extractToken prefers the Authorization bearer token. Browsers opening an
// EventSource cannot set headers, so the access_token cookie is accepted too.
func extractToken(r *http.Request) string {
	if scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " "); ok && strings.EqualFold(scheme, "bearer") {
		return strings.TrimSpace(token)
	}

	if cookie, err := r.Cookie("access_token"); err == nil {
		return cookie.Value
	}
	return ""
}
