package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

// RequireAdmin rejects requests unless the session user holds the admin role.
// There is no re-verification against the user store after login; the role
// set captured in the session is what gets checked.
func RequireAdmin(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetSessionUser(r.Context())
			if !ok {
				logger.Debug("No session user on admin route",
					zap.String("path", r.URL.Path),
				)
				RespondWithError(w, http.StatusUnauthorized, "login required")
				return
			}

			if !user.IsAdmin() {
				logger.Warn("Non-admin user attempted to access admin route",
					zap.String("user_id", user.ID),
					zap.Strings("roles", user.Roles),
					zap.String("path", r.URL.Path),
				)
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
