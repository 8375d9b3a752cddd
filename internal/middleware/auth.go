package middleware

import (
	"context"
	"net/http"

	"fusionic/internal/session"

	"go.uber.org/zap"
)

type contextKey string

const (
	// SessionIDKey holds the session identifier for the request
	SessionIDKey contextKey = "session_id"
	// SessionUserKey holds the logged-in session user, when present
	SessionUserKey contextKey = "session_user"
)

// SessionMiddleware resolves the session for every request: it verifies the
// signed session cookie (or mints a fresh session), loads the session user if
// somebody is logged in, and puts both on the request context.
func SessionMiddleware(sessions *session.Manager, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid, fresh := sessions.Load(r)
			if fresh {
				if err := sessions.Attach(w, sid); err != nil {
					logger.Error("Failed to attach session cookie", zap.Error(err))
					RespondWithError(w, http.StatusInternalServerError, "internal server error")
					return
				}
			}

			ctx := context.WithValue(r.Context(), SessionIDKey, sid)

			if user, err := sessions.User(ctx, sid); err == nil {
				ctx = context.WithValue(ctx, SessionUserKey, user)
			} else if err != session.ErrNoSessionUser {
				logger.Error("Failed to load session user",
					zap.String("session_id", sid),
					zap.Error(err),
				)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSessionID extracts the session identifier from the request context
func GetSessionID(ctx context.Context) (string, bool) {
	sid, ok := ctx.Value(SessionIDKey).(string)
	return sid, ok
}

// GetSessionUser extracts the logged-in user from the request context
func GetSessionUser(ctx context.Context) (*session.SessionUser, bool) {
	user, ok := ctx.Value(SessionUserKey).(*session.SessionUser)
	return user, ok
}

// RequireLogin rejects requests without a logged-in session user
func RequireLogin(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := GetSessionUser(r.Context()); !ok {
				logger.Debug("Unauthenticated request to protected route",
					zap.String("path", r.URL.Path),
				)
				RespondWithError(w, http.StatusUnauthorized, "login required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
