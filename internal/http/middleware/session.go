package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/vxplore/Clinik-pe-sub000/internal/session"
	"github.com/vxplore/Clinik-pe-sub000/pkg/logging"
)

// LoginRoute is where unauthenticated users are sent.
const LoginRoute = "/login"

// TokenParser verifies a session token and returns the session id.
type TokenParser interface {
	Parse(token string) (string, error)
}

// SessionLoader loads a stored session.
type SessionLoader interface {
	Get(ctx context.Context, id string) (session.Session, error)
}

// RequireSession resolves the session cookie (or bearer token) into a
// session.Session on the request context. Requests without a live session
// get 401 with a redirect to the login page.
func RequireSession(tokens TokenParser, sessions SessionLoader, logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := tokens.Parse(session.TokenFromRequest(r))
			if err != nil {
				unauthorized(w)
				return
			}
			sess, err := sessions.Get(r.Context(), id)
			if err != nil {
				if !errors.Is(err, session.ErrNotFound) {
					logger.Error("session lookup failed", "session_id", id, "error", err)
				}
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), sess)))
		})
	}
}

// RequireKind rejects sessions of another kind with 403. It must run after
// RequireSession.
func RequireKind(kind session.Kind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := session.FromContext(r.Context())
			if !ok {
				unauthorized(w)
				return
			}
			if sess.Kind != kind {
				writeJSON(w, http.StatusForbidden, map[string]any{
					"success": false,
					"message": "You do not have access to this page",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, map[string]any{
		"success":  false,
		"message":  "Your session has expired. Please log in again.",
		"redirect": LoginRoute,
	})
}
