package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/pirateclash/internal/api/apierr"
	"github.com/mcoot/pirateclash/internal/model"
	"github.com/mcoot/pirateclash/internal/services/auth"
)

// SessionCookie is the cookie checked when no bearer token is sent
const SessionCookie = "session"

type sessionKey struct{}

// SessionValidator resolves bearer tokens to sessions
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (*auth.Session, error)
}

// Auth rejects requests without a valid session
func Auth(sessions SessionValidator) func(http.Handler) http.Handler {
	return authenticate(sessions, true)
}

// OptionalAuth attaches the session when the token is valid and otherwise
// serves the request anonymously
func OptionalAuth(sessions SessionValidator) func(http.Handler) http.Handler {
	return authenticate(sessions, false)
}

func authenticate(sessions SessionValidator, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				if required {
					apierr.WriteError(w, apierr.NewUnauthorizedError())
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			session, err := sessions.ValidateSession(r.Context(), token)
			if err != nil {
				if required {
					apierr.WriteError(w, err)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, session)))
		})
	}
}

// bearerToken reads the Authorization header, then the session cookie
func bearerToken(r *http.Request) string {
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// GetSession returns the request's session, or nil when anonymous
func GetSession(ctx context.Context) *auth.Session {
	session, _ := ctx.Value(sessionKey{}).(*auth.Session)
	return session
}

// GetPlayer returns the authenticated player, or nil when anonymous
func GetPlayer(ctx context.Context) *model.Player {
	if session := GetSession(ctx); session != nil {
		return session.Player
	}
	return nil
}

// PlayerID returns the authenticated player's ID, or "" when anonymous
func PlayerID(ctx context.Context) model.PlayerID {
	if session := GetSession(ctx); session != nil {
		return session.PlayerID
	}
	return ""
}
