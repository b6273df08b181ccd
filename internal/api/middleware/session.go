package middleware

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ukair/dataselector/internal/session"
)

// sessionIDKey is the context key for the session ID.
type sessionIDKey struct{}

// Session attaches a session ID to every request. A valid session cookie
// is decoded; a missing or tampered cookie gets a fresh session and a new
// cookie. No identity is involved, the cookie only names the session.
func Session(codec *session.CookieCodec, log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var sessionID string

			if cookie, err := r.Cookie(session.CookieName); err == nil {
				if sid, err := codec.Decode(cookie.Value); err == nil {
					sessionID = sid
				}
			}

			if sessionID == "" {
				sessionID = session.NewSessionID()
				cookie, err := codec.Issue(sessionID)
				if err != nil {
					log.Error().Err(err).Msg("failed to issue session cookie")
				} else {
					http.SetCookie(w, cookie)
				}
			}

			ctx := context.WithValue(r.Context(), sessionIDKey{}, sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithSessionID returns a context carrying the given session ID.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, sessionID)
}

// GetSessionID retrieves the session ID from the context.
func GetSessionID(ctx context.Context) string {
	if id, ok := ctx.Value(sessionIDKey{}).(string); ok {
		return id
	}
	return ""
}
