// Package identity resolves the anonymous client session token for each request.
package identity

import (
	"context"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	SessionCookieName     = "coach_session"
	SessionHeaderName     = "X-Session-ID"
	DefaultSessionIDValue = "anonymous"
	sessionCookieMaxAge   = 30 * 24 * time.Hour
)

type contextKey int

const (
	sessionIDKey contextKey = iota
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// SessionIDFromContext extracts the session token from the request context.
func SessionIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(sessionIDKey).(string); ok {
		return v
	}
	return DefaultSessionIDValue
}

// WithSessionID returns a context carrying sessionID.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// NewSessionID mints a fresh session token.
func NewSessionID() string {
	return "sess_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// IsValidSessionID reports whether id is an acceptable client-supplied token.
func IsValidSessionID(id string) bool {
	return sessionIDPattern.MatchString(id)
}

// SanitizeSessionID trims id and returns "" when it is not acceptable.
func SanitizeSessionID(id string) string {
	id = strings.TrimSpace(id)
	if !IsValidSessionID(id) {
		return ""
	}
	return id
}

func sessionIDFromRequest(r *http.Request) string {
	if sid := SanitizeSessionID(r.Header.Get(SessionHeaderName)); sid != "" {
		return sid
	}
	if sid := SanitizeSessionID(r.URL.Query().Get("session_id")); sid != "" {
		return sid
	}
	return CookieSessionID(r)
}

// CookieSessionID returns the token carried by the session cookie, or "" when
// the request has none. Unlike the context value it ignores the header and
// query forms.
func CookieSessionID(r *http.Request) string {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return SanitizeSessionID(c.Value)
}

func setSessionCookie(w http.ResponseWriter, id string, isDev bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(sessionCookieMaxAge.Seconds()),
		Expires:  time.Now().Add(sessionCookieMaxAge),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   !isDev,
	})
}

// Middleware injects the session token into the request context. Clients
// normally send their own token; when none is present one is minted and
// returned as a cookie.
func Middleware(isDev bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := sessionIDFromRequest(r)
			if sessionID == "" {
				sessionID = NewSessionID()
				setSessionCookie(w, sessionID, isDev)
			}
			next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), sessionID)))
		})
	}
}

// IPFromRequest returns a normalized remote IP. chi's RealIP middleware has
// already applied forwarding headers by the time this runs.
func IPFromRequest(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
