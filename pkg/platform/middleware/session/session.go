// Package session lifts the caller's raw session token into the request context.
//
// It never rejects a request: validation belongs to the identity service, and
// public routes must keep working for anonymous visitors.
package session

import (
	"net/http"
	"strings"

	"casestatus/pkg/requestcontext"
)

// DefaultCookieName is the cookie the login front-end sets.
const DefaultCookieName = "casestatus_session"

// maxTokenLength rejects oversized values before they reach JWT parsing.
const maxTokenLength = 4096

// Config controls where the token is read from.
type Config struct {
	CookieName string
}

// Extract reads the token from `Authorization: Bearer` first, then from the
// session cookie, and stores it with requestcontext.WithSessionToken.
func Extract(cfg Config) func(http.Handler) http.Handler {
	cookieName := cfg.CookieName
	if cookieName == "" {
		cookieName = DefaultCookieName
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := tokenFromRequest(r, cookieName); token != "" {
				r = r.WithContext(requestcontext.WithSessionToken(r.Context(), token))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func tokenFromRequest(r *http.Request, cookieName string) string {
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return sanitize(token)
	}
	if cookie, err := r.Cookie(cookieName); err == nil {
		return sanitize(cookie.Value)
	}
	return ""
}

func sanitize(token string) string {
	token = strings.TrimSpace(token)
	if len(token) > maxTokenLength {
		return ""
	}
	return token
}
