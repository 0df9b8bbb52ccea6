package security

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SessionCookieName is the cookie holding the signed session token
const SessionCookieName = "readinglog_session"

// GenerateSessionID returns a random session identifier
func GenerateSessionID() string {
	return uuid.NewString()
}

// IsSecureRequest reports whether the client reached us over HTTPS, either
// directly or through a proxy that sets X-Forwarded-Proto.
func IsSecureRequest(r *http.Request) bool {
	switch {
	case r.TLS != nil:
		return true
	case strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https"):
		return true
	}
	return r.URL.Scheme == "https"
}

func baseCookie(r *http.Request) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Path:     "/",
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	}
}

// CreateSessionCookie carries token until expires
func CreateSessionCookie(r *http.Request, token string, expires time.Time) *http.Cookie {
	c := baseCookie(r)
	c.Value = token
	c.Expires = expires
	return c
}

// CreateDeleteCookie tells the browser to drop the session cookie
func CreateDeleteCookie(r *http.Request) *http.Cookie {
	c := baseCookie(r)
	c.MaxAge = -1
	return c
}
