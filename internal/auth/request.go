// internal/auth/request.go
package auth

import (
	"net/http"
	"strings"
)

// CookieName carries the session token for browser clients.
const CookieName = "auth_token"

// TokenFromRequest returns the bearer token, falling back to the auth cookie.
// It returns "" when the request carries neither.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}
