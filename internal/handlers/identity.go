// internal/handlers/identity.go
package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/oracle/internal/apperrors"
	"github.com/jason-s-yu/oracle/internal/auth"
	"github.com/jason-s-yu/oracle/internal/entitlement"
)

const (
	// GuestCookieName holds the anonymous handle the trial counter is keyed by.
	GuestCookieName = "guest_token"
	// TrialUsesHeader carries the client's own count of free uses, in both directions.
	TrialUsesHeader = "X-Trial-Uses"

	guestCookieMaxAge = 30 * 24 * time.Hour
)

var errSignInRequired = apperrors.New(apperrors.ErrUnauthorized, "Unauthorized. Please sign in.")

// resolveCaller identifies the caller of a trial-capable endpoint. A missing or invalid
// token makes the caller anonymous rather than failing the request. Anonymous callers
// without a guest handle are issued one.
func (s *APIServer) resolveCaller(w http.ResponseWriter, r *http.Request) entitlement.Caller {
	if token := auth.TokenFromRequest(r); token != "" {
		if id, err := s.accounts.Identify(token); err == nil {
			return entitlement.Authenticated(id)
		}
	}
	return entitlement.Anonymous(s.guestToken(w, r), reportedUses(r))
}

// requireUser returns the id of the signed-in caller.
func (s *APIServer) requireUser(r *http.Request) (uuid.UUID, error) {
	id, err := s.accounts.Identify(auth.TokenFromRequest(r))
	if err != nil {
		return uuid.Nil, errSignInRequired
	}
	return id, nil
}

// authenticatedCaller is requireUser for the history endpoints, which take a Caller.
func (s *APIServer) authenticatedCaller(r *http.Request) (entitlement.Caller, error) {
	id, err := s.requireUser(r)
	if err != nil {
		return entitlement.Caller{}, err
	}
	return entitlement.Authenticated(id), nil
}

func (s *APIServer) guestToken(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(GuestCookieName); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}
	token := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     GuestCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(guestCookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return token
}

func reportedUses(r *http.Request) int {
	n, err := strconv.Atoi(strings.TrimSpace(r.Header.Get(TrialUsesHeader)))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// setAuthCookie stores a freshly issued session token. A token that never expires
// gets a session cookie.
func (s *APIServer) setAuthCookie(w http.ResponseWriter, token string) {
	c := &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl := s.accounts.TokenTTL(); ttl > 0 {
		c.MaxAge = int(ttl.Seconds())
	}
	http.SetCookie(w, c)
}

// writeTrialHeader reports the anonymous caller's updated use count.
func writeTrialHeader(w http.ResponseWriter, caller entitlement.Caller, d entitlement.Decision) {
	if !caller.IsAuthenticated() {
		w.Header().Set(TrialUsesHeader, strconv.Itoa(d.Uses))
	}
}
