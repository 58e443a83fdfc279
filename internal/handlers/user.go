// internal/handlers/user.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/jason-s-yu/oracle/internal/apperrors"
	"github.com/jason-s-yu/oracle/internal/auth"
	"github.com/jason-s-yu/oracle/internal/models"
)

// RegisterHandler creates an account and signs it in.
//
// Request payload: { "username", "email", "password", "birth_date"?, "birth_time"?, "gender"? }
func (s *APIServer) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req auth.Registration
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	user, token, err := s.accounts.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	s.setAuthCookie(w, token)
	writeJSON(w, http.StatusCreated, envelope{
		"message": "Account created successfully",
		"token":   token,
		"user":    user,
	})
}

// LoginHandler exchanges email and password for a session token.
func (s *APIServer) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	user, token, err := s.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	s.setAuthCookie(w, token)
	writeJSON(w, http.StatusOK, envelope{
		"message": "Sign in successful",
		"token":   token,
		"user":    user,
	})
}

// LogoutHandler clears the session cookie. Bearer tokens are simply discarded by the client.
func (s *APIServer) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
	})
	writeJSON(w, http.StatusOK, envelope{"message": "Signed out"})
}

func (s *APIServer) MeHandler(w http.ResponseWriter, r *http.Request) {
	id, err := s.requireUser(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	user, err := s.accounts.User(r.Context(), id)
	if errors.Is(err, apperrors.ErrNotFound) {
		// The token outlived its account.
		err = apperrors.New(apperrors.ErrUnauthorized, "User not found")
	}
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"user": user})
}

// UpdateMeHandler replaces the caller's birth profile. Omitted fields are cleared.
func (s *APIServer) UpdateMeHandler(w http.ResponseWriter, r *http.Request) {
	id, err := s.requireUser(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	var profile models.Profile
	if err := decodeJSON(w, r, &profile); err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	user, err := s.accounts.UpdateProfile(r.Context(), id, profile)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"message": "Profile updated successfully",
		"user":    user,
	})
}
