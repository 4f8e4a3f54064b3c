package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/vytor/tenxcards/internal/logger"
)

const sessionMaxAge = 7 * 24 * time.Hour

type setSessionRequest struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type sessionResponse struct {
	Success bool         `json:"success"`
	User    *sessionUser `json:"user,omitempty"`
	Error   string       `json:"error,omitempty"`
}

type sessionUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// handleSetSession stores tokens obtained from the hosted auth provider in
// HttpOnly cookies after verifying the access token.
func (s *Server) handleSetSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req setSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, sessionResponse{Error: "Invalid request body"})
		return
	}
	req.AccessToken = strings.TrimSpace(req.AccessToken)
	req.RefreshToken = strings.TrimSpace(req.RefreshToken)
	if req.AccessToken == "" || req.RefreshToken == "" {
		writeJSON(w, r, http.StatusBadRequest, sessionResponse{Error: "Missing tokens"})
		return
	}

	id, err := s.Auth.Authenticate(r.Context(), req.AccessToken)
	if err != nil {
		log.Warn("set-session rejected: %v", err)
		writeJSON(w, r, http.StatusUnauthorized, sessionResponse{Error: "Invalid session"})
		return
	}

	s.setSessionCookie(w, accessTokenCookie, req.AccessToken, sessionMaxAge)
	s.setSessionCookie(w, refreshTokenCookie, req.RefreshToken, sessionMaxAge)
	log.Info("session established for user %s", id.UserID)

	writeJSON(w, r, http.StatusOK, sessionResponse{
		Success: true,
		User:    &sessionUser{ID: id.UserID, Email: id.Email},
	})
}

// handleSignout clears the session cookies. It succeeds even without a
// session.
func (s *Server) handleSignout(w http.ResponseWriter, r *http.Request) {
	s.setSessionCookie(w, accessTokenCookie, "", -1)
	s.setSessionCookie(w, refreshTokenCookie, "", -1)
	writeJSON(w, r, http.StatusOK, sessionResponse{Success: true})
}

// setSessionCookie writes a session cookie; a negative maxAge deletes it.
func (s *Server) setSessionCookie(w http.ResponseWriter, name, value string, maxAge time.Duration) {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if maxAge < 0 {
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
	} else {
		c.MaxAge = int(maxAge.Seconds())
		c.Expires = time.Now().Add(maxAge)
	}
	http.SetCookie(w, c)
}
