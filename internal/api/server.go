package api

import (
	"context"
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/vytor/tenxcards/internal/auth"
	"github.com/vytor/tenxcards/internal/errors"
	"github.com/vytor/tenxcards/internal/logger"
	"github.com/vytor/tenxcards/internal/ratelimit"
	"github.com/vytor/tenxcards/internal/services"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	GenerationService services.GenerationService
	FlashcardService  services.FlashcardService
	Auth              auth.Strategy
	// Limiter is the general per-user request limiter; nil disables it.
	Limiter *ratelimit.Limiter
	DB      Pinger
	// LimitStore is checked by /readyz when the limiter uses a shared store.
	LimitStore   Pinger
	Templates    *template.Template
	CookieSecure bool
}

type pageData map[string]any

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data pageData) {
	if data == nil {
		data = pageData{}
	}
	if _, ok := data["identity"]; !ok {
		if id, ok := identityFromContext(r.Context()); ok {
			data["identity"] = id
		}
	}

	log := logger.FromContext(r.Context())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.Templates.ExecuteTemplate(w, name, data); err != nil {
		log.Error("failed to render template %s: %v", name, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContext(r.Context()).Warn("failed to encode response: %v", err)
	}
}

// decodeJSON reads a JSON request body into dst, rejecting unknown trailing
// content.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		return errors.NewBadRequestError("Invalid JSON in request body")
	}
	if dec.More() {
		return errors.NewBadRequestError("Invalid JSON in request body")
	}
	return nil
}
