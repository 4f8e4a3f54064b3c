package api

import (
	"context"
	"net/http"
	"time"

	"github.com/vytor/tenxcards/internal/logger"
)

// handleHealth is the liveness probe and always returns 200 OK.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// handleReady returns 200 when the database and, if configured, the shared
// rate-limit store answer a ping, 503 otherwise.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	checks := []struct {
		name   string
		pinger Pinger
		body   string
	}{
		{"database", s.DB, "Database unavailable"},
		{"rate limit store", s.LimitStore, "Rate limit store unavailable"},
	}
	for _, c := range checks {
		if c.pinger == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		err := c.pinger.PingContext(ctx)
		cancel()
		if err != nil {
			log.Warn("readiness check failed - %s: %v", c.name, err)
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(c.body))
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Ready"))
}
