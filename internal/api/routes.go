package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes builds the router. Every request passes the admission chain in
// order: recovery, logging, security headers, session attach, page auth,
// API auth, rate limit.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)
	r.Use(s.sessionMiddleware)
	r.Use(pageAuthMiddleware)
	r.Use(apiAuthMiddleware)
	r.Use(s.rateLimitMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Get("/", s.handleHome)
	r.Get("/generate", s.handleGeneratePage)
	r.Get("/flashcards", s.handleFlashcardsPage)

	r.Route("/api", func(r chi.Router) {
		r.Post("/generations", s.handleCreateGeneration)
		r.Get("/flashcards", s.handleListFlashcards)
		r.Post("/flashcards", s.handleCreateFlashcard)
		r.Post("/flashcards/batch", s.handleCreateFlashcardBatch)
		r.Post("/auth/set-session", s.handleSetSession)
		r.Post("/auth/signout", s.handleSignout)
	})

	return r
}
