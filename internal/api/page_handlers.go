package api

import (
	"net/http"

	"github.com/vytor/tenxcards/internal/models"
	"github.com/vytor/tenxcards/internal/validation"
)

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "home.html", pageData{"title": "10x Cards"})
}

func (s *Server) handleGeneratePage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "generate.html", pageData{
		"title":     "Generate flashcards",
		"minLength": validation.MinTextLength,
		"maxLength": validation.MaxTextLength,
	})
}

func (s *Server) handleFlashcardsPage(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFromContext(r.Context())

	list, err := s.FlashcardService.List(r.Context(), id.UserID, parsePageFilter(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	s.render(w, r, "flashcards.html", pageData{
		"title":      "My flashcards",
		"flashcards": list.Data,
		"pagination": list.Pagination,
	})
}

// parsePageFilter reads the list filter for the HTML page, dropping
// malformed values instead of failing the page.
func parsePageFilter(r *http.Request) models.FlashcardFilter {
	f, err := parseFlashcardFilter(r)
	if err != nil {
		return models.FlashcardFilter{}
	}
	return f
}
