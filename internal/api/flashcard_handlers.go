package api

import (
	"net/http"
	"strconv"

	"github.com/vytor/tenxcards/internal/errors"
	"github.com/vytor/tenxcards/internal/models"
)

func (s *Server) handleCreateFlashcard(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFromContext(r.Context())

	var cmd models.CreateFlashcardCommand
	if err := decodeJSON(r, &cmd); err != nil {
		handleError(w, r, err)
		return
	}

	card, err := s.FlashcardService.Create(r.Context(), id.UserID, cmd)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, card)
}

func (s *Server) handleCreateFlashcardBatch(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFromContext(r.Context())

	var cmd models.BatchCreateFlashcardsCommand
	if err := decodeJSON(r, &cmd); err != nil {
		handleError(w, r, err)
		return
	}

	resp, err := s.FlashcardService.CreateBatch(r.Context(), id.UserID, cmd)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, resp)
}

func (s *Server) handleListFlashcards(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFromContext(r.Context())

	filter, err := parseFlashcardFilter(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	filter.UserID = id.UserID

	list, err := s.FlashcardService.List(r.Context(), id.UserID, filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, list)
}

func parseFlashcardFilter(r *http.Request) (models.FlashcardFilter, error) {
	q := r.URL.Query()
	filter := models.FlashcardFilter{Source: q.Get("source")}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return filter, errors.NewValidationError("limit", "numeric", "limit must be a number")
		}
		filter.Limit = n
	}
	if v := q.Get("cursor"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return filter, errors.NewValidationError("cursor", "numeric", "cursor must be a non-negative number")
		}
		filter.Cursor = n
	}
	if v := q.Get("generation_id"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return filter, errors.NewValidationError("generation_id", "gt", "generation_id must be a positive number")
		}
		filter.GenerationID = &n
	}
	return filter, nil
}
