package api

import (
	"net/http"

	"github.com/vytor/tenxcards/internal/models"
)

func (s *Server) handleCreateGeneration(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFromContext(r.Context())

	var cmd models.CreateGenerationCommand
	if err := decodeJSON(r, &cmd); err != nil {
		handleError(w, r, err)
		return
	}

	resp, err := s.GenerationService.Generate(r.Context(), id.UserID, cmd)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, resp)
}
