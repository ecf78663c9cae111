package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

type suggestionsRequest struct {
	Requirements string `json:"requirements"`
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request, userID int64) {
	var req suggestionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := s.service.SuggestRecipes(r.Context(), userID, s.now(), req.Requirements)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recipes": result.Recipes})
}
