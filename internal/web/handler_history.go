package web

import (
	"net/http"
	"time"

	"github.com/akowalska/fridgetrack/internal/domain"
)

type historyJSON struct {
	ID          int64   `json:"id"`
	ItemID      int64   `json:"item_id"`
	OperationID string  `json:"operation_id"`
	Kind        string  `json:"kind"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	Comment     string  `json:"comment,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

func entryToJSON(e *domain.HistoryEntry) historyJSON {
	return historyJSON{
		ID:          e.ID,
		ItemID:      e.ItemID,
		OperationID: e.OperationID,
		Kind:        string(e.Kind),
		Quantity:    e.Quantity,
		Unit:        string(e.Unit),
		Comment:     e.Comment,
		CreatedAt:   e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func entriesToJSON(entries []*domain.HistoryEntry) []historyJSON {
	out := make([]historyJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryToJSON(e))
	}
	return out
}

func (s *Server) handleItemHistory(w http.ResponseWriter, r *http.Request, userID int64) {
	itemID, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	entries, err := s.service.ItemHistory(r.Context(), userID, itemID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": entriesToJSON(entries)})
}

func (s *Server) handleUserHistory(w http.ResponseWriter, r *http.Request, userID int64) {
	entries, err := s.service.UserHistory(r.Context(), userID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": entriesToJSON(entries)})
}

func (s *Server) handleLastOperation(w http.ResponseWriter, r *http.Request, userID int64) {
	entry, err := s.service.LastOperation(r.Context(), userID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if entry == nil {
		writeJSON(w, http.StatusOK, map[string]any{"last": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"last": entryToJSON(entry)})
}
