package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/akowalska/fridgetrack/internal/service"
)

type addItemRequest struct {
	Label     string  `json:"label"`
	Amount    float64 `json:"amount"`
	Unit      string  `json:"unit"`
	ExpiresOn string  `json:"expires_on"` // YYYY-MM-DD, optional
	Barcode   string  `json:"barcode"`
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request, userID int64) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	input := service.AddItemInput{
		Label:   req.Label,
		Amount:  req.Amount,
		Unit:    req.Unit,
		Barcode: req.Barcode,
	}
	if req.ExpiresOn != "" {
		d, err := time.Parse(time.DateOnly, req.ExpiresOn)
		if err != nil {
			writeError(w, http.StatusBadRequest, "expires_on must be YYYY-MM-DD")
			return
		}
		input.ExpiresOn = &d
	}

	item, err := s.service.AddItem(r.Context(), userID, input)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"item_id": item.ID})
}

type consumeRequest struct {
	Amount float64 `json:"amount"`
}

func (s *Server) handleConsume(w http.ResponseWriter, r *http.Request, userID int64) {
	itemID, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req consumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.service.Consume(r.Context(), userID, itemID, req.Amount); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type discardRequest struct {
	WholeLot bool `json:"whole_lot"`
}

func (s *Server) handleDiscard(w http.ResponseWriter, r *http.Request, userID int64) {
	itemID, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	// The body is optional; an empty body discards the single row.
	var req discardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.service.Discard(r.Context(), userID, itemID, req.WholeLot); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
