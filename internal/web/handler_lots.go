package web

import (
	"net/http"
	"time"

	"github.com/akowalska/fridgetrack/internal/service"
)

type lotJSON struct {
	ItemID       int64   `json:"item_id"`
	ProductID    *int64  `json:"product_id,omitempty"`
	Name         string  `json:"name"`
	Amount       float64 `json:"amount"`
	Unit         string  `json:"unit"`
	MemberIDs    []int64 `json:"member_ids"`
	ExpiresOn    string  `json:"expires_on,omitempty"`
	ExpiryStatus string  `json:"expiry_status"`
}

func lotToJSON(v service.LotView) lotJSON {
	out := lotJSON{
		ItemID:       v.ItemID,
		ProductID:    v.ProductID,
		Name:         v.Name,
		Amount:       v.Amount,
		Unit:         string(v.Unit),
		MemberIDs:    v.MemberIDs,
		ExpiryStatus: string(v.Band),
	}
	if v.ExpiresOn != nil {
		out.ExpiresOn = v.ExpiresOn.Format(time.DateOnly)
	}
	return out
}

func lotsToJSON(views []service.LotView) []lotJSON {
	out := make([]lotJSON, 0, len(views))
	for _, v := range views {
		out = append(out, lotToJSON(v))
	}
	return out
}

func (s *Server) handleListLots(w http.ResponseWriter, r *http.Request, userID int64) {
	views, err := s.service.ListLots(r.Context(), userID, s.now())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lots": lotsToJSON(views)})
}

func (s *Server) handleExpiringLots(w http.ResponseWriter, r *http.Request, userID int64) {
	views, err := s.service.ExpiringLots(r.Context(), userID, s.now())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lots": lotsToJSON(views)})
}

func (s *Server) handleCounts(w http.ResponseWriter, r *http.Request, userID int64) {
	counts, err := s.service.Counts(r.Context(), userID, s.now())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"items":             counts.Items,
		"expiring_tomorrow": counts.ExpiringTomorrow,
		"expired":           counts.Expired,
	})
}
