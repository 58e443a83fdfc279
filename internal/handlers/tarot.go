// internal/handlers/tarot.go
package handlers

import (
	"net/http"

	"github.com/jason-s-yu/oracle/internal/entitlement"
	"github.com/jason-s-yu/oracle/internal/reading"
	"github.com/jason-s-yu/oracle/internal/tarot"
)

// ListCardsHandler serves the card catalog, optionally filtered by ?suit=.
func (s *APIServer) ListCardsHandler(w http.ResponseWriter, r *http.Request) {
	cards, err := s.catalog.ListCards(r.Context(), r.URL.Query().Get("suit"))
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"cards": cards, "total": len(cards)})
}

func (s *APIServer) ListSpreadsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, envelope{"spreads": tarot.Spreads()})
}

type drawRequest struct {
	SpreadType string `json:"spread_type"`
	Question   string `json:"question"`
}

// DrawHandler composes a tarot reading. Signed-in callers get it saved to their history.
//
// Request payload: { "spread_type": "three-card", "question": "..." }
func (s *APIServer) DrawHandler(w http.ResponseWriter, r *http.Request) {
	var req drawRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	caller := s.resolveCaller(w, r)
	res, err := s.readings.Compose(r.Context(), caller, req.SpreadType, req.Question)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	writeTrialHeader(w, caller, res.Decision)
	writeJSON(w, http.StatusOK, tarotPayload(caller, res))
}

func tarotPayload(caller entitlement.Caller, res *reading.TarotResult) envelope {
	return envelope{
		"cards":          res.Reading.Cards,
		"interpretation": res.Reading.Interpretation,
		"reading_id":     res.Reading.ID,
		"spread_type":    res.Spread.Key,
		"spread_name":    res.Spread.Name,
		"is_trial":       !caller.IsAuthenticated(),
		"access":         res.Decision.Access,
		"trial_uses":     res.Decision.Uses,
	}
}
