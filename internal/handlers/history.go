// internal/handlers/history.go
package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jason-s-yu/oracle/internal/apperrors"
	"github.com/jason-s-yu/oracle/internal/models"
	"github.com/jason-s-yu/oracle/internal/reading"
)

// ListHistoryHandler serves the caller's history: ?type=chat|tarot&limit=&offset=.
func (s *APIServer) ListHistoryHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := s.authenticatedCaller(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	q := r.URL.Query()
	h, err := s.readings.History(r.Context(), caller, reading.HistoryQuery{
		Type:   strings.TrimSpace(q.Get("type")),
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	})
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"fortunes":       h.Fortunes,
		"tarot_readings": h.TarotReadings,
		"total":          h.Total,
	})
}

// DeleteHistoryHandler removes one entry: ?type=fortune|tarot&id=.
func (s *APIServer) DeleteHistoryHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := s.authenticatedCaller(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	q := r.URL.Query()
	typ, rawID := strings.TrimSpace(q.Get("type")), strings.TrimSpace(q.Get("id"))
	if typ == "" || rawID == "" {
		writeError(w, r, s.logger, apperrors.Invalid("", "Missing required parameters"))
		return
	}
	kind, err := reading.ParseKind(typ)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	id, err := parseHistoryID(rawID)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	if err := s.readings.DeleteHistory(r.Context(), caller, kind, id); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "Deleted successfully"})
}

type followUpRequest struct {
	HistoryID string `json:"history_id"`
	Question  string `json:"question"`
}

func (s *APIServer) ChatFollowUpHandler(w http.ResponseWriter, r *http.Request) {
	s.followUp(w, r, models.KindChat)
}

func (s *APIServer) TarotFollowUpHandler(w http.ResponseWriter, r *http.Request) {
	s.followUp(w, r, models.KindTarot)
}

// followUp answers a question about one history entry of the given kind.
//
// Request payload: { "history_id": "<uuid>", "question": "..." }
func (s *APIServer) followUp(w http.ResponseWriter, r *http.Request, kind models.Kind) {
	caller, err := s.authenticatedCaller(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	var req followUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	id, err := parseHistoryID(req.HistoryID)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	answer, err := s.readings.FollowUp(r.Context(), caller, kind, id, req.Question)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"answer": answer})
}

func parseHistoryID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, apperrors.Invalid("history_id", "Invalid history id")
	}
	return id, nil
}
