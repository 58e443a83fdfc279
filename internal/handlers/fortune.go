// internal/handlers/fortune.go
package handlers

import (
	"net/http"

	"github.com/jason-s-yu/oracle/internal/entitlement"
	"github.com/jason-s-yu/oracle/internal/models"
	"github.com/jason-s-yu/oracle/internal/reading"
)

type chatRequest struct {
	Question string          `json:"question"`
	UserInfo *models.Profile `json:"user_info"`
	// LegacyUserInfo is the camel-cased field earlier web clients send.
	LegacyUserInfo *models.Profile `json:"userInfo"`
}

func (c chatRequest) profile() *models.Profile {
	if c.UserInfo != nil {
		return c.UserInfo
	}
	return c.LegacyUserInfo
}

// ChatHandler answers a free-form oracle question.
//
// Request payload: { "question": "...", "user_info": { "birth_date", "birth_time", "gender" }? }
func (s *APIServer) ChatHandler(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	caller := s.resolveCaller(w, r)
	res, err := s.readings.Chat(r.Context(), caller, req.Question, req.profile())
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	writeTrialHeader(w, caller, res.Decision)
	writeJSON(w, http.StatusOK, chatPayload(caller, res))
}

func chatPayload(caller entitlement.Caller, res *reading.ChatResult) envelope {
	return envelope{
		"result":     res.Fortune.Result,
		"fortune_id": res.Fortune.ID,
		"is_trial":   !caller.IsAuthenticated(),
		"access":     res.Decision.Access,
		"trial_uses": res.Decision.Uses,
	}
}
