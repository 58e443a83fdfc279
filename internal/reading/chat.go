// internal/reading/chat.go
package reading

import (
	"context"
	"fmt"
	"time"

	"github.com/jason-s-yu/oracle/internal/entitlement"
	"github.com/jason-s-yu/oracle/internal/interpreter"
	"github.com/jason-s-yu/oracle/internal/models"
	"github.com/sirupsen/logrus"
)

// ChatResult is an oracle answer and the caller's entitlement for it.
type ChatResult struct {
	Fortune  *models.Fortune
	Decision entitlement.Decision
}

// Chat answers an oracle question. profile may be nil; an authenticated caller then gets
// their stored profile.
func (s *Service) Chat(ctx context.Context, caller entitlement.Caller, question string, profile *models.Profile) (*ChatResult, error) {
	return s.ChatStream(ctx, caller, question, profile, nil)
}

// ChatStream is Chat with interpretation deltas passed to onDelta. An onDelta error stops
// the stream but not the consultation; it is returned after the answer is stored.
func (s *Service) ChatStream(ctx context.Context, caller entitlement.Caller, question string, profile *models.Profile, onDelta interpreter.DeltaFunc) (*ChatResult, error) {
	question, err := ValidateQuestion(question, MaxChatQuestion)
	if err != nil {
		return nil, err
	}

	if profile.IsEmpty() && caller.IsAuthenticated() && s.profiles != nil {
		stored, err := s.profiles.Profile(ctx, caller.UserID)
		if err != nil {
			// Personalisation is optional.
			s.logger.WithError(err).WithField("user_id", caller.UserID).Warn("failed to load stored profile")
		} else {
			profile = stored
		}
	}

	ctx, cancel := s.detach(ctx)
	defer cancel()
	relay := relayDeltas(onDelta)

	result, err := s.oracle.InterpretChat(ctx, interpreter.ChatRequest{Question: question, Profile: profile}, relay.fn())
	if err != nil {
		return nil, err
	}

	decision, err := s.gate.Classify(ctx, caller, entitlement.FeatureChat)
	if err != nil {
		return nil, err
	}

	fortune := &models.Fortune{
		UserID:      caller.Owner(),
		FortuneType: models.KindChat,
		Question:    question,
		Result:      result,
		CreatedAt:   time.Now().UTC(),
	}
	if caller.IsAuthenticated() {
		if err := s.store.SaveFortune(ctx, fortune); err != nil {
			return nil, fmt.Errorf("failed to save fortune: %w", err)
		}
	}

	s.logger.WithFields(logrus.Fields{
		"access":    decision.Access,
		"persisted": fortune.ID != nil,
	}).Info("oracle chat answered")
	if relay.err != nil {
		return nil, relay.err
	}
	return &ChatResult{Fortune: fortune, Decision: decision}, nil
}
