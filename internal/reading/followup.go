// internal/reading/followup.go
package reading

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/oracle/internal/apperrors"
	"github.com/jason-s-yu/oracle/internal/entitlement"
	"github.com/jason-s-yu/oracle/internal/interpreter"
	"github.com/jason-s-yu/oracle/internal/models"
)

// ParseKind maps a history type name to a Kind. "fortune" is accepted for chat entries.
func ParseKind(s string) (models.Kind, error) {
	switch s {
	case "chat", "fortune":
		return models.KindChat, nil
	case "tarot":
		return models.KindTarot, nil
	default:
		return "", apperrors.Invalid("type", "Invalid type parameter")
	}
}

// FollowUp answers question about one of the caller's own history entries. Entries of
// other users are reported as not found. Nothing is stored.
func (s *Service) FollowUp(ctx context.Context, caller entitlement.Caller, kind models.Kind, id uuid.UUID, question string) (string, error) {
	owner, err := requireOwner(caller)
	if err != nil {
		return "", err
	}
	if id == uuid.Nil {
		return "", apperrors.Invalid("history_id", "Invalid history id")
	}
	question, err = ValidateQuestion(question, MaxChatQuestion)
	if err != nil {
		return "", err
	}

	req := interpreter.FollowUpRequest{Kind: kind, Question: question}
	switch kind {
	case models.KindChat:
		f, err := s.store.GetFortune(ctx, owner, id)
		if err != nil {
			return "", historyLookupError(err)
		}
		req.OriginalQuestion, req.OriginalText = f.Question, f.Result
	case models.KindTarot:
		r, err := s.store.GetTarotReading(ctx, owner, id)
		if err != nil {
			return "", historyLookupError(err)
		}
		req.OriginalQuestion, req.OriginalText = r.Question, r.Interpretation
		req.SpreadType, req.Cards = r.SpreadType, r.Cards
	default:
		return "", apperrors.Invalid("type", "Invalid type parameter")
	}

	return s.oracle.AnswerFollowUp(ctx, req)
}

func historyLookupError(err error) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.New(apperrors.ErrNotFound, "History record not found")
	}
	return fmt.Errorf("failed to load history record: %w", err)
}
