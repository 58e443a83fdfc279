// internal/reading/compose.go
package reading

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jason-s-yu/oracle/internal/apperrors"
	"github.com/jason-s-yu/oracle/internal/entitlement"
	"github.com/jason-s-yu/oracle/internal/interpreter"
	"github.com/jason-s-yu/oracle/internal/models"
	"github.com/jason-s-yu/oracle/internal/tarot"
	"github.com/sirupsen/logrus"
)

// Hooks let a streaming transport observe a consultation as it happens. Any hook may be nil.
// An OnCards error aborts the consultation and is returned unchanged. An OnDelta error only
// stops the stream: the reading is still interpreted and stored, then the error is returned.
type Hooks struct {
	OnCards func(spread tarot.Spread, cards []models.DrawnCard) error
	OnDelta interpreter.DeltaFunc
}

// TarotResult is a composed reading and the caller's entitlement for it.
type TarotResult struct {
	Reading  *models.TarotReading
	Spread   tarot.Spread
	Decision entitlement.Decision
}

// Compose draws a spread for question, has it interpreted and stores it when the caller
// is authenticated. Anonymous readings are returned without an id.
func (s *Service) Compose(ctx context.Context, caller entitlement.Caller, spreadKey, question string) (*TarotResult, error) {
	return s.ComposeStream(ctx, caller, spreadKey, question, Hooks{})
}

// ComposeStream is Compose with hooks for the drawn cards and interpretation deltas.
func (s *Service) ComposeStream(ctx context.Context, caller entitlement.Caller, spreadKey, question string, hooks Hooks) (*TarotResult, error) {
	spreadKey = strings.TrimSpace(spreadKey)
	if spreadKey == "" {
		return nil, apperrors.Invalid("spread_type", "Please select a spread type")
	}
	question, err := ValidateQuestion(question, MaxTarotQuestion)
	if err != nil {
		return nil, err
	}

	spread, ok := tarot.ResolveSpread(spreadKey)
	if !ok {
		s.logger.WithFields(logrus.Fields{
			"requested": spreadKey,
			"resolved":  spread.Key,
		}).Warn("unknown spread type, falling back")
	}

	catalog, err := s.catalog.ListCards(ctx, "")
	if err != nil {
		return nil, err
	}
	cards, err := s.drawer.Draw(catalog, spread.Count())
	if err != nil {
		return nil, err
	}
	if hooks.OnCards != nil {
		if err := hooks.OnCards(spread, cards); err != nil {
			return nil, err
		}
	}

	ctx, cancel := s.detach(ctx)
	defer cancel()
	relay := relayDeltas(hooks.OnDelta)

	interpretation, err := s.oracle.InterpretTarot(ctx, interpreter.TarotRequest{
		Question: question,
		Spread:   spread,
		Cards:    cards,
	}, relay.fn())
	if err != nil {
		return nil, err
	}

	decision, err := s.gate.Classify(ctx, caller, entitlement.FeatureTarot)
	if err != nil {
		return nil, err
	}

	reading := &models.TarotReading{
		UserID:         caller.Owner(),
		SpreadType:     spread.Key,
		Question:       question,
		Cards:          cards,
		Interpretation: interpretation,
		CreatedAt:      time.Now().UTC(),
	}
	if caller.IsAuthenticated() {
		if err := s.store.SaveTarotReading(ctx, reading); err != nil {
			return nil, fmt.Errorf("failed to save tarot reading: %w", err)
		}
	}

	s.logger.WithFields(logrus.Fields{
		"spread":    spread.Key,
		"access":    decision.Access,
		"persisted": reading.ID != nil,
	}).Info("tarot reading composed")
	if relay.err != nil {
		return nil, relay.err
	}
	return &TarotResult{Reading: reading, Spread: spread, Decision: decision}, nil
}
