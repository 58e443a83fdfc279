// internal/reading/history.go
package reading

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/oracle/internal/apperrors"
	"github.com/jason-s-yu/oracle/internal/entitlement"
	"github.com/jason-s-yu/oracle/internal/models"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// HistoryQuery selects a page of history. An empty Type lists both kinds.
type HistoryQuery struct {
	Type   string
	Limit  int
	Offset int
}

// HistoryTotals counts every entry of each kind, regardless of paging.
type HistoryTotals struct {
	Fortunes int `json:"fortunes"`
	Tarot    int `json:"tarot"`
}

// History is one page of the caller's chat and tarot history, newest first.
type History struct {
	Fortunes      []models.Fortune      `json:"fortunes"`
	TarotReadings []models.TarotReading `json:"tarot_readings"`
	Total         HistoryTotals         `json:"total"`
}

func (q HistoryQuery) normalize() (HistoryQuery, error) {
	switch q.Type {
	case "", string(models.KindChat), string(models.KindTarot):
	default:
		return q, apperrors.Invalid("type", "Invalid type parameter")
	}
	if q.Limit <= 0 {
		q.Limit = DefaultHistoryLimit
	}
	q.Limit = min(q.Limit, MaxHistoryLimit)
	q.Offset = max(q.Offset, 0)
	return q, nil
}

// History lists the caller's own history.
func (s *Service) History(ctx context.Context, caller entitlement.Caller, q HistoryQuery) (*History, error) {
	owner, err := requireOwner(caller)
	if err != nil {
		return nil, err
	}
	q, err = q.normalize()
	if err != nil {
		return nil, err
	}

	h := &History{Fortunes: []models.Fortune{}, TarotReadings: []models.TarotReading{}}
	if q.Type == "" || q.Type == string(models.KindChat) {
		h.Fortunes, h.Total.Fortunes, err = s.store.ListFortunes(ctx, owner, q.Limit, q.Offset)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch history: %w", err)
		}
	}
	if q.Type == "" || q.Type == string(models.KindTarot) {
		h.TarotReadings, h.Total.Tarot, err = s.store.ListTarotReadings(ctx, owner, q.Limit, q.Offset)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch history: %w", err)
		}
	}
	return h, nil
}

// DeleteHistory removes one of the caller's own entries.
func (s *Service) DeleteHistory(ctx context.Context, caller entitlement.Caller, kind models.Kind, id uuid.UUID) error {
	owner, err := requireOwner(caller)
	if err != nil {
		return err
	}

	switch kind {
	case models.KindChat:
		err = s.store.DeleteFortune(ctx, owner, id)
	case models.KindTarot:
		err = s.store.DeleteTarotReading(ctx, owner, id)
	default:
		return apperrors.Invalid("type", "Invalid type parameter")
	}
	if err != nil {
		return historyLookupError(err)
	}
	return nil
}
