// internal/tarot/catalog.go
package tarot

import (
	"context"
	"fmt"

	"github.com/jason-s-yu/oracle/internal/apperrors"
	"github.com/jason-s-yu/oracle/internal/models"
)

// CardStore is the backing store of the card catalog. An empty suit means every card.
// Results are ordered by suit, then card number.
type CardStore interface {
	FetchCards(ctx context.Context, suit string) ([]models.Card, error)
}

// Catalog serves the read-only card catalog.
type Catalog struct {
	store CardStore
}

func NewCatalog(store CardStore) *Catalog {
	return &Catalog{store: store}
}

// ListCards returns the catalog, optionally filtered by suit. An empty result is a
// provisioning error: a deck must never be empty.
func (c *Catalog) ListCards(ctx context.Context, suit string) ([]models.Card, error) {
	if suit != "" && !models.IsValidSuit(suit) {
		return nil, apperrors.Invalid("suit", fmt.Sprintf("unknown suit %q", suit))
	}
	cards, err := c.store.FetchCards(ctx, suit)
	if err != nil {
		return nil, fmt.Errorf("fetch cards: %w", err)
	}
	if len(cards) == 0 {
		return nil, apperrors.ErrCatalogUnavailable
	}
	return cards, nil
}
