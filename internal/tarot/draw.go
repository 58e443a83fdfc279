// internal/tarot/draw.go
package tarot

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/jason-s-yu/oracle/internal/apperrors"
	"github.com/jason-s-yu/oracle/internal/models"
)

// Drawer shuffles and deals cards. The zero value (and a nil *Drawer) draws from the
// global math/rand/v2 source; NewDrawer pins a source so tests can reproduce a draw.
// Entertainment content only, so the source does not need to be cryptographic.
type Drawer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewDrawer returns a Drawer backed by src.
func NewDrawer(src rand.Source) *Drawer {
	return &Drawer{rng: rand.New(src)}
}

// Draw deals count distinct cards from catalog with the global source.
func Draw(catalog []models.Card, count int) ([]models.DrawnCard, error) {
	var d *Drawer
	return d.Draw(catalog, count)
}

// Draw deals count distinct cards from catalog. Every card is equally likely at every
// position and each card is independently reversed with probability 1/2.
// catalog is not modified.
func (d *Drawer) Draw(catalog []models.Card, count int) ([]models.DrawnCard, error) {
	if len(catalog) == 0 {
		return nil, apperrors.ErrCatalogUnavailable
	}
	if count < 1 {
		return nil, apperrors.Invalid("count", fmt.Sprintf("a spread needs at least one card, got %d", count))
	}
	if count > len(catalog) {
		return nil, fmt.Errorf("%w: need %d, deck has %d", apperrors.ErrInsufficientCards, count, len(catalog))
	}

	deck := make([]models.Card, len(catalog))
	copy(deck, catalog)

	if d != nil && d.rng != nil {
		d.mu.Lock()
		defer d.mu.Unlock()
	}

	d.shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})

	drawn := make([]models.DrawnCard, count)
	for i := 0; i < count; i++ {
		card := deck[i]
		reversed := d.coin()
		meaning := card.Upright
		if reversed {
			meaning = card.Reversed
		}
		drawn[i] = models.DrawnCard{
			Card:       card,
			Position:   i + 1,
			IsReversed: reversed,
			Meaning:    meaning,
		}
	}
	return drawn, nil
}

func (d *Drawer) shuffle(n int, swap func(i, j int)) {
	if d == nil || d.rng == nil {
		rand.Shuffle(n, swap)
		return
	}
	d.rng.Shuffle(n, swap)
}

func (d *Drawer) coin() bool {
	if d == nil || d.rng == nil {
		return rand.IntN(2) == 1
	}
	return d.rng.IntN(2) == 1
}
