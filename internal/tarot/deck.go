// internal/tarot/deck.go
package tarot

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/jason-s-yu/oracle/internal/models"
)

//go:embed decks/rider-waite.toml
var defaultDeckTOML string

// FullDeckSize is the number of cards in a standard tarot deck.
const FullDeckSize = 78

// Deck is a card catalog definition as stored in a deck TOML file.
type Deck struct {
	Info  DeckInfo      `toml:"deck"`
	Cards []models.Card `toml:"cards"`
}

// DeckInfo is the [deck] header of a deck file.
type DeckInfo struct {
	ID          string `toml:"id"`
	Name        string `toml:"name"`
	Version     string `toml:"version"`
	Description string `toml:"description"`
}

// DefaultDeck decodes the embedded Rider-Waite-Smith deck.
func DefaultDeck() (*Deck, error) {
	var d Deck
	if _, err := toml.Decode(defaultDeckTOML, &d); err != nil {
		return nil, fmt.Errorf("error parsing embedded deck: %w", err)
	}
	d.sort()
	return &d, nil
}

// LoadDeck decodes a deck file from disk.
func LoadDeck(path string) (*Deck, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open deck: %w", err)
	}
	defer f.Close()
	return DecodeDeck(f)
}

// DecodeDeck decodes a deck definition from r.
func DecodeDeck(r io.Reader) (*Deck, error) {
	var d Deck
	if _, err := toml.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("error parsing deck: %w", err)
	}
	d.sort()
	return &d, nil
}

// sort orders cards the way the catalog store returns them: by suit, then number.
func (d *Deck) sort() {
	order := make(map[string]int, len(models.Suits))
	for i, s := range models.Suits {
		order[s] = i
	}
	sort.SliceStable(d.Cards, func(i, j int) bool {
		a, b := d.Cards[i], d.Cards[j]
		if order[a.Suit] != order[b.Suit] {
			return order[a.Suit] < order[b.Suit]
		}
		return a.Number < b.Number
	})
}

// ValidationResults collects problems found in a deck definition.
type ValidationResults struct {
	Errors   []string
	Warnings []string
}

// OK reports whether the deck has no errors.
func (r ValidationResults) OK() bool {
	return len(r.Errors) == 0
}

// Validate checks that a deck can serve as a catalog: unique ids, known suits, both
// meanings present, and (as a warning) the full 78 cards with 22 majors and 14 per suit.
func (d *Deck) Validate() ValidationResults {
	var res ValidationResults

	if d.Info.ID == "" {
		res.Errors = append(res.Errors, "deck.id is required")
	}
	if d.Info.Name == "" {
		res.Errors = append(res.Errors, "deck.name is required")
	}
	if len(d.Cards) == 0 {
		res.Errors = append(res.Errors, "deck has no cards")
		return res
	}

	ids := make(map[int]string, len(d.Cards))
	type slot struct {
		suit   string
		number int
	}
	slots := make(map[slot]string, len(d.Cards))
	perSuit := make(map[string]int)

	for _, c := range d.Cards {
		label := c.Name
		if label == "" {
			label = fmt.Sprintf("card %d", c.ID)
			res.Errors = append(res.Errors, fmt.Sprintf("%s: name is required", label))
		}
		if prev, dup := ids[c.ID]; dup {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: id %d already used by %s", label, c.ID, prev))
		}
		ids[c.ID] = label

		if !models.IsValidSuit(c.Suit) {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: unknown suit %q", label, c.Suit))
			continue
		}
		key := slot{c.Suit, c.Number}
		if prev, dup := slots[key]; dup {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %s %d already used by %s", label, c.Suit, c.Number, prev))
		}
		slots[key] = label
		perSuit[c.Suit]++

		if c.Upright == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: upright meaning is required", label))
		}
		if c.Reversed == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: reversed meaning is required", label))
		}
		if c.Description == "" {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: no description", label))
		}
	}

	if len(d.Cards) != FullDeckSize {
		res.Warnings = append(res.Warnings, fmt.Sprintf("deck has %d cards, a full deck has %d", len(d.Cards), FullDeckSize))
	}
	if n := perSuit[models.SuitMajor]; n != 22 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("major arcana has %d cards, expected 22", n))
	}
	for _, suit := range models.Suits[1:] {
		if n := perSuit[suit]; n != 14 {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s has %d cards, expected 14", suit, n))
		}
	}
	return res
}
