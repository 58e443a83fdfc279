// internal/models/card.go
package models

// Arcana classes a card can belong to.
const (
	SuitMajor     = "major"
	SuitWands     = "wands"
	SuitCups      = "cups"
	SuitSwords    = "swords"
	SuitPentacles = "pentacles"
)

// Suits lists the arcana classes in catalog order.
var Suits = []string{SuitMajor, SuitWands, SuitCups, SuitSwords, SuitPentacles}

// Card is an immutable tarot card definition from the catalog.
type Card struct {
	ID          int    `json:"id" toml:"id"`
	Name        string `json:"name" toml:"name"`
	Suit        string `json:"suit" toml:"suit"`
	Number      int    `json:"card_number" toml:"number"` // rank within the suit, or 0-21 for majors
	Upright     string `json:"upright_meaning" toml:"upright"`
	Reversed    string `json:"reversed_meaning" toml:"reversed"`
	Description string `json:"description,omitempty" toml:"description"`
	ImageURL    string `json:"image_url,omitempty" toml:"image_url"`
}

// DrawnCard is a card as it fell in one reading: its 1-based position in the spread,
// its orientation and the meaning text that orientation selects.
type DrawnCard struct {
	Card
	Position   int    `json:"position"`
	IsReversed bool   `json:"is_reversed"`
	Meaning    string `json:"meaning"`
}

// Orientation is the human label for the card's orientation.
func (d DrawnCard) Orientation() string {
	if d.IsReversed {
		return "Reversed"
	}
	return "Upright"
}

// IsValidSuit reports whether s names one of the five arcana classes.
func IsValidSuit(s string) bool {
	for _, suit := range Suits {
		if s == suit {
			return true
		}
	}
	return false
}
