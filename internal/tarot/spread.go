// internal/tarot/spread.go
package tarot

// Spread is a named layout: how many cards it takes and what each position stands for.
type Spread struct {
	Key       string   `json:"key"`
	Name      string   `json:"name"`
	Positions []string `json:"positions"`
}

// Count is the number of cards the spread requires.
func (s Spread) Count() int {
	return len(s.Positions)
}

// PositionLabel returns the label of the 1-based position, or "" when out of range.
func (s Spread) PositionLabel(position int) string {
	if position < 1 || position > len(s.Positions) {
		return ""
	}
	return s.Positions[position-1]
}

const (
	SpreadSingle      = "single"
	SpreadThreeCard   = "three-card"
	SpreadCelticCross = "celtic-cross"
)

var spreads = map[string]Spread{
	SpreadSingle: {
		Key:       SpreadSingle,
		Name:      "Single Card Reading",
		Positions: []string{"Guidance"},
	},
	SpreadThreeCard: {
		Key:       SpreadThreeCard,
		Name:      "Three Card Reading (Past-Present-Future)",
		Positions: []string{"Past", "Present", "Future"},
	},
	SpreadCelticCross: {
		Key:  SpreadCelticCross,
		Name: "Celtic Cross Spread",
		Positions: []string{
			"Present Situation",
			"Challenge",
			"Foundation",
			"Recent Past",
			"Higher Goal",
			"Near Future",
			"Self",
			"Environment",
			"Hopes and Fears",
			"Outcome",
		},
	},
}

// ResolveSpread looks up a spread by key. Unknown keys fall back to the single-card
// spread; ok reports whether key was recognised.
func ResolveSpread(key string) (spread Spread, ok bool) {
	if s, found := spreads[key]; found {
		return s, true
	}
	return spreads[SpreadSingle], false
}

// RequiredCount returns how many cards the spread named by key needs (1 for unknown keys).
func RequiredCount(key string) int {
	s, _ := ResolveSpread(key)
	return s.Count()
}

// Spreads returns all known spreads ordered by card count.
func Spreads() []Spread {
	return []Spread{spreads[SpreadSingle], spreads[SpreadThreeCard], spreads[SpreadCelticCross]}
}
