// internal/models/reading.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Kind distinguishes the two history record types.
type Kind string

const (
	KindChat  Kind = "chat"
	KindTarot Kind = "tarot"
)

// TarotReading is a tarot draw plus its interpretation. ID and UserID are nil for
// anonymous readings, which are never persisted.
type TarotReading struct {
	ID             *uuid.UUID  `json:"id,omitempty"`
	UserID         *uuid.UUID  `json:"user_id,omitempty"`
	SpreadType     string      `json:"spread_type"`
	Question       string      `json:"question"`
	Cards          []DrawnCard `json:"cards_drawn"`
	Interpretation string      `json:"interpretation"`
	CreatedAt      time.Time   `json:"created_at"`
}

// Fortune is an oracle chat exchange kept in the caller's history.
type Fortune struct {
	ID          *uuid.UUID `json:"id,omitempty"`
	UserID      *uuid.UUID `json:"user_id,omitempty"`
	FortuneType Kind       `json:"fortune_type"`
	Question    string     `json:"question"`
	Result      string     `json:"result"`
	CreatedAt   time.Time  `json:"created_at"`
}
