// internal/database/cards.go
package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/oracle/internal/models"
)

// FetchCards lists the catalog ordered by suit, then number. An empty suit lists every card.
func (s *Store) FetchCards(ctx context.Context, suit string) ([]models.Card, error) {
	q := `
	SELECT id, name, suit, card_number, upright_meaning, reversed_meaning,
	       COALESCE(description, ''), COALESCE(image_url, '')
	FROM tarot_cards
	WHERE $1 = '' OR suit = $1
	ORDER BY array_position(ARRAY['major','wands','cups','swords','pentacles'], suit), card_number
	`
	rows, err := s.pool.Query(ctx, q, suit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []models.Card
	for rows.Next() {
		var c models.Card
		if err := rows.Scan(&c.ID, &c.Name, &c.Suit, &c.Number, &c.Upright, &c.Reversed, &c.Description, &c.ImageURL); err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// ReplaceCards swaps the whole catalog for cards in a single transaction.
func (s *Store) ReplaceCards(ctx context.Context, cards []models.Card) error {
	columns := []string{"id", "name", "suit", "card_number", "upright_meaning", "reversed_meaning", "description", "image_url"}

	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM tarot_cards`); err != nil {
			return err
		}
		_, err := tx.CopyFrom(ctx, pgx.Identifier{"tarot_cards"}, columns,
			pgx.CopyFromSlice(len(cards), func(i int) ([]any, error) {
				c := cards[i]
				return []any{c.ID, c.Name, c.Suit, c.Number, c.Upright, c.Reversed, c.Description, c.ImageURL}, nil
			}))
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to replace tarot cards: %w", err)
	}
	return nil
}
