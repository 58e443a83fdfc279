// internal/database/history.go
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/oracle/internal/apperrors"
	"github.com/jason-s-yu/oracle/internal/models"
)

// SaveFortune inserts a chat exchange for its owner and fills in ID and CreatedAt.
func (s *Store) SaveFortune(ctx context.Context, f *models.Fortune) error {
	if f.UserID == nil {
		return errors.New("fortune has no owner")
	}
	id := uuid.New()
	q := `INSERT INTO fortune_history (id, user_id, fortune_type, question, result)
	      VALUES ($1, $2, $3, $4, $5)
	      RETURNING created_at`

	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, q, id, *f.UserID, f.FortuneType, f.Question, f.Result).Scan(&f.CreatedAt)
	})
	if err != nil {
		return fmt.Errorf("failed to insert fortune: %w", err)
	}
	f.ID = &id
	return nil
}

// SaveTarotReading inserts a reading for its owner and fills in ID and CreatedAt.
func (s *Store) SaveTarotReading(ctx context.Context, r *models.TarotReading) error {
	if r.UserID == nil {
		return errors.New("tarot reading has no owner")
	}
	cards, err := json.Marshal(r.Cards)
	if err != nil {
		return fmt.Errorf("failed to encode drawn cards: %w", err)
	}
	id := uuid.New()
	q := `INSERT INTO tarot_readings (id, user_id, spread_type, question, cards_drawn, interpretation)
	      VALUES ($1, $2, $3, $4, $5, $6)
	      RETURNING created_at`

	err = pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, q, id, *r.UserID, r.SpreadType, r.Question, cards, r.Interpretation).Scan(&r.CreatedAt)
	})
	if err != nil {
		return fmt.Errorf("failed to insert tarot reading: %w", err)
	}
	r.ID = &id
	return nil
}

func scanFortune(row pgx.Row) (*models.Fortune, error) {
	var (
		f         models.Fortune
		id, owner uuid.UUID
	)
	if err := row.Scan(&id, &owner, &f.FortuneType, &f.Question, &f.Result, &f.CreatedAt); err != nil {
		return nil, err
	}
	f.ID, f.UserID = &id, &owner
	return &f, nil
}

func scanTarotReading(row pgx.Row) (*models.TarotReading, error) {
	var (
		r         models.TarotReading
		id, owner uuid.UUID
		cards     []byte
	)
	if err := row.Scan(&id, &owner, &r.SpreadType, &r.Question, &cards, &r.Interpretation, &r.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(cards, &r.Cards); err != nil {
		return nil, fmt.Errorf("failed to decode drawn cards of reading %s: %w", id, err)
	}
	r.ID, r.UserID = &id, &owner
	return &r, nil
}

// ListFortunes returns one page of the owner's chat history, newest first, and the total count.
func (s *Store) ListFortunes(ctx context.Context, owner uuid.UUID, limit, offset int) ([]models.Fortune, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM fortune_history WHERE user_id = $1`, owner).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `SELECT id, user_id, fortune_type, question, result, created_at
	      FROM fortune_history
	      WHERE user_id = $1
	      ORDER BY created_at DESC
	      LIMIT $2 OFFSET $3`
	rows, err := s.pool.Query(ctx, q, owner, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	fortunes := []models.Fortune{}
	for rows.Next() {
		f, err := scanFortune(rows)
		if err != nil {
			return nil, 0, err
		}
		fortunes = append(fortunes, *f)
	}
	return fortunes, total, rows.Err()
}

// ListTarotReadings returns one page of the owner's tarot history, newest first, and the total count.
func (s *Store) ListTarotReadings(ctx context.Context, owner uuid.UUID, limit, offset int) ([]models.TarotReading, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tarot_readings WHERE user_id = $1`, owner).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `SELECT id, user_id, spread_type, question, cards_drawn, interpretation, created_at
	      FROM tarot_readings
	      WHERE user_id = $1
	      ORDER BY created_at DESC
	      LIMIT $2 OFFSET $3`
	rows, err := s.pool.Query(ctx, q, owner, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	readings := []models.TarotReading{}
	for rows.Next() {
		r, err := scanTarotReading(rows)
		if err != nil {
			return nil, 0, err
		}
		readings = append(readings, *r)
	}
	return readings, total, rows.Err()
}

// GetFortune loads a chat entry by id, only if owner owns it.
func (s *Store) GetFortune(ctx context.Context, owner, id uuid.UUID) (*models.Fortune, error) {
	q := `SELECT id, user_id, fortune_type, question, result, created_at
	      FROM fortune_history WHERE id = $1 AND user_id = $2`
	f, err := scanFortune(s.pool.QueryRow(ctx, q, id, owner))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	return f, err
}

// GetTarotReading loads a tarot reading by id, only if owner owns it.
func (s *Store) GetTarotReading(ctx context.Context, owner, id uuid.UUID) (*models.TarotReading, error) {
	q := `SELECT id, user_id, spread_type, question, cards_drawn, interpretation, created_at
	      FROM tarot_readings WHERE id = $1 AND user_id = $2`
	r, err := scanTarotReading(s.pool.QueryRow(ctx, q, id, owner))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	return r, err
}

func (s *Store) DeleteFortune(ctx context.Context, owner, id uuid.UUID) error {
	return s.deleteOwned(ctx, `DELETE FROM fortune_history WHERE id = $1 AND user_id = $2`, owner, id)
}

func (s *Store) DeleteTarotReading(ctx context.Context, owner, id uuid.UUID) error {
	return s.deleteOwned(ctx, `DELETE FROM tarot_readings WHERE id = $1 AND user_id = $2`, owner, id)
}

func (s *Store) deleteOwned(ctx context.Context, q string, owner, id uuid.UUID) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, q, id, owner)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return apperrors.ErrNotFound
		}
		return nil
	})
}
