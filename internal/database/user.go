// internal/database/user.go
package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jason-s-yu/oracle/internal/apperrors"
	"github.com/jason-s-yu/oracle/internal/models"
)

const uniqueViolation = "23505"

const userColumns = `id, username, email, password,
	COALESCE(birth_date, ''), COALESCE(birth_time, ''), COALESCE(gender, ''),
	created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.Password,
		&u.BirthDate, &u.BirthTime, &u.Gender,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts u. The password must already be hashed. A taken username or
// email yields apperrors.ErrConflict.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate user id: %w", err)
		}
		u.ID = id
	}

	q := `INSERT INTO users (id, username, email, password, birth_date, birth_time, gender)
	      VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''))
	      RETURNING created_at, updated_at`

	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, q,
			u.ID, u.Username, u.Email, u.Password,
			u.BirthDate, u.BirthTime, u.Gender,
		).Scan(&u.CreatedAt, &u.UpdatedAt)
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperrors.New(apperrors.ErrConflict, "Username or email is already registered")
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(s.pool.QueryRow(ctx, q, email))
}

func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(s.pool.QueryRow(ctx, q, id))
}

// UpdateUserProfile replaces the birth profile of the user and returns the updated row.
func (s *Store) UpdateUserProfile(ctx context.Context, id uuid.UUID, p models.Profile) (*models.User, error) {
	q := `UPDATE users
	      SET birth_date = NULLIF($1, ''), birth_time = NULLIF($2, ''), gender = NULLIF($3, ''), updated_at = NOW()
	      WHERE id = $4
	      RETURNING ` + userColumns

	var u *models.User
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var err error
		u, err = scanUser(tx.QueryRow(ctx, q, p.BirthDate, p.BirthTime, p.Gender, id))
		return err
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update user profile: %w", err)
	}
	return u, nil
}
