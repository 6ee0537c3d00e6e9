package credits

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PostgresStore persists balances in user_credits.
//
// Schema assumption:
//
//	user_credits(email TEXT PRIMARY KEY, credits INT NOT NULL, updated_at TIMESTAMPTZ NOT NULL)
type PostgresStore struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, clock: time.Now}
}

func (s *PostgresStore) Get(ctx context.Context, email string) (UserCredits, error) {
	const q = `SELECT email, credits, updated_at FROM user_credits WHERE email = $1`
	var uc UserCredits
	if err := s.db.QueryRowContext(ctx, q, email).Scan(&uc.Email, &uc.Credits, &uc.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return UserCredits{}, ErrNotFound
		}
		return UserCredits{}, err
	}
	return uc, nil
}

func (s *PostgresStore) Create(ctx context.Context, email string, credits int) (UserCredits, error) {
	// Concurrent first accesses must not error; keep the existing row.
	const q = `
INSERT INTO user_credits (email, credits, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
RETURNING email, credits, updated_at`
	var uc UserCredits
	if err := s.db.QueryRowContext(ctx, q, email, credits, s.clock().UTC()).Scan(&uc.Email, &uc.Credits, &uc.UpdatedAt); err != nil {
		return UserCredits{}, err
	}
	return uc, nil
}

func (s *PostgresStore) ConsumeIf(ctx context.Context, email string, amount int) (UserCredits, bool, error) {
	// Single conditional decrement: the WHERE clause is the floor check, so
	// concurrent consumes serialize at the row and can never overdraw.
	const q = `
UPDATE user_credits
SET credits = credits - $2, updated_at = $3
WHERE email = $1 AND credits >= $2
RETURNING email, credits, updated_at`
	var uc UserCredits
	err := s.db.QueryRowContext(ctx, q, email, amount, s.clock().UTC()).Scan(&uc.Email, &uc.Credits, &uc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		cur, getErr := s.Get(ctx, email)
		if getErr != nil {
			return UserCredits{}, false, getErr
		}
		return cur, false, nil
	}
	if err != nil {
		return UserCredits{}, false, err
	}
	return uc, true, nil
}

func (s *PostgresStore) Add(ctx context.Context, email string, amount int) (UserCredits, error) {
	const q = `
UPDATE user_credits
SET credits = credits + $2, updated_at = $3
WHERE email = $1
RETURNING email, credits, updated_at`
	var uc UserCredits
	err := s.db.QueryRowContext(ctx, q, email, amount, s.clock().UTC()).Scan(&uc.Email, &uc.Credits, &uc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return UserCredits{}, ErrNotFound
	}
	if err != nil {
		return UserCredits{}, err
	}
	return uc, nil
}
