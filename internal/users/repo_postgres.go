package users

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresStore persists users.
//
// Schema assumptions:
//
//	users(
//	  id TEXT PRIMARY KEY,
//	  email TEXT NOT NULL UNIQUE,
//	  name TEXT NOT NULL,
//	  password_hash TEXT NOT NULL,
//	  created_at TIMESTAMPTZ NOT NULL
//	)
//
// Email uniqueness is case-insensitive; rows store the lowercased form.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, u User) (User, error) {
	q := `
INSERT INTO users (id, email, name, password_hash, created_at)
VALUES ($1, lower($2), $3, $4, $5)
RETURNING id, email, name, password_hash, created_at`
	row := s.db.QueryRowContext(ctx, q, u.ID, u.Email, u.Name, u.PasswordHash, u.CreatedAt)
	out, err := scanUser(row)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return User{}, ErrDuplicateEmail
	}
	return out, err
}

func (s *PostgresStore) GetByEmail(ctx context.Context, email string) (User, error) {
	q := `SELECT id, email, name, password_hash, created_at FROM users WHERE email = lower($1)`
	u, err := scanUser(s.db.QueryRowContext(ctx, q, email))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	return u, err
}
