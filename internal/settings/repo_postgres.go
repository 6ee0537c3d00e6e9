package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// PostgresStore persists settings documents.
//
// Schema assumptions:
//
//	user_settings(
//	  email TEXT PRIMARY KEY,
//	  doc JSONB NOT NULL,
//	  updated_at TIMESTAMPTZ NOT NULL
//	)
type PostgresStore struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, clock: time.Now}
}

func (s *PostgresStore) Get(ctx context.Context, email string) (json.RawMessage, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM user_settings WHERE email = $1`, email).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(doc), nil
}

func (s *PostgresStore) Set(ctx context.Context, email string, doc json.RawMessage) error {
	q := `
INSERT INTO user_settings (email, doc, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (email) DO UPDATE SET doc = EXCLUDED.doc, updated_at = EXCLUDED.updated_at`
	_, err := s.db.ExecContext(ctx, q, email, []byte(doc), s.clock())
	return err
}
