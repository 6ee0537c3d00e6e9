package campaigns

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresStore persists campaigns.
//
// Schema assumptions:
//
//	campaigns(
//	  id BIGSERIAL PRIMARY KEY,
//	  name TEXT NOT NULL, name_key TEXT NOT NULL UNIQUE,
//	  industry TEXT NOT NULL, goal TEXT NOT NULL, opening_script TEXT,
//	  localize_tone BOOLEAN NOT NULL DEFAULT FALSE,
//	  compliance_check BOOLEAN NOT NULL DEFAULT FALSE,
//	  cadence BOOLEAN NOT NULL DEFAULT FALSE,
//	  quality BOOLEAN NOT NULL DEFAULT FALSE,
//	  created_at TIMESTAMPTZ NOT NULL, updated_at TIMESTAMPTZ NOT NULL
//	)
type PostgresStore struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, clock: time.Now}
}

const campaignColumns = `
id, name, industry, goal, opening_script,
localize_tone, compliance_check, cadence, quality,
created_at, updated_at`

func (s *PostgresStore) List(ctx context.Context) ([]Campaign, error) {
	q := `SELECT ` + campaignColumns + ` FROM campaigns ORDER BY created_at DESC, id DESC`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (Campaign, error) {
	q := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`
	c, err := scanCampaign(s.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Campaign{}, ErrNotFound
	}
	return c, err
}

func (s *PostgresStore) Create(ctx context.Context, n New) (Campaign, error) {
	now := s.clock()
	q := `
INSERT INTO campaigns (
  name, name_key, industry, goal, opening_script,
  localize_tone, compliance_check, cadence, quality,
  created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$10)
RETURNING ` + campaignColumns
	row := s.db.QueryRowContext(ctx, q,
		n.Name, NameKey(n.Name), n.Industry, n.Goal, n.OpeningScript,
		n.LocalizeTone, n.ComplianceCheck, n.Cadence, n.Quality, now,
	)
	c, err := scanCampaign(row)
	if isUniqueViolation(err) {
		return Campaign{}, ErrDuplicateName
	}
	return c, err
}

func (s *PostgresStore) DeleteMany(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	q := `DELETE FROM campaigns WHERE id IN (` + strings.Join(placeholders, ",") + `)`
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (Campaign, error) {
	var c Campaign
	err := row.Scan(
		&c.ID, &c.Name, &c.Industry, &c.Goal, &c.OpeningScript,
		&c.LocalizeTone, &c.ComplianceCheck, &c.Cadence, &c.Quality,
		&c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
