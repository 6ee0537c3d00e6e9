package candidate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"outdial-platform/pkg/utils"
)

// PostgresStore persists candidates in the candidates table.
//
// Schema assumptions:
//
//	candidates(
//	  id BIGSERIAL PRIMARY KEY,
//	  name TEXT NOT NULL, phone TEXT NOT NULL, email TEXT, position TEXT,
//	  status TEXT NOT NULL, vapi_call_id TEXT,
//	  call_result TEXT, call_notes TEXT,
//	  call_start_time TIMESTAMPTZ, call_end_time TIMESTAMPTZ,
//	  assistant_name TEXT, assistant_id TEXT, assistant_phone_number TEXT,
//	  call_type TEXT, ended_reason TEXT, success_evaluation TEXT, score TEXT,
//	  call_duration INT, call_cost DOUBLE PRECISION,
//	  added_at TIMESTAMPTZ, created_at TIMESTAMPTZ NOT NULL, updated_at TIMESTAMPTZ NOT NULL
//	)
type PostgresStore struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, clock: time.Now}
}

const candidateColumns = `
id, name, phone, email, position, status, vapi_call_id,
call_result, call_notes, call_start_time, call_end_time,
assistant_name, assistant_id, assistant_phone_number,
call_type, ended_reason, success_evaluation, score,
call_duration, call_cost, added_at, created_at, updated_at`

func (s *PostgresStore) List(ctx context.Context) ([]Candidate, error) {
	q := `SELECT ` + candidateColumns + ` FROM candidates ORDER BY created_at DESC, id DESC`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCandidates(rows)
}

func (s *PostgresStore) ListByStatus(ctx context.Context, status Status) ([]Candidate, error) {
	q := `SELECT ` + candidateColumns + ` FROM candidates WHERE status = $1 ORDER BY created_at DESC, id DESC`
	rows, err := s.db.QueryContext(ctx, q, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCandidates(rows)
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (Candidate, error) {
	q := `SELECT ` + candidateColumns + ` FROM candidates WHERE id = $1`
	c, err := scanCandidate(s.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Candidate{}, ErrNotFound
	}
	return c, err
}

func (s *PostgresStore) FindByVapiCallID(ctx context.Context, callID string) (Candidate, error) {
	if callID == "" {
		return Candidate{}, ErrNotFound
	}
	q := `SELECT ` + candidateColumns + ` FROM candidates WHERE vapi_call_id = $1 LIMIT 1`
	c, err := scanCandidate(s.db.QueryRowContext(ctx, q, callID))
	if errors.Is(err, sql.ErrNoRows) {
		return Candidate{}, ErrNotFound
	}
	return c, err
}

func (s *PostgresStore) CreateBatch(ctx context.Context, batch []New) ([]Candidate, error) {
	if len(batch) == 0 {
		return nil, nil
	}
	now := s.clock().UTC()
	out := make([]Candidate, 0, len(batch))

	err := utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		const q = `
INSERT INTO candidates (name, phone, email, position, status, added_at, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
RETURNING ` + candidateColumns
		for _, n := range batch {
			c, err := scanCandidate(tx.QueryRowContext(ctx, q,
				n.Name, n.Phone, nullStr(n.Email), nullStr(n.Position),
				string(StatusPending), now, now, now,
			))
			if err != nil {
				return err
			}
			out = append(out, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) Update(ctx context.Context, id int64, upd Update) (Candidate, error) {
	set, args := buildSet(upd, s.clock().UTC())
	args = append(args, id)
	q := fmt.Sprintf(`UPDATE candidates SET %s WHERE id = $%d RETURNING `+candidateColumns, set, len(args))
	c, err := scanCandidate(s.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return Candidate{}, ErrNotFound
	}
	return c, err
}

func (s *PostgresStore) UpdateStatusIf(ctx context.Context, id int64, expected []Status, upd Update) (Candidate, bool, error) {
	set, args := buildSet(upd, s.clock().UTC())
	args = append(args, id)
	idArg := len(args)
	placeholders := make([]string, 0, len(expected))
	for _, st := range expected {
		args = append(args, string(st))
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}
	q := fmt.Sprintf(
		`UPDATE candidates SET %s WHERE id = $%d AND status IN (%s) RETURNING `+candidateColumns,
		set, idArg, strings.Join(placeholders, ","),
	)
	c, err := scanCandidate(s.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		// Either the row is missing or a racing transition already moved it.
		cur, getErr := s.Get(ctx, id)
		if getErr != nil {
			return Candidate{}, false, getErr
		}
		return cur, false, nil
	}
	if err != nil {
		return Candidate{}, false, err
	}
	return c, true, nil
}

func (s *PostgresStore) DeleteByStatus(ctx context.Context, status Status) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM candidates WHERE status = $1`, string(status))
	return err
}

func (s *PostgresStore) DeleteMany(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	q := fmt.Sprintf(`DELETE FROM candidates WHERE id IN (%s)`, strings.Join(placeholders, ","))
	_, err := s.db.ExecContext(ctx, q, args...)
	return err
}

func (s *PostgresStore) DeleteAll(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM candidates`)
	return err
}

// buildSet renders the SET clause for a partial update. updated_at is always
// touched.
func buildSet(upd Update, now time.Time) (string, []any) {
	cols := []string{}
	args := []any{}
	add := func(col string, v any) {
		args = append(args, v)
		cols = append(cols, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Phone != nil {
		add("phone", *upd.Phone)
	}
	if upd.Email != nil {
		add("email", *upd.Email)
	}
	if upd.Position != nil {
		add("position", *upd.Position)
	}
	if upd.Status != nil {
		add("status", string(*upd.Status))
	}
	if upd.VapiCallID != nil {
		add("vapi_call_id", *upd.VapiCallID)
	}
	if upd.CallResult != nil {
		add("call_result", *upd.CallResult)
	}
	if upd.CallNotes != nil {
		add("call_notes", *upd.CallNotes)
	}
	if upd.CallStartTime != nil {
		add("call_start_time", *upd.CallStartTime)
	}
	if upd.CallEndTime != nil {
		add("call_end_time", *upd.CallEndTime)
	}
	if upd.AssistantName != nil {
		add("assistant_name", *upd.AssistantName)
	}
	if upd.AssistantID != nil {
		add("assistant_id", *upd.AssistantID)
	}
	if upd.AssistantPhone != nil {
		add("assistant_phone_number", *upd.AssistantPhone)
	}
	if upd.CallType != nil {
		add("call_type", *upd.CallType)
	}
	if upd.EndedReason != nil {
		add("ended_reason", *upd.EndedReason)
	}
	if upd.SuccessEvaluation != nil {
		add("success_evaluation", *upd.SuccessEvaluation)
	}
	if upd.Score != nil {
		add("score", *upd.Score)
	}
	if upd.CallDuration != nil {
		add("call_duration", *upd.CallDuration)
	}
	if upd.CallCost != nil {
		add("call_cost", *upd.CallCost)
	}
	add("updated_at", now)

	return strings.Join(cols, ", "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCandidate(r rowScanner) (Candidate, error) {
	var c Candidate
	var email, position, vapiCallID sql.NullString
	var callResult, callNotes sql.NullString
	var callStart, callEnd, addedAt sql.NullTime
	var asstName, asstID, asstPhone, callType, endedReason, successEval, score sql.NullString
	var duration sql.NullInt64
	var cost sql.NullFloat64

	err := r.Scan(
		&c.ID, &c.Name, &c.Phone, &email, &position, &c.Status, &vapiCallID,
		&callResult, &callNotes, &callStart, &callEnd,
		&asstName, &asstID, &asstPhone,
		&callType, &endedReason, &successEval, &score,
		&duration, &cost, &addedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return Candidate{}, err
	}

	c.Email = email.String
	c.Position = position.String
	c.VapiCallID = vapiCallID.String
	c.CallResult = callResult.String
	c.CallNotes = callNotes.String
	if callStart.Valid {
		t := callStart.Time
		c.CallStartTime = &t
	}
	if callEnd.Valid {
		t := callEnd.Time
		c.CallEndTime = &t
	}
	c.AssistantName = asstName.String
	c.AssistantID = asstID.String
	c.AssistantPhone = asstPhone.String
	c.CallType = callType.String
	c.EndedReason = endedReason.String
	c.SuccessEvaluation = successEval.String
	c.Score = score.String
	c.CallDuration = int(duration.Int64)
	c.CallCost = cost.Float64
	if addedAt.Valid {
		t := addedAt.Time
		c.AddedAt = &t
	}
	return c, nil
}

func scanCandidates(rows *sql.Rows) ([]Candidate, error) {
	out := []Candidate{}
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
