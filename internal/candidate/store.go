package candidate

import (
	"context"
	"errors"
)

// ErrNotFound distinguishes a missing row from a store failure. Callers must
// not treat connection errors as "no such candidate".
var ErrNotFound = errors.New("candidate not found")

// Store abstracts candidate persistence. Two implementations exist: Postgres
// (durable) and in-memory (fallback when no DB is configured). The selection
// happens once at startup and is injected, never ambient.
type Store interface {
	List(ctx context.Context) ([]Candidate, error)
	ListByStatus(ctx context.Context, status Status) ([]Candidate, error)
	Get(ctx context.Context, id int64) (Candidate, error)
	FindByVapiCallID(ctx context.Context, callID string) (Candidate, error)

	CreateBatch(ctx context.Context, batch []New) ([]Candidate, error)

	Update(ctx context.Context, id int64, upd Update) (Candidate, error)

	// UpdateStatusIf applies upd only when the candidate's current status is
	// one of expected. It returns applied=false (and the unchanged row) when
	// the row exists but its status is not in expected; this is how racing
	// transitions lose without corrupting state.
	UpdateStatusIf(ctx context.Context, id int64, expected []Status, upd Update) (Candidate, bool, error)

	DeleteByStatus(ctx context.Context, status Status) error
	DeleteMany(ctx context.Context, ids []int64) error
	DeleteAll(ctx context.Context) error
}
