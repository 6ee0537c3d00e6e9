package credits

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("credits row not found")

// Store abstracts balance persistence. ConsumeIf must be a single atomic
// conditional decrement at the storage layer; the read-then-write pattern
// is not acceptable here (two concurrent consumes could both observe a
// sufficient balance and overdraw).
type Store interface {
	Get(ctx context.Context, email string) (UserCredits, error)
	Create(ctx context.Context, email string, credits int) (UserCredits, error)

	// ConsumeIf decrements atomically when the balance covers amount.
	// applied=false with a nil error means insufficient balance.
	ConsumeIf(ctx context.Context, email string, amount int) (UserCredits, bool, error)

	// Add increments the balance (refund path).
	Add(ctx context.Context, email string, amount int) (UserCredits, error)
}
