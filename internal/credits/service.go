package credits

import (
	"context"
	"errors"
	"log/slog"
)

// ErrInsufficientCredits is the distinguished business error gating call
// placement. Callers match it with errors.Is, never by message text.
var ErrInsufficientCredits = errors.New("insufficient credits")

var ErrEmailRequired = errors.New("email required for credits")

// Ledger provides balance operations on top of a Store.
//
// Invariants:
// - The balance never goes negative; Consume is a single atomic decrement.
// - GetOrInit never fails for a missing row; creation is implicit.
// - Read failures on the durable store fall back to a process-local map so
//   the dashboard stays usable; write failures surface, because silently
//   dropping a debit would lose the authoritative record.
type Ledger struct {
	store            Store
	fallback         *MemoryStore
	defaultAllotment int
	log              *slog.Logger
}

func NewLedger(store Store, defaultAllotment int, log *slog.Logger) *Ledger {
	if log == nil {
		log = slog.Default()
	}
	return &Ledger{
		store:            store,
		fallback:         NewMemoryStore(),
		defaultAllotment: defaultAllotment,
		log:              log,
	}
}

// GetOrInit returns the balance, lazily creating it with the default
// allotment on first access.
func (l *Ledger) GetOrInit(ctx context.Context, email string) (UserCredits, error) {
	if email == "" {
		return UserCredits{}, ErrEmailRequired
	}

	uc, err := l.store.Get(ctx, email)
	if err == nil {
		return uc, nil
	}
	if errors.Is(err, ErrNotFound) {
		uc, err = l.store.Create(ctx, email, l.defaultAllotment)
		if err == nil {
			return uc, nil
		}
	}

	// Persistence failure on a read path: keep the caller working off the
	// in-process map rather than failing the request.
	l.log.Error("credits store unavailable, using fallback", "email", email, "err", err)
	if _, ferr := l.fallback.Create(ctx, email, l.defaultAllotment); ferr != nil {
		return UserCredits{}, ferr
	}
	return l.fallback.Get(ctx, email)
}

// Consume debits amount (default 1 at the API layer). Returns
// ErrInsufficientCredits without mutating state when the balance is short.
func (l *Ledger) Consume(ctx context.Context, email string, amount int) (UserCredits, error) {
	if email == "" {
		return UserCredits{}, ErrEmailRequired
	}
	if amount <= 0 {
		amount = 1
	}

	// Ensure the row exists so first-time users get the default allotment.
	if _, err := l.GetOrInit(ctx, email); err != nil {
		return UserCredits{}, err
	}

	uc, applied, err := l.consumeStore(ctx, email, amount)
	if err != nil {
		return UserCredits{}, err
	}
	if !applied {
		return uc, ErrInsufficientCredits
	}
	return uc, nil
}

// Refund returns amount to the balance. Used when a provider call creation
// fails after the debit was taken.
func (l *Ledger) Refund(ctx context.Context, email string, amount int) (UserCredits, error) {
	if email == "" {
		return UserCredits{}, ErrEmailRequired
	}
	if amount <= 0 {
		amount = 1
	}
	uc, err := l.store.Add(ctx, email, amount)
	if err == nil {
		return uc, nil
	}
	if l.usingFallback(ctx, email) {
		return l.fallback.Add(ctx, email, amount)
	}
	return UserCredits{}, err
}

func (l *Ledger) consumeStore(ctx context.Context, email string, amount int) (UserCredits, bool, error) {
	uc, applied, err := l.store.ConsumeIf(ctx, email, amount)
	if err == nil {
		return uc, applied, nil
	}
	// The row may live only in the fallback map (GetOrInit fell back
	// earlier). Debit there; any other store failure surfaces.
	if l.usingFallback(ctx, email) {
		return l.fallback.ConsumeIf(ctx, email, amount)
	}
	return UserCredits{}, false, err
}

func (l *Ledger) usingFallback(ctx context.Context, email string) bool {
	_, err := l.fallback.Get(ctx, email)
	return err == nil
}
