package credits

import "time"

// UserCredits is the per-user balance gating call placement. Email is the
// only user identity used for billing.
//
// Invariant: Credits >= 0 always. A consume that would overdraw must fail
// atomically without applying any debit.
type UserCredits struct {
	Email     string    `json:"email" db:"email"`
	Credits   int       `json:"credits" db:"credits"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
