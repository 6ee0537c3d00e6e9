package candidate

import (
	"time"
	"unicode/utf8"
)

// Candidate is a lead that doubles as the call record once contacted.
//
// Lifecycle invariant: status moves pending -> calling -> completed, and
// completed is terminal. At most one call is in flight per candidate.
//
// Provider linkage: VapiCallID is empty until a call is placed or a provider
// record is matched back to this row.
type Candidate struct {
	ID       int64  `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	Phone    string `json:"phone" db:"phone"`
	Email    string `json:"email,omitempty" db:"email"`
	Position string `json:"position,omitempty" db:"position"`

	Status Status `json:"status" db:"status"`

	VapiCallID string `json:"vapi_call_id,omitempty" db:"vapi_call_id"`

	// Outcome fields, populated at or after the terminal transition.
	CallResult        string     `json:"call_result,omitempty" db:"call_result"`
	CallNotes         string     `json:"call_notes,omitempty" db:"call_notes"`
	CallStartTime     *time.Time `json:"call_start_time,omitempty" db:"call_start_time"`
	CallEndTime       *time.Time `json:"call_end_time,omitempty" db:"call_end_time"`
	AssistantName     string     `json:"assistant_name,omitempty" db:"assistant_name"`
	AssistantID       string     `json:"assistant_id,omitempty" db:"assistant_id"`
	AssistantPhone    string     `json:"assistant_phone_number,omitempty" db:"assistant_phone_number"`
	CallType          string     `json:"call_type,omitempty" db:"call_type"` // "outbound" | "web"
	EndedReason       string     `json:"ended_reason,omitempty" db:"ended_reason"`
	SuccessEvaluation string     `json:"success_evaluation,omitempty" db:"success_evaluation"` // "pass" | "fail"
	Score             string     `json:"score,omitempty" db:"score"`
	CallDuration      int        `json:"call_duration,omitempty" db:"call_duration"` // seconds
	CallCost          float64    `json:"call_cost,omitempty" db:"call_cost"`

	AddedAt   *time.Time `json:"added_at,omitempty" db:"added_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusCalling   Status = "calling"
	StatusCompleted Status = "completed"
)

// ValidStatus reports whether s is one of the three modeled states.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusCalling, StatusCompleted:
		return true
	default:
		return false
	}
}

// MaxNoteLen caps call_notes derived from transcripts.
const MaxNoteLen = 500

// TruncateNotes shortens transcript-derived notes to at most MaxNoteLen
// bytes, cutting on a rune boundary so the result stays valid UTF-8.
func TruncateNotes(s string) string {
	if len(s) <= MaxNoteLen {
		return s
	}
	cut := MaxNoteLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// New is the shape accepted by bulk creation; status and timestamps are
// assigned by the store.
type New struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email,omitempty"`
	Position string `json:"position,omitempty"`
}

// Update is a partial update; nil fields are left untouched.
type Update struct {
	Name     *string
	Phone    *string
	Email    *string
	Position *string

	Status     *Status
	VapiCallID *string

	CallResult        *string
	CallNotes         *string
	CallStartTime     *time.Time
	CallEndTime       *time.Time
	AssistantName     *string
	AssistantID       *string
	AssistantPhone    *string
	CallType          *string
	EndedReason       *string
	SuccessEvaluation *string
	Score             *string
	CallDuration      *int
	CallCost          *float64
}
