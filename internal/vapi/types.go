package vapi

import (
	"encoding/json"
	"strconv"
	"time"
)

// Call is the provider's call record, reduced to the fields this service
// reads. The provider is inconsistent about signaling completion: some
// payloads set status "ended", others only set endedAt. Ended() checks both.
type Call struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Type   string `json:"type,omitempty"` // "outboundPhoneCall", "webCall", ...

	StartedAt *time.Time `json:"startedAt,omitempty"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`

	EndedReason       string  `json:"endedReason,omitempty"`
	Transcript        string  `json:"transcript,omitempty"`
	Summary           string  `json:"summary,omitempty"`
	SuccessEvaluation string  `json:"successEvaluation,omitempty"`
	Score             Score   `json:"score,omitempty"`
	DurationSeconds   int     `json:"duration,omitempty"`
	Cost              float64 `json:"cost,omitempty"`

	Assistant            *AssistantRef   `json:"assistant,omitempty"`
	PhoneNumber          *PhoneNumberRef `json:"phoneNumber,omitempty"`
	AssistantPhoneNumber string          `json:"assistantPhoneNumber,omitempty"`
	Customer             *CustomerRef    `json:"customer,omitempty"`

	Metadata map[string]any `json:"metadata,omitempty"`
}

// Ended reports whether the provider considers the call finished.
func (c Call) Ended() bool {
	return c.Status == "ended" || c.EndedAt != nil
}

// CustomerNumber returns the dialed number, wherever the provider put it.
func (c Call) CustomerNumber() string {
	if c.Customer != nil && c.Customer.Number != "" {
		return c.Customer.Number
	}
	return ""
}

// AssistantNumber returns the assistant-side number, wherever the provider
// put it.
func (c Call) AssistantNumber() string {
	if c.PhoneNumber != nil && c.PhoneNumber.Number != "" {
		return c.PhoneNumber.Number
	}
	return c.AssistantPhoneNumber
}

// MetadataCandidateID extracts the candidateId metadata planted at dial
// time, if present and integer-parseable.
func (c Call) MetadataCandidateID() (int64, bool) {
	if c.Metadata == nil {
		return 0, false
	}
	v, ok := c.Metadata["candidateId"]
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case string:
		id, err := strconv.ParseInt(t, 10, 64)
		return id, err == nil
	case float64:
		return int64(t), true
	case json.Number:
		id, err := t.Int64()
		return id, err == nil
	default:
		return 0, false
	}
}

type AssistantRef struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type PhoneNumberRef struct {
	ID     string `json:"id,omitempty"`
	Number string `json:"number,omitempty"`
}

type CustomerRef struct {
	Number string `json:"number,omitempty"`
	Name   string `json:"name,omitempty"`
}

// Score tolerates the provider sending either a string or a number.
type Score string

func (s *Score) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = Score(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = Score(n.String())
	return nil
}

// Assistant is the externally-hosted agent configuration, reduced to the
// fields the dashboard reads and writes.
type Assistant struct {
	ID           string `json:"id"`
	Name         string `json:"name,omitempty"`
	Description  string `json:"description,omitempty"`
	Status       string `json:"status,omitempty"`
	FirstMessage string `json:"firstMessage,omitempty"`
	Instructions string `json:"instructions,omitempty"`
	CreatedAt    string `json:"createdAt,omitempty"`
	UpdatedAt    string `json:"updatedAt,omitempty"`

	Model *struct {
		SystemMessage string `json:"systemMessage,omitempty"`
	} `json:"model,omitempty"`
}

// Script returns the assistant's instruction text, wherever the provider
// stored it.
func (a Assistant) Script() string {
	if a.Instructions != "" {
		return a.Instructions
	}
	if a.Model != nil {
		return a.Model.SystemMessage
	}
	return ""
}

// CreateCallRequest is the outbound call creation payload. Metadata carries
// the local candidate id so asynchronous events can be matched back.
type CreateCallRequest struct {
	AssistantID   string         `json:"assistantId,omitempty"`
	PhoneNumberID string         `json:"phoneNumberId,omitempty"`
	Customer      CustomerRef    `json:"customer"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}
