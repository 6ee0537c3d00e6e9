package callops

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"outdial-platform/internal/candidate"
	"outdial-platform/internal/vapi"
)

// Event is the webhook envelope the provider posts. Field presence varies
// by event type and provider version, so everything beyond Type is
// optional.
type Event struct {
	Type              string               `json:"type"`
	CallID            string               `json:"callId"`
	Status            string               `json:"status,omitempty"`
	StartedAt         *time.Time           `json:"startedAt,omitempty"`
	EndedAt           *time.Time           `json:"endedAt,omitempty"`
	EndedReason       string               `json:"endedReason,omitempty"`
	Summary           string               `json:"summary,omitempty"`
	Transcript        string               `json:"transcript,omitempty"`
	SuccessEvaluation vapi.Score           `json:"successEvaluation,omitempty"`
	Score             vapi.Score           `json:"score,omitempty"`
	Duration          int                  `json:"duration,omitempty"`
	Cost              float64              `json:"cost,omitempty"`
	Assistant         *vapi.AssistantRef   `json:"assistant,omitempty"`
	PhoneNumber       *vapi.PhoneNumberRef `json:"phoneNumber,omitempty"`
	Customer          *vapi.CustomerRef    `json:"customer,omitempty"`
	Metadata          *EventMetadata       `json:"metadata,omitempty"`
	FunctionCall      *FunctionCall        `json:"functionCall,omitempty"`
}

type EventMetadata struct {
	PhoneNumber string          `json:"phoneNumber,omitempty"`
	CandidateID json.RawMessage `json:"candidateId,omitempty"`
}

// CandidateIDHint returns the candidateId metadata as a string. The value
// arrives as a JSON number or string depending on who planted it.
func (m *EventMetadata) CandidateIDHint() string {
	if m == nil || len(m.CandidateID) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(m.CandidateID, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(m.CandidateID, &n); err == nil {
		return n.String()
	}
	return ""
}

type FunctionCall struct {
	Name       string          `json:"name"`
	Parameters json.RawMessage `json:"parameters,omitempty"`
}

// Ended reports whether the event describes a finished call. Any event
// carrying an ended timestamp or an ended status counts, regardless of
// its declared type; providers have shipped both shapes.
func (ev Event) Ended() bool {
	return ev.EndedAt != nil || ev.Status == "ended" || ev.Type == "call-ended" || ev.Type == "end-of-call-report"
}

func (ev Event) matchInput() MatchInput {
	in := MatchInput{VapiCallID: ev.CallID}
	if ev.Metadata != nil {
		in.CandidateIDHint = ev.Metadata.CandidateIDHint()
		in.Phone = ev.Metadata.PhoneNumber
	}
	if in.Phone == "" && ev.Customer != nil {
		in.Phone = ev.Customer.Number
	}
	return in
}

// HandleEvent dispatches a webhook event. Errors are reported to the
// caller for logging but never create a candidate or roll anything back;
// the webhook path is best-effort and the sync poll covers its gaps.
func (e *Engine) HandleEvent(ctx context.Context, ev Event) error {
	switch {
	case ev.Ended():
		return e.handleCallEnded(ctx, ev)
	case ev.Type == "call-started" || (ev.Type == "status-update" && ev.Status == "in-progress"):
		return e.handleCallStarted(ctx, ev)
	case ev.Type == "function-call":
		return e.handleFunctionCall(ctx, ev)
	default:
		e.log.Debug("unhandled webhook event", "type", ev.Type, "call_id", ev.CallID)
		return nil
	}
}

func (e *Engine) handleCallEnded(ctx context.Context, ev Event) error {
	c, ok, err := Resolve(ctx, e.candidates, ev.matchInput())
	if err != nil {
		return fmt.Errorf("resolve ended call %q: %w", ev.CallID, err)
	}
	if !ok {
		e.log.Warn("dropping ended-call event, no matching candidate",
			"call_id", ev.CallID, "phone", ev.matchInput().Phone)
		return nil
	}

	comp := Completion{
		VapiCallID:        ev.CallID,
		Result:            ev.Summary,
		Notes:             candidate.TruncateNotes(ev.Transcript),
		StartedAt:         ev.StartedAt,
		EndedAt:           e.now(),
		EndedReason:       ev.EndedReason,
		SuccessEvaluation: string(ev.SuccessEvaluation),
		Score:             string(ev.Score),
		Duration:          ev.Duration,
		Cost:              ev.Cost,
	}
	if ev.EndedAt != nil {
		comp.EndedAt = *ev.EndedAt
	}
	if comp.Result == "" {
		comp.Result = "Completed"
	}
	if ev.Assistant != nil {
		comp.AssistantName = ev.Assistant.Name
		comp.AssistantID = ev.Assistant.ID
	}
	if ev.PhoneNumber != nil {
		comp.AssistantPhone = ev.PhoneNumber.Number
	}

	if _, err := e.Complete(ctx, c, comp); err != nil {
		return fmt.Errorf("complete candidate %d: %w", c.ID, err)
	}
	e.log.Info("candidate completed from webhook", "candidate_id", c.ID, "call_id", ev.CallID)
	return nil
}

func (e *Engine) handleCallStarted(ctx context.Context, ev Event) error {
	c, ok, err := Resolve(ctx, e.candidates, ev.matchInput())
	if err != nil {
		return fmt.Errorf("resolve started call %q: %w", ev.CallID, err)
	}
	if !ok {
		e.log.Debug("call-started for unknown candidate", "call_id", ev.CallID)
		return nil
	}
	if _, applied, err := e.MarkCalling(ctx, c.ID, ev.CallID); err != nil {
		return fmt.Errorf("mark candidate %d calling: %w", c.ID, err)
	} else if !applied {
		e.log.Debug("call-started ignored, candidate already terminal", "candidate_id", c.ID)
	}
	return nil
}

// handleFunctionCall records notes the assistant takes mid-call via the
// take_notes tool. Notes append to whatever is already on the record.
func (e *Engine) handleFunctionCall(ctx context.Context, ev Event) error {
	if ev.FunctionCall == nil || ev.FunctionCall.Name != "take_notes" {
		return nil
	}
	var params struct {
		Note string `json:"note"`
	}
	if len(ev.FunctionCall.Parameters) > 0 {
		if err := json.Unmarshal(ev.FunctionCall.Parameters, &params); err != nil {
			return fmt.Errorf("decode take_notes parameters: %w", err)
		}
	}
	if params.Note == "" {
		return nil
	}

	c, ok, err := Resolve(ctx, e.candidates, ev.matchInput())
	if err != nil {
		return fmt.Errorf("resolve call %q for note: %w", ev.CallID, err)
	}
	if !ok {
		e.log.Debug("take_notes for unknown candidate", "call_id", ev.CallID)
		return nil
	}

	notes := params.Note
	if c.CallNotes != "" {
		notes = c.CallNotes + "\n" + params.Note
	}
	notes = candidate.TruncateNotes(notes)
	if _, err := e.candidates.Update(ctx, c.ID, candidate.Update{CallNotes: &notes}); err != nil {
		return fmt.Errorf("append note to candidate %d: %w", c.ID, err)
	}
	return nil
}
