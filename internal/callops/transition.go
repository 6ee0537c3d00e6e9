package callops

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"outdial-platform/internal/candidate"
	"outdial-platform/internal/vapi"
)

// CallProvider is the subset of the voice provider API the engine needs.
type CallProvider interface {
	GetCall(ctx context.Context, id string) (vapi.Call, error)
	ListLogs(ctx context.Context, limit, offset int) ([]vapi.Call, error)
}

// Engine reconciles provider call state onto local candidates. All three
// inbound paths (webhook events, active-call polling, bulk log import)
// converge on the same resolver and the same completion transition, so a
// call reported through any combination of them lands in the same final
// state.
type Engine struct {
	candidates candidate.Store
	provider   CallProvider
	log        *slog.Logger
	now        func() time.Time
}

func NewEngine(store candidate.Store, provider CallProvider, log *slog.Logger) *Engine {
	return &Engine{
		candidates: store,
		provider:   provider,
		log:        log,
		now:        time.Now,
	}
}

// Completion carries everything a finished call contributes to a
// candidate record. Zero-valued optional fields are left untouched on
// apply, so a sparse report (sync poll without transcript) never erases
// what a richer one (webhook with transcript) already wrote.
type Completion struct {
	VapiCallID        string
	Result            string
	Notes             string
	StartedAt         *time.Time
	EndedAt           time.Time
	AssistantName     string
	AssistantID       string
	AssistantPhone    string
	CallType          string
	EndedReason       string
	SuccessEvaluation string
	Score             string
	Duration          int
	Cost              float64
}

// CompletionFromCall derives the completion transition from a provider
// call object, as returned by call lookup or log listing.
func CompletionFromCall(call vapi.Call, now time.Time) Completion {
	comp := Completion{
		VapiCallID:        call.ID,
		Result:            call.Summary,
		Notes:             candidate.TruncateNotes(call.Transcript),
		StartedAt:         call.StartedAt,
		EndedAt:           now,
		EndedReason:       call.EndedReason,
		SuccessEvaluation: string(call.SuccessEvaluation),
		Score:             string(call.Score),
		Duration:          call.DurationSeconds,
		Cost:              call.Cost,
		CallType:          call.Type,
	}
	if call.EndedAt != nil {
		comp.EndedAt = *call.EndedAt
	}
	if comp.StartedAt == nil {
		comp.StartedAt = call.CreatedAt
	}
	if comp.Result == "" {
		reason := call.EndedReason
		if reason == "" {
			reason = "Unknown"
		}
		comp.Result = fmt.Sprintf("Call ended: %s", reason)
	}
	if call.Assistant != nil {
		comp.AssistantName = call.Assistant.Name
		comp.AssistantID = call.Assistant.ID
	}
	if call.PhoneNumber != nil {
		comp.AssistantPhone = call.PhoneNumber.Number
	}
	if comp.CallType == "" {
		if call.CustomerNumber() != "" {
			comp.CallType = "outboundPhoneCall"
		} else {
			comp.CallType = "webCall"
		}
	}
	return comp
}

// Complete applies a completion to a candidate. The transition is
// conditional on the current status being pending, calling, or completed;
// reapplying the same completion converges on the same row, and when two
// reconciliation paths race the last write wins.
func (e *Engine) Complete(ctx context.Context, c candidate.Candidate, comp Completion) (candidate.Candidate, error) {
	status := candidate.StatusCompleted
	upd := candidate.Update{
		Status:      &status,
		CallResult:  &comp.Result,
		CallEndTime: &comp.EndedAt,
	}
	if comp.VapiCallID != "" {
		upd.VapiCallID = &comp.VapiCallID
	}
	if comp.Notes != "" {
		upd.CallNotes = &comp.Notes
	}
	if comp.StartedAt != nil {
		upd.CallStartTime = comp.StartedAt
	}
	if comp.AssistantName != "" {
		upd.AssistantName = &comp.AssistantName
	}
	if comp.AssistantID != "" {
		upd.AssistantID = &comp.AssistantID
	}
	if comp.AssistantPhone != "" {
		upd.AssistantPhone = &comp.AssistantPhone
	}
	if comp.CallType != "" {
		upd.CallType = &comp.CallType
	}
	if comp.EndedReason != "" {
		upd.EndedReason = &comp.EndedReason
	}
	if comp.SuccessEvaluation != "" {
		upd.SuccessEvaluation = &comp.SuccessEvaluation
	}
	if comp.Score != "" {
		upd.Score = &comp.Score
	}
	if comp.Duration > 0 {
		upd.CallDuration = &comp.Duration
	}
	if comp.Cost > 0 {
		upd.CallCost = &comp.Cost
	}

	expected := []candidate.Status{
		candidate.StatusPending,
		candidate.StatusCalling,
		candidate.StatusCompleted,
	}
	updated, applied, err := e.candidates.UpdateStatusIf(ctx, c.ID, expected, upd)
	if err != nil {
		return candidate.Candidate{}, err
	}
	if !applied {
		e.log.Warn("completion not applied, unexpected candidate status",
			"candidate_id", c.ID, "vapi_call_id", comp.VapiCallID)
		return c, nil
	}
	return updated, nil
}

// MarkCalling records that a call is in flight. The candidate must be
// pending or already calling; a completed candidate is never resurrected
// by a late call-started event.
func (e *Engine) MarkCalling(ctx context.Context, id int64, callID string) (candidate.Candidate, bool, error) {
	status := candidate.StatusCalling
	start := e.now()
	upd := candidate.Update{
		Status:        &status,
		CallStartTime: &start,
	}
	if callID != "" {
		upd.VapiCallID = &callID
	}
	expected := []candidate.Status{candidate.StatusPending, candidate.StatusCalling}
	return e.candidates.UpdateStatusIf(ctx, id, expected, upd)
}
