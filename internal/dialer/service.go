// Package dialer places outbound calls: it gates them on the credit
// ledger, moves candidates from pending to calling, and hands the call to
// the voice provider with enough metadata to match events back later.
package dialer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"outdial-platform/internal/callops"
	"outdial-platform/internal/candidate"
	"outdial-platform/internal/credits"
	"outdial-platform/internal/phone"
	"outdial-platform/internal/vapi"
)

var (
	// ErrNotPending means the candidate exists but is not waiting in the
	// queue, usually because another dial already claimed it.
	ErrNotPending = errors.New("candidate is not pending")
	// ErrDialInProgress means the per-candidate dial lock is held.
	ErrDialInProgress = errors.New("dial already in progress for candidate")
	// ErrNoCallID means the candidate has no provider call to look up.
	ErrNoCallID = errors.New("candidate has no active call")
)

// Provider is what the dialer needs from the voice provider client.
type Provider interface {
	CreateCall(ctx context.Context, req vapi.CreateCallRequest) (vapi.Call, error)
	GetCall(ctx context.Context, id string) (vapi.Call, error)
}

// Lock serializes dial attempts per candidate. Implementations are best
// effort; a nil Lock disables locking entirely.
type Lock interface {
	// Acquire returns a release func and whether the lock was obtained.
	Acquire(ctx context.Context, candidateID int64) (release func(), ok bool, err error)
}

type Service struct {
	candidates candidate.Store
	credits    *credits.Ledger
	provider   Provider
	engine     *callops.Engine
	lock       Lock

	defaultAssistantID   string
	defaultPhoneNumberID string

	log *slog.Logger
	now func() time.Time
}

func NewService(
	store candidate.Store,
	ledger *credits.Ledger,
	provider Provider,
	engine *callops.Engine,
	lock Lock,
	defaultAssistantID, defaultPhoneNumberID string,
	log *slog.Logger,
) *Service {
	return &Service{
		candidates:           store,
		credits:              ledger,
		provider:             provider,
		engine:               engine,
		lock:                 lock,
		defaultAssistantID:   defaultAssistantID,
		defaultPhoneNumberID: defaultPhoneNumberID,
		log:                  log,
		now:                  time.Now,
	}
}

// StartCall dials one pending candidate. The caller's credit is consumed
// up front; any failure after that point (missing candidate, lost race on
// the pending transition, provider rejection) refunds it. On provider
// rejection the candidate also reverts to pending so it can be retried.
func (s *Service) StartCall(ctx context.Context, email string, candidateID int64, assistantID, phoneNumberID string) (candidate.Candidate, error) {
	if email == "" {
		return candidate.Candidate{}, credits.ErrEmailRequired
	}

	if s.lock != nil {
		release, ok, err := s.lock.Acquire(ctx, candidateID)
		if err != nil {
			s.log.Warn("dial lock unavailable, proceeding without it",
				"candidate_id", candidateID, "error", err)
		} else if !ok {
			return candidate.Candidate{}, ErrDialInProgress
		} else {
			defer release()
		}
	}

	if _, err := s.credits.Consume(ctx, email, 1); err != nil {
		return candidate.Candidate{}, err
	}

	c, err := s.claimPending(ctx, candidateID)
	if err != nil {
		s.refund(ctx, email)
		return candidate.Candidate{}, err
	}

	req := vapi.CreateCallRequest{
		AssistantID:   firstNonEmpty(assistantID, s.defaultAssistantID),
		PhoneNumberID: firstNonEmpty(phoneNumberID, s.defaultPhoneNumberID),
		Customer:      vapi.CustomerRef{Number: phone.NormalizeE164(c.Phone), Name: c.Name},
		Metadata: map[string]any{
			"candidateId": c.ID,
			"phoneNumber": c.Phone,
		},
	}
	call, err := s.provider.CreateCall(ctx, req)
	if err != nil {
		s.revertToPending(ctx, c.ID)
		s.refund(ctx, email)
		return candidate.Candidate{}, fmt.Errorf("create provider call: %w", err)
	}

	updated, err := s.candidates.Update(ctx, c.ID, candidate.Update{VapiCallID: &call.ID})
	if err != nil {
		// The call is live; resolution falls back to phone matching.
		s.log.Error("failed to persist provider call id",
			"candidate_id", c.ID, "call_id", call.ID, "error", err)
		return c, nil
	}
	s.log.Info("call started", "candidate_id", c.ID, "call_id", call.ID)
	return updated, nil
}

// claimPending moves the candidate from pending to calling, stamping the
// start time. Exactly one concurrent caller wins the claim.
func (s *Service) claimPending(ctx context.Context, id int64) (candidate.Candidate, error) {
	status := candidate.StatusCalling
	start := s.now()
	upd := candidate.Update{Status: &status, CallStartTime: &start}
	c, applied, err := s.candidates.UpdateStatusIf(ctx, id, []candidate.Status{candidate.StatusPending}, upd)
	if err != nil {
		return candidate.Candidate{}, err
	}
	if !applied {
		return candidate.Candidate{}, ErrNotPending
	}
	return c, nil
}

func (s *Service) revertToPending(ctx context.Context, id int64) {
	status := candidate.StatusPending
	empty := ""
	upd := candidate.Update{Status: &status, VapiCallID: &empty}
	if _, _, err := s.candidates.UpdateStatusIf(ctx, id, []candidate.Status{candidate.StatusCalling}, upd); err != nil {
		s.log.Error("failed to revert candidate after provider failure", "candidate_id", id, "error", err)
	}
}

func (s *Service) refund(ctx context.Context, email string) {
	if _, err := s.credits.Refund(ctx, email, 1); err != nil {
		s.log.Error("credit refund failed", "email", email, "error", err)
	}
}

// EndCall records a manual completion, for calls the operator finished or
// abandoned outside the provider flow.
func (s *Service) EndCall(ctx context.Context, candidateID int64, result, notes string) (candidate.Candidate, error) {
	c, err := s.candidates.Get(ctx, candidateID)
	if err != nil {
		return candidate.Candidate{}, err
	}
	comp := callops.Completion{
		VapiCallID: c.VapiCallID,
		Result:     result,
		Notes:      candidate.TruncateNotes(notes),
		EndedAt:    s.now(),
	}
	if comp.Result == "" {
		comp.Result = "Call ended manually"
	}
	return s.engine.Complete(ctx, c, comp)
}

// CallStatus is a point-in-time view of a candidate's provider call.
type CallStatus struct {
	Candidate candidate.Candidate `json:"candidate"`
	Status    string              `json:"status"`
	Ended     bool                `json:"ended"`
}

// CheckCallStatus looks up the candidate's call at the provider. When the
// provider reports it ended, the completion is applied on the spot rather
// than waiting for the next sync poll.
func (s *Service) CheckCallStatus(ctx context.Context, candidateID int64) (CallStatus, error) {
	c, err := s.candidates.Get(ctx, candidateID)
	if err != nil {
		return CallStatus{}, err
	}
	if c.VapiCallID == "" {
		return CallStatus{}, ErrNoCallID
	}
	call, err := s.provider.GetCall(ctx, c.VapiCallID)
	if err != nil {
		return CallStatus{}, fmt.Errorf("provider call lookup: %w", err)
	}
	st := CallStatus{Candidate: c, Status: call.Status, Ended: call.Ended()}
	if call.Ended() && c.Status != candidate.StatusCompleted {
		comp := callops.CompletionFromCall(call, s.now())
		updated, err := s.engine.Complete(ctx, c, comp)
		if err != nil {
			return CallStatus{}, err
		}
		st.Candidate = updated
	}
	return st, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
