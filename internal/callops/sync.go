package callops

import (
	"context"
	"fmt"

	"outdial-platform/internal/candidate"
)

// SyncResult is what one reconciliation poll accomplished.
type SyncResult struct {
	Checked int `json:"checked"`
	Updated int `json:"updated"`
}

// SyncActiveCalls polls the provider for every candidate stuck in
// calling. Calls the provider reports as ended are completed locally;
// calls still running, and per-call lookup failures, are left for the
// next poll. This is the structural backstop for lost webhooks.
func (e *Engine) SyncActiveCalls(ctx context.Context) (SyncResult, error) {
	active, err := e.candidates.ListByStatus(ctx, candidate.StatusCalling)
	if err != nil {
		return SyncResult{}, fmt.Errorf("list active candidates: %w", err)
	}

	res := SyncResult{Checked: len(active)}
	for _, c := range active {
		if c.VapiCallID == "" {
			continue
		}
		call, err := e.provider.GetCall(ctx, c.VapiCallID)
		if err != nil {
			e.log.Warn("call status lookup failed",
				"candidate_id", c.ID, "call_id", c.VapiCallID, "error", err)
			continue
		}
		if !call.Ended() {
			continue
		}

		comp := CompletionFromCall(call, e.now())
		if comp.SuccessEvaluation == "" && call.EndedReason == "customer-ended-call" {
			comp.SuccessEvaluation = "pass"
		}
		if _, err := e.Complete(ctx, c, comp); err != nil {
			e.log.Error("failed to complete synced candidate",
				"candidate_id", c.ID, "call_id", c.VapiCallID, "error", err)
			continue
		}
		res.Updated++
	}
	return res, nil
}
