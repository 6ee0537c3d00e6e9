package callops

import (
	"context"
	"fmt"
	"strconv"

	"outdial-platform/internal/candidate"
	"outdial-platform/internal/vapi"
)

// ImportResult summarizes one bulk import pass over provider call logs.
type ImportResult struct {
	CallsFound int `json:"callsFound"`
	Matched    int `json:"matched"`
	Updated    int `json:"updated"`
}

// ImportLogs pulls a page of call logs from the provider and reconciles
// every ended call onto an existing candidate. Unmatched logs are skipped;
// importing never creates candidates. A provider failure returns the
// error so the caller can report a degraded, non-fatal outcome.
func (e *Engine) ImportLogs(ctx context.Context, limit, offset int) (ImportResult, error) {
	calls, err := e.provider.ListLogs(ctx, limit, offset)
	if err != nil {
		return ImportResult{}, fmt.Errorf("list provider call logs: %w", err)
	}

	res := ImportResult{CallsFound: len(calls)}
	for _, call := range calls {
		if !call.Ended() {
			continue
		}
		c, ok, err := Resolve(ctx, e.candidates, importMatchInput(call))
		if err != nil {
			return res, fmt.Errorf("resolve imported call %q: %w", call.ID, err)
		}
		if !ok {
			e.log.Debug("imported call matches no candidate", "call_id", call.ID)
			continue
		}
		res.Matched++

		freshData := c.Status != candidate.StatusCompleted || c.VapiCallID == ""
		comp := CompletionFromCall(call, e.now())
		if _, err := e.Complete(ctx, c, comp); err != nil {
			e.log.Error("failed to complete imported candidate",
				"candidate_id", c.ID, "call_id", call.ID, "error", err)
			continue
		}
		if freshData {
			res.Updated++
		}
	}
	return res, nil
}

func importMatchInput(call vapi.Call) MatchInput {
	in := MatchInput{
		VapiCallID: call.ID,
		Phone:      call.CustomerNumber(),
	}
	if id, ok := call.MetadataCandidateID(); ok {
		in.CandidateIDHint = strconv.FormatInt(id, 10)
	}
	return in
}
