package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"outdial-platform/internal/candidate"
)

type callActionRequest struct {
	Action string `json:"action"`

	Email         string          `json:"email,omitempty"`
	CandidateID   int64           `json:"candidateId,omitempty"`
	AssistantID   string          `json:"assistantId,omitempty"`
	PhoneNumberID string          `json:"phoneNumberId,omitempty"`
	Result        string          `json:"result,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	Candidates    []candidate.New `json:"candidates,omitempty"`
	Limit         int             `json:"limit,omitempty"`
	Offset        int             `json:"offset,omitempty"`
}

// PostCalls multiplexes the dashboard's call actions behind one endpoint,
// discriminated by the action field.
func (h Handlers) PostCalls(c *gin.Context) {
	var req callActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	ctx := c.Request.Context()

	switch req.Action {
	case "add_to_queue":
		created, err := h.Dialer.AddToQueue(ctx, req.Candidates)
		if err != nil {
			h.serviceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "candidates": created})

	case "start_call":
		email := identityEmail(c, req.Email)
		cand, err := h.Dialer.StartCall(ctx, email, req.CandidateID, req.AssistantID, req.PhoneNumberID)
		if err != nil {
			h.serviceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "candidate": cand})

	case "end_call":
		cand, err := h.Dialer.EndCall(ctx, req.CandidateID, req.Result, req.Notes)
		if err != nil {
			h.serviceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "candidate": cand})

	case "clear_queue":
		if err := h.Dialer.ClearQueue(ctx); err != nil {
			h.serviceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})

	case "check_call_status":
		st, err := h.Dialer.CheckCallStatus(ctx, req.CandidateID)
		if err != nil {
			h.serviceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "status": st})

	case "sync_calls_from_vapi":
		res, err := h.Engine.SyncActiveCalls(ctx)
		if err != nil {
			h.serviceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "result": res})

	case "import_calls_from_vapi":
		res, err := h.Engine.ImportLogs(ctx, req.Limit, req.Offset)
		if err != nil {
			// Degraded but non-fatal: import is one leg of an
			// orchestrated import-then-sync flow, and the sync leg
			// must still run.
			h.Log.Warn("call log import failed", "error", err)
			c.JSON(http.StatusOK, gin.H{"success": false, "error": "provider unavailable", "result": res})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "result": res})

	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown action"})
	}
}

// GetCalls lists candidates: type=queue for pending, type=history for
// completed, anything else for everything.
func (h Handlers) GetCalls(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		list []candidate.Candidate
		err  error
	)
	switch c.Query("type") {
	case "queue":
		list, err = h.Candidates.ListByStatus(ctx, candidate.StatusPending)
	case "history":
		list, err = h.Candidates.ListByStatus(ctx, candidate.StatusCompleted)
	default:
		list, err = h.Candidates.List(ctx)
	}
	if err != nil {
		h.serviceError(c, err)
		return
	}
	if list == nil {
		list = []candidate.Candidate{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "candidates": list})
}
