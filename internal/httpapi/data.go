package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"outdial-platform/internal/candidate"
)

// GetData serves dashboard exports: action=export for a full snapshot,
// action=candidates for the raw candidate list.
func (h Handlers) GetData(c *gin.Context) {
	ctx := c.Request.Context()
	action := c.Query("action")
	if action != "export" && action != "candidates" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown action"})
		return
	}

	cands, err := h.Candidates.List(ctx)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	if cands == nil {
		cands = []candidate.Candidate{}
	}
	if action == "candidates" {
		c.JSON(http.StatusOK, gin.H{"success": true, "candidates": cands})
		return
	}

	camps, err := h.Campaigns.List(ctx)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"exportedAt": time.Now().UTC(),
		"candidates": cands,
		"campaigns":  camps,
	})
}

type dataActionRequest struct {
	Action     string          `json:"action"`
	Candidates []candidate.New `json:"candidates,omitempty"`
	IDs        []int64         `json:"ids,omitempty"`
}

func (h Handlers) PostData(c *gin.Context) {
	var req dataActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	ctx := c.Request.Context()

	switch req.Action {
	case "import":
		created, err := h.Dialer.AddToQueue(ctx, req.Candidates)
		if err != nil {
			h.serviceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "imported": len(created)})

	case "clear_all":
		if err := h.Candidates.DeleteAll(ctx); err != nil {
			h.serviceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})

	case "delete_candidates":
		if len(req.IDs) == 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "ids required"})
			return
		}
		if err := h.Candidates.DeleteMany(ctx, req.IDs); err != nil {
			h.serviceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "deleted": len(req.IDs)})

	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown action"})
	}
}
