package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"outdial-platform/internal/assistants"
	"outdial-platform/internal/vapi"
)

func (h Handlers) ListAssistants(c *gin.Context) {
	list, err := h.Assistants.List(c.Request.Context())
	if err != nil {
		h.providerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "assistants": list})
}

func (h Handlers) UpdateAssistant(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "assistant id required"})
		return
	}
	var req assistants.Update
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.FirstMessage == nil && req.Script == nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}
	updated, err := h.Assistants.Set(c.Request.Context(), id, req)
	if err != nil {
		h.providerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "assistant": updated})
}

// providerError passes through the provider's own status when it is a
// client-side problem, and hides everything else behind a 502.
func (h Handlers) providerError(c *gin.Context, err error) {
	var apiErr *vapi.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500:
		c.AbortWithStatusJSON(apiErr.StatusCode, gin.H{"error": apiErr.Message})
	default:
		h.Log.Error("provider request failed", "path", c.FullPath(), "error", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "voice provider unavailable"})
	}
}
