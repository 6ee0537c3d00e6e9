package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h Handlers) GetSettings(c *gin.Context) {
	email := identityEmail(c, c.Query("email"))
	if email == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "email required"})
		return
	}
	doc, err := h.Settings.Get(c.Request.Context(), email)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	if doc == nil {
		doc = json.RawMessage(`{}`)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "settings": doc})
}

type settingsRequest struct {
	Email    string          `json:"email,omitempty"`
	Settings json.RawMessage `json:"settings"`
}

func (h Handlers) PostSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	email := identityEmail(c, req.Email)
	if email == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "email required"})
		return
	}
	if len(req.Settings) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "settings required"})
		return
	}
	if err := h.Settings.Set(c.Request.Context(), email, req.Settings); err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
