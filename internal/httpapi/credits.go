package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h Handlers) GetCredits(c *gin.Context) {
	email := identityEmail(c, c.Query("email"))
	uc, err := h.Credits.GetOrInit(c.Request.Context(), email)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "email": uc.Email, "credits": uc.Credits})
}

type creditActionRequest struct {
	Action string `json:"action"`
	Email  string `json:"email,omitempty"`
	Amount int    `json:"amount,omitempty"`
}

func (h Handlers) PostCredits(c *gin.Context) {
	var req creditActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Action != "consume" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown action"})
		return
	}
	amount := req.Amount
	if amount <= 0 {
		amount = 1
	}
	email := identityEmail(c, req.Email)
	uc, err := h.Credits.Consume(c.Request.Context(), email, amount)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "email": uc.Email, "credits": uc.Credits})
}
