// Package httpapi holds the gin handlers. Keep these thin: parse and
// validate input, call internal services, map errors to statuses, return
// JSON.
package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"outdial-platform/internal/assistants"
	"outdial-platform/internal/auth"
	"outdial-platform/internal/callops"
	"outdial-platform/internal/campaigns"
	"outdial-platform/internal/candidate"
	"outdial-platform/internal/credits"
	"outdial-platform/internal/dialer"
	"outdial-platform/internal/settings"
	"outdial-platform/internal/users"
)

// Handlers groups HTTP handlers for dependency injection.
type Handlers struct {
	Users      *users.Service
	Dialer     *dialer.Service
	Engine     *callops.Engine
	Candidates candidate.Store
	Credits    *credits.Ledger
	Campaigns  *campaigns.Service
	Assistants *assistants.Service
	Settings   settings.Store

	// WebhookSecret, when set, must be presented as a bearer token on
	// webhook posts.
	WebhookSecret string

	Log *slog.Logger
}

// identityEmail resolves the billing email for a request: the verified
// token identity when present, otherwise the explicit value the caller
// supplied. Pre-auth dashboard flows still pass email in the payload.
func identityEmail(c *gin.Context, explicit string) string {
	if email, err := auth.Email(c.Request.Context()); err == nil {
		return email
	}
	return explicit
}

// serviceError maps domain errors onto HTTP statuses shared by the call
// and credit endpoints.
func (h Handlers) serviceError(c *gin.Context, err error) {
	var dialerVErr *dialer.ValidationError
	var campaignVErr *campaigns.ValidationError
	switch {
	case errors.Is(err, credits.ErrInsufficientCredits):
		c.AbortWithStatusJSON(http.StatusPaymentRequired, gin.H{"error": "INSUFFICIENT_CREDITS"})
	case errors.Is(err, credits.ErrEmailRequired):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "email required"})
	case errors.Is(err, candidate.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "candidate not found"})
	case errors.Is(err, campaigns.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
	case errors.Is(err, campaigns.ErrDuplicateName):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "campaign name already exists"})
	case errors.Is(err, dialer.ErrNotPending):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "candidate is not pending"})
	case errors.Is(err, dialer.ErrDialInProgress):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "dial already in progress"})
	case errors.Is(err, dialer.ErrNoCallID):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "candidate has no active call"})
	case errors.As(err, &dialerVErr):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": dialerVErr.Error(), "fields": dialerVErr.Fields})
	case errors.As(err, &campaignVErr):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": campaignVErr.Error(), "fields": campaignVErr.Fields})
	default:
		h.Log.Error("request failed", "path", c.FullPath(), "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h Handlers) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
