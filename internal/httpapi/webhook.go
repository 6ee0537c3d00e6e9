package httpapi

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"outdial-platform/internal/callops"
)

const maxWebhookBody = 1 << 20

// PostWebhook ingests provider events. A parseable request is always
// acknowledged with {ok:true}; failures past that point are logged, not
// returned, so the provider never retries what the sync poll will repair.
func (h Handlers) PostWebhook(c *gin.Context) {
	if h.WebhookSecret != "" && !h.webhookAuthorized(c) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "unauthorized"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"ok": false, "error": "unreadable body"})
		return
	}
	ev, err := decodeEvent(body)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid json"})
		return
	}

	if err := h.Engine.HandleEvent(c.Request.Context(), ev); err != nil {
		h.Log.Error("webhook event processing failed",
			"type", ev.Type, "call_id", ev.CallID, "error", err)
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GetWebhook lets the provider dashboard verify the endpoint is live.
func (h Handlers) GetWebhook(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "webhook endpoint active"})
}

func (h Handlers) webhookAuthorized(c *gin.Context) bool {
	raw := strings.TrimSpace(c.GetHeader("Authorization"))
	token := strings.TrimPrefix(raw, "Bearer ")
	if token == raw {
		// Some provider configs send the secret bare.
		token = c.GetHeader("X-Vapi-Secret")
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.WebhookSecret)) == 1
}

// decodeEvent accepts both the flat event shape and the {message: {...}}
// envelope newer provider versions post.
func decodeEvent(body []byte) (callops.Event, error) {
	var wrapped struct {
		Message *callops.Event `json:"message"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Message != nil && wrapped.Message.Type != "" {
		return *wrapped.Message, nil
	}
	var ev callops.Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return callops.Event{}, err
	}
	return ev, nil
}
