package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"outdial-platform/internal/campaigns"
)

func (h Handlers) ListCampaigns(c *gin.Context) {
	list, err := h.Campaigns.List(c.Request.Context())
	if err != nil {
		h.serviceError(c, err)
		return
	}
	if list == nil {
		list = []campaigns.Campaign{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "campaigns": list})
}

func (h Handlers) CreateCampaign(c *gin.Context) {
	var req campaigns.New
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	created, err := h.Campaigns.Create(c.Request.Context(), req)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "campaign": created})
}

type deleteCampaignsRequest struct {
	IDs []int64 `json:"ids"`
}

func (h Handlers) DeleteCampaigns(c *gin.Context) {
	var req deleteCampaignsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	n, err := h.Campaigns.Delete(c.Request.Context(), req.IDs)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "deleted": n})
}
