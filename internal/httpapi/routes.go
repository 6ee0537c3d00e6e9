package httpapi

import "github.com/gin-gonic/gin"

// RegisterRoutes wires the API surface onto a gin engine. Keep this file
// free of business logic.
func RegisterRoutes(r *gin.Engine, h Handlers, optionalAuth gin.HandlerFunc) {
	r.GET("/healthz", h.Healthz)

	// Provider webhook. Its own bearer secret guards it, not user auth.
	r.POST("/api/vapi-webhook", h.PostWebhook)
	r.GET("/api/vapi-webhook", h.GetWebhook)

	auth := r.Group("/api/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
	}

	api := r.Group("/api")
	if optionalAuth != nil {
		api.Use(optionalAuth)
	}
	{
		api.GET("/calls", h.GetCalls)
		api.POST("/calls", h.PostCalls)

		api.GET("/credits", h.GetCredits)
		api.POST("/credits", h.PostCredits)

		api.GET("/campaigns", h.ListCampaigns)
		api.POST("/campaigns", h.CreateCampaign)
		api.DELETE("/campaigns", h.DeleteCampaigns)

		api.GET("/assistants", h.ListAssistants)
		api.PATCH("/assistants/:id", h.UpdateAssistant)

		api.GET("/data", h.GetData)
		api.POST("/data", h.PostData)

		api.GET("/settings", h.GetSettings)
		api.POST("/settings", h.PostSettings)
	}
}
