package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"outdial-platform/internal/users"
)

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (h Handlers) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	sess, err := h.Users.Register(c.Request.Context(), req.Email, req.Name, req.Password)
	switch {
	case errors.Is(err, users.ErrInvalidEmail), errors.Is(err, users.ErrWeakPassword):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, users.ErrDuplicateEmail):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "email already registered"})
		return
	case err != nil:
		h.serviceError(c, err)
		return
	}

	// Seed the starting balance now rather than on first dial; failure is
	// tolerable because the ledger also initializes lazily.
	if _, err := h.Credits.GetOrInit(c.Request.Context(), sess.User.Email); err != nil {
		h.Log.Warn("credit init on register failed", "email", sess.User.Email, "error", err)
	}

	c.JSON(http.StatusCreated, sessionResponse(sess))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	sess, err := h.Users.Login(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, users.ErrInvalidCredentials) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse(sess))
}

func sessionResponse(sess users.Session) gin.H {
	return gin.H{
		"success":       true,
		"user":          sess.User,
		"access_token":  sess.Tokens.AccessToken,
		"refresh_token": sess.Tokens.RefreshToken,
	}
}
