package handlers

import (
	"net/http"

	"github.com/fittrack/fittrack/errors"
	"github.com/fittrack/fittrack/logger"
	"github.com/gin-gonic/gin"
)

// AuthHandler exposes the auth store to the UI.
type AuthHandler struct {
	auth AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(auth AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type otpRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type passwordRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// GetStateHandler returns the current auth state snapshot.
func (h *AuthHandler) GetStateHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.auth.State())
}

// SignInWithOtpHandler emails a passwordless sign-in link.
func (h *AuthHandler) SignInWithOtpHandler(c *gin.Context) {
	var req otpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, errors.ValidationFailed("Invalid request format", err.Error()))
		return
	}

	if err := h.auth.SignIn(c.Request.Context(), req.Email); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "Check your email for the sign-in link"})
}

// SignInWithPasswordHandler signs in with credentials and returns the
// resulting state.
func (h *AuthHandler) SignInWithPasswordHandler(c *gin.Context) {
	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, errors.ValidationFailed("Invalid request format", err.Error()))
		return
	}

	session, err := h.auth.SignInWithPassword(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  session.AccessToken,
		"refresh_token": session.RefreshToken,
		"expires_in":    session.ExpiresIn,
		"expires_at":    session.ExpiresAt,
		"token_type":    "bearer",
		"user":          session.User,
	})
}

// SignOutHandler ends the session.
func (h *AuthHandler) SignOutHandler(c *gin.Context) {
	if err := h.auth.SignOut(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) fail(c *gin.Context, err error) {
	if err := c.Error(err); err != nil {
		logger.GetLogger().Errorw("Failed to set error in context", "error", err)
	}
}
