package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/OldStager01/botnet-detectors-comparer/internal/auth"
	"github.com/OldStager01/botnet-detectors-comparer/internal/logger"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/database"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
	"github.com/gin-gonic/gin"
)

type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

type AuthHandler struct {
	users       UserStore
	authService *auth.Service
	secure      bool
}

// NewAuthHandler builds the login handler. secure marks the auth cookie
// HTTPS-only.
func NewAuthHandler(users UserStore, authService *auth.Service, secure bool) *AuthHandler {
	return &AuthHandler{
		users:       users,
		authService: authService,
		secure:      secure,
	}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
	Username  string `json:"username"`
}

// Login godoc
// @Summary Log in
// @Description Exchange credentials for a JWT
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	user, err := h.users.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			logger.WarnCtxf(ctx, "Failed login attempt for user: %s", req.Username)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		logger.WarnCtxf(ctx, "Failed login attempt for user: %s", req.Username)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := h.authService.GenerateToken(user.ID, user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	expiresIn := int(h.authService.Expiry().Seconds())
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie("auth_token", token, expiresIn, "/", "", h.secure, true)

	c.JSON(http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresIn: expiresIn,
		Username:  user.Username,
	})
}
