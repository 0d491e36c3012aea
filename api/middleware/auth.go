package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/OldStager01/botnet-detectors-comparer/internal/auth"
	"github.com/gin-gonic/gin"
)

const (
	AuthorizationHeader = "Authorization"
	BearerPrefix        = "Bearer "
	AuthCookie          = "auth_token"
	UserIDKey           = "user_id"
	UsernameKey         = "username"
)

// JWTAuth accepts a bearer token or the auth_token cookie set at login.
func JWTAuth(authService *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing authorization header",
			})
			return
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			message := "invalid token"
			if errors.Is(err, auth.ErrExpiredToken) {
				message = "token expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": message,
			})
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UsernameKey, claims.Username)

		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	if header := c.GetHeader(AuthorizationHeader); header != "" {
		if !strings.HasPrefix(header, BearerPrefix) {
			return "", false
		}
		return strings.TrimPrefix(header, BearerPrefix), true
	}
	if cookie, err := c.Cookie(AuthCookie); err == nil && cookie != "" {
		return cookie, true
	}
	return "", false
}

func GetUserID(c *gin.Context) int {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return 0
	}
	return userID.(int)
}

func GetUsername(c *gin.Context) string {
	username, exists := c.Get(UsernameKey)
	if !exists {
		return ""
	}
	return username.(string)
}
