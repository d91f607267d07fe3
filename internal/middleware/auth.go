package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/launchdeck/launchdeck/backend/internal/services"
	"github.com/launchdeck/launchdeck/backend/internal/utils"
	"github.com/launchdeck/launchdeck/backend/pkg/response"
)

const (
	ContextUserID  = "user_id"
	ContextEmail   = "email"
	ContextSession = "session"
)

// AuthRequired rejects requests without a valid bearer token.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, msg := sessionFromHeader(c)
		if session == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Response{Error: msg})
			return
		}
		setSession(c, session)
		c.Next()
	}
}

// OptionalAuth attaches a session when a valid token is present and lets the
// request through either way. Handlers decide when to report 401.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if session, _ := sessionFromHeader(c); session != nil {
			setSession(c, session)
		}
		c.Next()
	}
}

func sessionFromHeader(c *gin.Context) (*services.Session, string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, "authorization header required"
	}

	// Extract token from "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return nil, "invalid authorization header format"
	}

	claims, err := utils.ParseToken(parts[1])
	if err != nil {
		return nil, "invalid or expired token"
	}
	return &services.Session{UserID: claims.UserID, Email: claims.Email}, ""
}

func setSession(c *gin.Context, session *services.Session) {
	c.Set(ContextSession, session)
	c.Set(ContextUserID, session.UserID)
	c.Set(ContextEmail, session.Email)
}

// GetSession returns the request's session, or nil when unauthenticated.
func GetSession(c *gin.Context) *services.Session {
	if v, exists := c.Get(ContextSession); exists {
		if session, ok := v.(*services.Session); ok {
			return session
		}
	}
	return nil
}

// GetUserID gets the current user ID from context
func GetUserID(c *gin.Context) string {
	if id, exists := c.Get(ContextUserID); exists {
		return id.(string)
	}
	return ""
}

// GetEmail gets the current user's email from context
func GetEmail(c *gin.Context) string {
	if email, exists := c.Get(ContextEmail); exists {
		return email.(string)
	}
	return ""
}
