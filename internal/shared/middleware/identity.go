package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// UserIDKey is the context key for the resolved user ID.
	UserIDKey = "user_id"
	// TokenKey is the context key for the raw bearer token.
	TokenKey = "token"
)

// GetUserID returns the resolved user ID from context, or uuid.Nil.
func GetUserID(c *gin.Context) uuid.UUID {
	if val, exists := c.Get(UserIDKey); exists {
		if userID, ok := val.(uuid.UUID); ok {
			return userID
		}
	}
	return uuid.Nil
}

// GetToken returns the raw bearer token from context.
func GetToken(c *gin.Context) string {
	if val, exists := c.Get(TokenKey); exists {
		if token, ok := val.(string); ok {
			return token
		}
	}
	return ""
}
