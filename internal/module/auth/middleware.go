package auth

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/inkgen/server/internal/shared/errors"
	"github.com/inkgen/server/internal/shared/middleware"
	"github.com/inkgen/server/internal/shared/response"
)

const (
	// AuthorizationHeader is the header key for authorization.
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens.
	BearerPrefix = "Bearer "
)

// RequireUser returns a middleware that resolves the bearer token to a user
// identity. A missing or malformed Authorization header aborts with 401
// before any store read; an unresolvable token aborts with 404.
func RequireUser(resolver TokenResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractBearerToken(c)
		if token == "" {
			response.AppError(c, apperrors.MissingToken())
			c.Abort()
			return
		}

		userID, err := resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, ErrTokenNotFound) {
				response.AppError(c, apperrors.UnknownUser())
			} else {
				response.AppError(c, err)
			}
			c.Abort()
			return
		}

		c.Set(middleware.UserIDKey, userID)
		c.Set(middleware.TokenKey, token)

		c.Next()
	}
}

// ExtractBearerToken extracts the bearer token from the Authorization header.
// Returns empty string when the header is absent or not a bearer credential.
func ExtractBearerToken(c *gin.Context) string {
	header := c.GetHeader(AuthorizationHeader)
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(header, BearerPrefix) {
		return ""
	}
	return strings.TrimPrefix(header, BearerPrefix)
}
