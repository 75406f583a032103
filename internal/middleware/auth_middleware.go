package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "studytracker/backend/internal/errors"
)

const UserIDContextKey = "userID"

const bearerPrefix = "Bearer "

// TokenParser resolves a bearer token to a user id.
type TokenParser interface {
	ParseToken(token string) (string, *apperrors.APIError)
}

// Auth rejects requests without a valid bearer token and stores the caller's
// user id under UserIDContextKey.
func Auth(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, apiErr := bearerToken(c.GetHeader("Authorization"))
		if apiErr == nil {
			var userID string
			userID, apiErr = tokens.ParseToken(token)
			if apiErr == nil {
				c.Set(UserIDContextKey, userID)
				c.Next()
				return
			}
		}
		abortWithError(c, apiErr)
	}
}

func bearerToken(header string) (string, *apperrors.APIError) {
	if header == "" {
		return "", apperrors.Unauthorized("missing authorization header")
	}
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", apperrors.Unauthorized("invalid authorization format")
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return "", apperrors.Unauthorized("invalid authorization format")
	}
	return token, nil
}

// UserID returns the authenticated user id, or "" outside Auth.
func UserID(c *gin.Context) string {
	userID, _ := c.Value(UserIDContextKey).(string)
	return userID
}

func abortWithError(c *gin.Context, apiErr *apperrors.APIError) {
	body := gin.H{"code": apiErr.Code, "message": apiErr.Message}
	if apiErr.Details != nil {
		body["details"] = apiErr.Details
	}
	c.AbortWithStatusJSON(apiErr.Status, gin.H{"error": body})
}
