package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-tracker-api/internal/auth"
	"github.com/yukikurage/task-tracker-api/internal/constants"
	apierrors "github.com/yukikurage/task-tracker-api/internal/errors"
	"go.uber.org/zap"
)

// RequireAuth checks for a valid, unrevoked bearer token
func RequireAuth(tokens *auth.TokenManager, revocations auth.RevocationStore, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			apierrors.Unauthorized(c, "")
			return
		}

		claims, err := tokens.Parse(raw)
		if err != nil {
			apierrors.Unauthorized(c, "Invalid or expired token")
			return
		}

		revoked, err := revocations.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			log.Error("failed to check token revocation",
				zap.Error(err),
				zap.String("request_id", GetRequestID(c)))
			apierrors.InternalError(c, "")
			c.Abort()
			return
		}
		if revoked {
			apierrors.Unauthorized(c, "Token has been revoked")
			return
		}

		userID, _ := claims.UserID()

		// Store identity in context for easy access in handlers
		c.Set(constants.ContextKeyUserID, userID)
		c.Set(constants.ContextKeyTokenID, claims.ID)
		c.Set(constants.ContextKeyTokenExpiry, claims.ExpiresAt.Time)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}

	switch v := userID.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}

// GetToken returns the id and expiry of the token that authenticated the request
func GetToken(c *gin.Context) (string, time.Time, bool) {
	id := c.GetString(constants.ContextKeyTokenID)
	expiresAt := c.GetTime(constants.ContextKeyTokenExpiry)
	if id == "" {
		return "", time.Time{}, false
	}
	return id, expiresAt, true
}
