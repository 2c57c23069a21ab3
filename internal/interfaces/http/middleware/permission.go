package middleware

import (
	"net/http"

	"github.com/gasdist/backend/internal/domain/identity"
	"github.com/gasdist/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequireCapability lets the request through when the caller's role grants any of
// caps. It must run after JWTAuthMiddleware.
func RequireCapability(caps ...identity.Capability) gin.HandlerFunc {
	return RequireCapabilityWithLogger(nil, caps...)
}

// RequireCapabilityWithLogger is RequireCapability with denial logging
func RequireCapabilityWithLogger(log *zap.Logger, caps ...identity.Capability) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	required := make([]string, len(caps))
	for i, c := range caps {
		required[i] = string(c)
	}

	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponse(dto.ErrCodeUnauthorized, "Authentication required", GetRequestID(c)))
			return
		}

		if !claims.Capabilities().HasAny(caps...) {
			log.Info("Capability check failed",
				zap.String("user_id", claims.UserID),
				zap.String("role", string(claims.Role)),
				zap.Strings("required_any", required),
				zap.String("path", c.FullPath()),
			)
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.NewErrorResponse(dto.ErrCodeForbidden, "You do not have permission to perform this action", GetRequestID(c)))
			return
		}

		c.Next()
	}
}
