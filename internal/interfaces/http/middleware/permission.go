package middleware

import (
	"net/http"

	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Permissions checked by the ledger routes
const (
	PermissionOutboxAdmin = "ledger:outbox:admin"
)

// RequireAnyPermission admits requests whose token grants at least one of
// permissions. Requests without verified claims are denied.
func RequireAnyPermission(log *zap.Logger, permissions ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims != nil && claims.HasAnyPermission(permissions...) {
			c.Next()
			return
		}

		if log != nil {
			fields := []zap.Field{
				zap.Strings("required_permissions", permissions),
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
			}
			if claims != nil {
				fields = append(fields, zap.String("user_id", claims.UserID))
			}
			log.Warn("Permission denied", fields...)
		}
		c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeForbidden, "Access denied: insufficient permissions", getRequestIDFromContext(c)))
	}
}
