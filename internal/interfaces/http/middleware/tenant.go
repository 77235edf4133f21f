package middleware

import (
	"net/http"
	"strings"

	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Tenant context keys and headers
const (
	TenantIDKey     = "tenant_id"
	UserIDKey       = "user_id"
	TenantHeaderKey = "X-Tenant-ID"
	UserHeaderKey   = "X-User-ID"
)

// TenantMiddlewareConfig holds configuration for tenant middleware
type TenantMiddlewareConfig struct {
	// HeaderEnabled enables X-Tenant-ID / X-User-ID header extraction
	HeaderEnabled bool
	// JWTEnabled enables JWT claim extraction (requires JWT middleware to run first)
	JWTEnabled bool
	// SkipPaths are paths that don't require tenant context (e.g., health check)
	SkipPaths []string
	// Required determines if tenant context is mandatory
	Required bool
	// Logger for middleware logging
	Logger *zap.Logger
}

// DefaultTenantConfig returns default tenant middleware configuration
func DefaultTenantConfig() TenantMiddlewareConfig {
	return TenantMiddlewareConfig{
		HeaderEnabled: true,
		JWTEnabled:    true,
		SkipPaths:     []string{"/health", "/healthz", "/ready", "/api/v1/health"},
		Required:      true,
	}
}

// TenantMiddleware resolves the tenant and acting user of the request.
// Extraction order: JWT claims > X-Tenant-ID header.
func TenantMiddleware() gin.HandlerFunc {
	return TenantMiddlewareWithConfig(DefaultTenantConfig())
}

// TenantMiddlewareWithConfig returns tenant middleware with custom configuration
func TenantMiddlewareWithConfig(cfg TenantMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath || strings.HasPrefix(path, skipPath+"/") {
				c.Next()
				return
			}
		}

		tenantID, userID, method := extractIdentity(c, cfg)

		var tenantUUID uuid.UUID
		if tenantID != "" {
			parsed, err := uuid.Parse(tenantID)
			if err != nil {
				respondUnauthorized(c, "Invalid tenant ID format")
				return
			}
			tenantUUID = parsed
		}
		if tenantUUID == uuid.Nil && cfg.Required {
			respondUnauthorized(c, "Tenant identification required")
			return
		}

		var userUUID uuid.UUID
		if userID != "" {
			parsed, err := uuid.Parse(userID)
			if err != nil {
				respondUnauthorized(c, "Invalid user ID format")
				return
			}
			userUUID = parsed
		}

		ctx := c.Request.Context()
		if tenantUUID != uuid.Nil {
			c.Set(TenantIDKey, tenantUUID.String())
			ctx = logger.WithTenantID(ctx, tenantUUID)
		}
		if userUUID != uuid.Nil {
			c.Set(UserIDKey, userUUID.String())
			ctx = logger.WithUserID(ctx, userUUID)
		}
		c.Request = c.Request.WithContext(ctx)

		if cfg.Logger != nil && tenantUUID != uuid.Nil {
			cfg.Logger.Debug("Tenant identified",
				zap.String("tenant_id", tenantUUID.String()),
				zap.String("method", method),
			)
		}

		c.Next()
	}
}

func extractIdentity(c *gin.Context, cfg TenantMiddlewareConfig) (tenantID, userID, method string) {
	if cfg.JWTEnabled {
		if tid := GetJWTTenantID(c); tid != "" {
			return tid, GetJWTUserID(c), "jwt"
		}
	}
	if cfg.HeaderEnabled {
		if tid := c.GetHeader(TenantHeaderKey); tid != "" {
			return tid, c.GetHeader(UserHeaderKey), "header"
		}
	}
	return "", "", ""
}

// respondUnauthorized sends an unauthorized response
func respondUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	})
}

// GetTenantID retrieves the tenant ID from gin.Context
func GetTenantID(c *gin.Context) string {
	return c.GetString(TenantIDKey)
}

// GetTenantUUID retrieves the tenant ID as UUID from gin.Context
func GetTenantUUID(c *gin.Context) (uuid.UUID, error) {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(tenantID)
}

// GetUserUUID retrieves the acting user, nil when the request carries none
func GetUserUUID(c *gin.Context) *uuid.UUID {
	userID := c.GetString(UserIDKey)
	if userID == "" {
		return nil
	}
	parsed, err := uuid.Parse(userID)
	if err != nil {
		return nil
	}
	return &parsed
}
