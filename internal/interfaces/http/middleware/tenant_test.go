package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tenantRouter(cfg TenantMiddlewareConfig, seen *identity) *gin.Engine {
	router := gin.New()
	router.Use(TenantMiddlewareWithConfig(cfg))
	handler := func(c *gin.Context) {
		*seen = identity{tenantID: logger.GetTenantID(c.Request.Context()), userID: GetUserUUID(c)}
		c.Status(http.StatusOK)
	}
	router.GET("/api/v1/ledger/accounts", handler)
	router.GET("/health", handler)
	return router
}

func TestTenantMiddleware_HeaderExtraction(t *testing.T) {
	tenantID := uuid.New()
	userID := uuid.New()

	tests := []struct {
		name       string
		tenant     string
		user       string
		wantStatus int
		wantUser   bool
	}{
		{"tenant and user", tenantID.String(), userID.String(), http.StatusOK, true},
		{"tenant only", tenantID.String(), "", http.StatusOK, false},
		{"missing tenant", "", userID.String(), http.StatusUnauthorized, false},
		{"malformed tenant", "acme", "", http.StatusUnauthorized, false},
		{"malformed user", tenantID.String(), "bob", http.StatusUnauthorized, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen identity
			req := httptest.NewRequest(http.MethodGet, "/api/v1/ledger/accounts", nil)
			if tt.tenant != "" {
				req.Header.Set(TenantHeaderKey, tt.tenant)
			}
			if tt.user != "" {
				req.Header.Set(UserHeaderKey, tt.user)
			}
			w := httptest.NewRecorder()
			tenantRouter(DefaultTenantConfig(), &seen).ServeHTTP(w, req)

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}
			assert.Equal(t, tenantID, seen.tenantID)
			if tt.wantUser {
				require.NotNil(t, seen.userID)
				assert.Equal(t, userID, *seen.userID)
			} else {
				assert.Nil(t, seen.userID)
			}
		})
	}
}

func TestTenantMiddleware_JWTWinsOverHeader(t *testing.T) {
	svc := newTestJWTService()
	tok := issue(t, svc, 0)

	var seen identity
	router := gin.New()
	router.Use(JWTAuthMiddleware(svc))
	router.Use(TenantMiddleware())
	router.GET("/api/v1/ledger/accounts", func(c *gin.Context) {
		seen = identity{tenantID: logger.GetTenantID(c.Request.Context()), userID: GetUserUUID(c)}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ledger/accounts", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+tok.token)
	req.Header.Set(TenantHeaderKey, uuid.NewString())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, tok.tenantID, seen.tenantID)
	require.NotNil(t, seen.userID)
	assert.Equal(t, tok.userID, *seen.userID)
}

func TestTenantMiddleware_SkipAndOptional(t *testing.T) {
	var seen identity
	w := httptest.NewRecorder()
	tenantRouter(DefaultTenantConfig(), &seen).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	cfg := DefaultTenantConfig()
	cfg.Required = false
	w = httptest.NewRecorder()
	tenantRouter(cfg, &seen).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/ledger/accounts", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uuid.Nil, seen.tenantID)
}

func TestTenantMiddleware_HeaderDisabled(t *testing.T) {
	cfg := DefaultTenantConfig()
	cfg.HeaderEnabled = false

	var seen identity
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ledger/accounts", nil)
	req.Header.Set(TenantHeaderKey, uuid.NewString())
	w := httptest.NewRecorder()
	tenantRouter(cfg, &seen).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
