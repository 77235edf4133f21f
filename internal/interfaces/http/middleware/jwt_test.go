package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erp/ledger/internal/infrastructure/auth"
	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret: "test-secret-key-at-least-32-chars",
		Issuer: "erp-identity",
	})
}

type issuedToken struct {
	token    string
	tenantID uuid.UUID
	userID   uuid.UUID
	jti      string
}

func issue(t *testing.T, svc *auth.JWTService, ttl time.Duration) issuedToken {
	t.Helper()
	in := auth.TokenInput{TenantID: uuid.New(), UserID: uuid.New(), Username: "accountant", TTL: ttl}
	token, err := svc.GenerateAccessToken(in)
	require.NoError(t, err)
	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	return issuedToken{token: token, tenantID: in.TenantID, userID: in.UserID, jti: claims.ID}
}

type identity struct {
	tenantID uuid.UUID
	userID   *uuid.UUID
	jwt      string
}

func jwtRouter(cfg JWTMiddlewareConfig, seen *identity) *gin.Engine {
	router := gin.New()
	router.Use(JWTAuthMiddlewareWithConfig(cfg))
	handler := func(c *gin.Context) {
		ctx := c.Request.Context()
		*seen = identity{tenantID: logger.GetTenantID(ctx), userID: logger.GetUserID(ctx), jwt: GetJWTTenantID(c)}
		c.Status(http.StatusOK)
	}
	router.GET("/api/v1/ledger/accounts", handler)
	router.GET("/health", handler)
	return router
}

func call(router *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set(AuthHeaderKey, authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

func TestJWTAuthMiddleware_ValidTokenSetsIdentity(t *testing.T) {
	svc := newTestJWTService()
	tok := issue(t, svc, 0)
	var seen identity

	w := call(jwtRouter(DefaultJWTConfig(svc), &seen), "/api/v1/ledger/accounts", BearerPrefix+tok.token)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, tok.tenantID, seen.tenantID)
	require.NotNil(t, seen.userID)
	assert.Equal(t, tok.userID, *seen.userID)
	assert.Equal(t, tok.tenantID.String(), seen.jwt)
}

func TestJWTAuthMiddleware_Rejections(t *testing.T) {
	svc := newTestJWTService()
	other := auth.NewJWTService(config.JWTConfig{Secret: "another-secret-key-of-32-characters", Issuer: "erp-identity"})
	foreign := issue(t, other, 0)

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"missing header", "", "INVALID_TOKEN"},
		{"not bearer", "Basic dXNlcjpwYXNz", "INVALID_TOKEN"},
		{"empty bearer", BearerPrefix, "INVALID_TOKEN"},
		{"garbage", BearerPrefix + "not.a.jwt", "INVALID_TOKEN"},
		{"foreign secret", BearerPrefix + foreign.token, "INVALID_TOKEN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen identity
			w := call(jwtRouter(DefaultJWTConfig(svc), &seen), "/api/v1/ledger/accounts", tt.header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestJWTAuthMiddleware_ExpiredToken(t *testing.T) {
	svc := newTestJWTService()
	token, err := svc.GenerateAccessToken(auth.TokenInput{TenantID: uuid.New(), UserID: uuid.New(), TTL: time.Nanosecond})
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)

	var seen identity
	w := call(jwtRouter(DefaultJWTConfig(svc), &seen), "/api/v1/ledger/accounts", BearerPrefix+token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "TOKEN_EXPIRED", errorCode(t, w))
}

func TestJWTAuthMiddleware_SkipPathsAndOptional(t *testing.T) {
	svc := newTestJWTService()
	var seen identity

	w := call(jwtRouter(DefaultJWTConfig(svc), &seen), "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	cfg := DefaultJWTConfig(svc)
	cfg.Required = false
	w = call(jwtRouter(cfg, &seen), "/api/v1/ledger/accounts", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uuid.Nil, seen.tenantID)

	// a presented token is still verified when optional
	w = call(jwtRouter(cfg, &seen), "/api/v1/ledger/accounts", BearerPrefix+"junk")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthMiddleware_Blacklist(t *testing.T) {
	svc := newTestJWTService()
	blacklist := auth.NewInMemoryTokenBlacklist()
	cfg := DefaultJWTConfig(svc)
	cfg.TokenBlacklist = blacklist

	revoked := issue(t, svc, 0)
	blacklist.Revoke(revoked.jti, time.Hour)
	var seen identity
	w := call(jwtRouter(cfg, &seen), "/api/v1/ledger/accounts", BearerPrefix+revoked.token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "TOKEN_REVOKED", errorCode(t, w))

	fresh := issue(t, svc, 0)
	w = call(jwtRouter(cfg, &seen), "/api/v1/ledger/accounts", BearerPrefix+fresh.token)
	assert.Equal(t, http.StatusOK, w.Code)
}

type failingBlacklist struct{}

func (failingBlacklist) IsBlacklisted(context.Context, string) (bool, error) {
	return false, errors.New("redis: connection refused")
}

func (failingBlacklist) IsUserTokenInvalidated(context.Context, string, time.Time) (bool, error) {
	return false, errors.New("redis: connection refused")
}

func TestJWTAuthMiddleware_BlacklistFailsOpen(t *testing.T) {
	svc := newTestJWTService()
	cfg := DefaultJWTConfig(svc)
	cfg.TokenBlacklist = failingBlacklist{}

	var seen identity
	w := call(jwtRouter(cfg, &seen), "/api/v1/ledger/accounts", BearerPrefix+issue(t, svc, 0).token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJWTAuthMiddleware_OnError(t *testing.T) {
	svc := newTestJWTService()
	cfg := DefaultJWTConfig(svc)
	var got error
	cfg.OnError = func(c *gin.Context, err error) {
		got = err
		c.JSON(http.StatusTeapot, gin.H{})
	}

	var seen identity
	w := call(jwtRouter(cfg, &seen), "/api/v1/ledger/accounts", BearerPrefix+"junk")
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.ErrorIs(t, got, auth.ErrInvalidToken)
	assert.Equal(t, uuid.Nil, seen.tenantID)
}
