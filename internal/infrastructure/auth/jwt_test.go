package auth

import (
	"testing"
	"time"

	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-at-least-32-chars"

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{Secret: testSecret, Issuer: "erp-identity"})
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := newTestJWTService()
	tenantID, userID := uuid.New(), uuid.New()

	token, err := svc.GenerateAccessToken(TokenInput{TenantID: tenantID, UserID: userID, Username: "accountant"})
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	gotTenant, err := claims.GetTenantUUID()
	require.NoError(t, err)
	gotUser, err := claims.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, tenantID, gotTenant)
	assert.Equal(t, userID, gotUser)
	assert.Equal(t, "accountant", claims.Username)
	assert.False(t, claims.GetIssuedAtTime().IsZero())
}

func TestJWTService_RejectsExpiredToken(t *testing.T) {
	svc := newTestJWTService()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "erp-identity",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
		TenantID:  uuid.NewString(),
		UserID:    uuid.NewString(),
		TokenType: TokenTypeAccess,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTService_RejectsForeignTokens(t *testing.T) {
	svc := newTestJWTService()
	input := TokenInput{TenantID: uuid.New(), UserID: uuid.New()}

	t.Run("other secret", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: "another-secret-of-sufficient-length", Issuer: "erp-identity"})
		token, err := other.GenerateAccessToken(input)
		require.NoError(t, err)
		_, err = svc.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other issuer", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: testSecret, Issuer: "someone-else"})
		token, err := other.GenerateAccessToken(input)
		require.NoError(t, err)
		_, err = svc.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateAccessToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestJWTService_RequiresAccessTokenWithIdentity(t *testing.T) {
	svc := newTestJWTService()
	sign := func(c *Claims) string {
		c.Issuer = "erp-identity"
		c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Minute))
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(testSecret))
		require.NoError(t, err)
		return token
	}

	_, err := svc.ValidateAccessToken(sign(&Claims{TenantID: "t", UserID: "u", TokenType: TokenTypeRefresh}))
	assert.ErrorIs(t, err, ErrInvalidTokenType)

	_, err = svc.ValidateAccessToken(sign(&Claims{UserID: "u", TokenType: TokenTypeAccess}))
	assert.ErrorIs(t, err, ErrMissingTenantID)

	_, err = svc.ValidateAccessToken(sign(&Claims{TenantID: "t", TokenType: TokenTypeAccess}))
	assert.ErrorIs(t, err, ErrMissingUserID)
}
