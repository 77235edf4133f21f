package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist reports tokens revoked before they expire. Revocations are
// written by the identity service; the ledger only reads them.
type TokenBlacklist interface {
	// IsBlacklisted checks if a token's JTI was revoked
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
	// IsUserTokenInvalidated reports whether every token of the user issued
	// at or before tokenIssuedAt was revoked
	IsUserTokenInvalidated(ctx context.Context, userID string, tokenIssuedAt time.Time) (bool, error)
}

// RedisTokenBlacklist implements TokenBlacklist using Redis
type RedisTokenBlacklist struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisTokenBlacklist reads revocations from the given client
func NewRedisTokenBlacklist(client redis.UniversalClient) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{
		client:    client,
		keyPrefix: "token:blacklist:",
	}
}

func (b *RedisTokenBlacklist) jtiKey(jti string) string {
	return b.keyPrefix + "jti:" + jti
}

func (b *RedisTokenBlacklist) userKey(userID string) string {
	return b.keyPrefix + "user:" + userID
}

// IsBlacklisted checks if a token's JTI is in the blacklist
func (b *RedisTokenBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	exists, err := b.client.Exists(ctx, b.jtiKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return exists > 0, nil
}

// IsUserTokenInvalidated compares the token's issue time with the stored
// invalidation timestamp (unix seconds)
func (b *RedisTokenBlacklist) IsUserTokenInvalidated(ctx context.Context, userID string, tokenIssuedAt time.Time) (bool, error) {
	value, err := b.client.Get(ctx, b.userKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check user token invalidation: %w", err)
	}

	invalidatedAt, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return false, fmt.Errorf("failed to parse invalidation timestamp: %w", err)
	}
	return tokenIssuedAt.Unix() <= invalidatedAt, nil
}

var _ TokenBlacklist = (*RedisTokenBlacklist)(nil)

// InMemoryTokenBlacklist is a process-local blacklist for tests and single
// instance development setups
type InMemoryTokenBlacklist struct {
	mu          sync.RWMutex
	tokens      map[string]time.Time // JTI -> expiration time
	invalidated map[string]time.Time // userID -> invalidation time
}

// NewInMemoryTokenBlacklist creates a new in-memory token blacklist
func NewInMemoryTokenBlacklist() *InMemoryTokenBlacklist {
	return &InMemoryTokenBlacklist{
		tokens:      make(map[string]time.Time),
		invalidated: make(map[string]time.Time),
	}
}

// Revoke blacklists a JTI for ttl
func (b *InMemoryTokenBlacklist) Revoke(jti string, ttl time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens[jti] = time.Now().Add(ttl)
}

// RevokeUser invalidates every token of the user issued until now
func (b *InMemoryTokenBlacklist) RevokeUser(userID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.invalidated[userID] = time.Now()
}

// IsBlacklisted checks if a token's JTI is blacklisted and not expired
func (b *InMemoryTokenBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	expiration, exists := b.tokens[jti]
	if !exists {
		return false, nil
	}
	if time.Now().After(expiration) {
		delete(b.tokens, jti)
		return false, nil
	}
	return true, nil
}

// IsUserTokenInvalidated checks if a token was issued before the user's invalidation time
func (b *InMemoryTokenBlacklist) IsUserTokenInvalidated(_ context.Context, userID string, tokenIssuedAt time.Time) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	invalidatedAt, exists := b.invalidated[userID]
	if !exists {
		return false, nil
	}
	return !tokenIssuedAt.After(invalidatedAt), nil
}

var _ TokenBlacklist = (*InMemoryTokenBlacklist)(nil)
