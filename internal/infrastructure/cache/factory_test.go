package cache

import (
	"context"
	"testing"

	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// unreachableRedis points at a port nothing listens on
var unreachableRedis = config.RedisConfig{Host: "127.0.0.1", Port: 1}

func TestIdempotencyStoreFactory_NoRedisConfigured(t *testing.T) {
	factory := NewIdempotencyStoreFactory(config.RedisConfig{}, WithLogger(zap.NewNop()))

	store, err := factory.CreateStore(context.Background())
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &InMemoryIdempotencyStore{}, store)
}

func TestIdempotencyStoreFactory_FallsBackWhenRedisIsDown(t *testing.T) {
	factory := NewIdempotencyStoreFactory(unreachableRedis)

	store, err := factory.CreateStore(context.Background())
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &InMemoryIdempotencyStore{}, store)
}

func TestIdempotencyStoreFactory_RequiresRedisWithoutFallback(t *testing.T) {
	factory := NewIdempotencyStoreFactory(unreachableRedis, WithInMemoryFallback(false))

	store, err := factory.CreateStore(context.Background())
	assert.Error(t, err)
	assert.Nil(t, store)
}
