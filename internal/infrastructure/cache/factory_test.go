package cache

import (
	"context"
	"testing"

	"github.com/shopcart/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// unreachableRedis points at a port nothing listens on
var unreachableRedis = config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}

func TestStoreFactory_CreateStore(t *testing.T) {
	ctx := context.Background()

	t.Run("redis disabled uses memory", func(t *testing.T) {
		f := NewStoreFactory(config.RedisConfig{Enabled: false})
		store, err := f.CreateStore(ctx)
		require.NoError(t, err)
		defer store.Close()

		_, ok := store.(*InMemoryStore)
		assert.True(t, ok)
	})

	t.Run("falls back to memory when redis is unreachable", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		f := NewStoreFactory(unreachableRedis, WithLogger(zap.New(core)))

		store, err := f.CreateStore(ctx)
		require.NoError(t, err)
		defer store.Close()

		_, ok := store.(*InMemoryStore)
		assert.True(t, ok)
		assert.Equal(t, 1, logs.FilterMessage("Redis unavailable, falling back to in-memory cache store").Len())
	})

	t.Run("fails without fallback", func(t *testing.T) {
		f := NewStoreFactory(unreachableRedis, WithInMemoryFallback(false))

		store, err := f.CreateStore(ctx)
		require.Error(t, err)
		assert.Nil(t, store)
		assert.Contains(t, err.Error(), "Redis required for caching")
	})
}
