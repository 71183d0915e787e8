//go:build integration

package validation_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vigil/internal/validation"
	"vigil/pkg/testutil/containers"
)

func TestRedisCacheIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	rc := containers.NewRedisContainer(t)
	cache := validation.NewRedisCache(rc.Client)

	t.Run("get and set round trip", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))

		_, ok, err := cache.Get(ctx, "email:deadbeef")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, cache.Set(ctx, "email:deadbeef", []byte(`{"valid":true}`), time.Minute))

		val, ok, err := cache.Get(ctx, "email:deadbeef")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.JSONEq(t, `{"valid":true}`, string(val))
	})

	t.Run("entries expire", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))

		require.NoError(t, cache.Set(ctx, "phone:cafe", []byte("x"), 100*time.Millisecond))

		assert.Eventually(t, func() bool {
			_, ok, err := cache.Get(ctx, "phone:cafe")
			return err == nil && !ok
		}, 2*time.Second, 50*time.Millisecond)
	})

	t.Run("set membership", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))

		ok, err := cache.IsMember(ctx, "email:disposable", "mailinator.com")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, cache.AddMembers(ctx, "email:disposable", "mailinator.com", "trashmail.com"))

		ok, err = cache.IsMember(ctx, "email:disposable", "mailinator.com")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = cache.IsMember(ctx, "email:disposable", "gmail.com")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("read through store over redis", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))

		store := validation.NewStore(cache, slog.New(slog.NewTextHandler(io.Discard, nil)), nil, time.Second)

		calls := 0
		compute := func(ctx context.Context) ([]byte, error) {
			calls++
			return []byte(`{"n":1}`), nil
		}

		val, cached, err := store.GetOrCompute(ctx, "email", "email:abc", time.Minute, compute)
		require.NoError(t, err)
		assert.False(t, cached)
		assert.Equal(t, `{"n":1}`, string(val))

		require.Eventually(t, func() bool {
			_, ok, err := cache.Get(ctx, "email:abc")
			return err == nil && ok
		}, 2*time.Second, 20*time.Millisecond)

		val, cached, err = store.GetOrCompute(ctx, "email", "email:abc", time.Minute, compute)
		require.NoError(t, err)
		assert.True(t, cached)
		assert.Equal(t, `{"n":1}`, string(val))
		assert.Equal(t, 1, calls)
	})
}
