package validation

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultFinalize(t *testing.T) {
	t.Run("dedupes preserving order", func(t *testing.T) {
		r := Result{Valid: false}
		r.AddReason("email.invalid_format")
		r.AddReason("email.disposable_domain")
		r.AddReason("email.invalid_format")
		r.Finalize()

		assert.Equal(t, []string{"email.invalid_format", "email.disposable_domain"}, r.ReasonCodes)
	})

	t.Run("valid result keeps empty non-nil slice", func(t *testing.T) {
		r := Result{Valid: true}
		r.Finalize()

		require.NotNil(t, r.ReasonCodes)
		assert.Empty(t, r.ReasonCodes)

		raw, err := json.Marshal(r)
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"reason_codes":[]`)
	})

	t.Run("invalid without reasons gets server_error", func(t *testing.T) {
		r := Result{Valid: false}
		r.Finalize()

		assert.Equal(t, []string{string(ReasonServerError)}, r.ReasonCodes)
	})

	t.Run("idempotent", func(t *testing.T) {
		r := Result{Valid: false}
		r.AddReason("phone.invalid_number")
		r.Finalize()
		first := append([]string(nil), r.ReasonCodes...)
		r.Finalize()

		assert.Equal(t, first, r.ReasonCodes)
	})
}

func TestFingerprint(t *testing.T) {
	type normalized struct {
		Email string `json:"email"`
	}

	t.Run("deterministic and namespace prefixed", func(t *testing.T) {
		a, err := Fingerprint("email", normalized{Email: "a@example.com"})
		require.NoError(t, err)
		b, err := Fingerprint("email", normalized{Email: "a@example.com"})
		require.NoError(t, err)

		assert.Equal(t, a, b)
		assert.Regexp(t, `^email:[0-9a-f]{64}$`, a)
	})

	t.Run("differs by namespace and content", func(t *testing.T) {
		a, err := Fingerprint("email", normalized{Email: "a@example.com"})
		require.NoError(t, err)
		b, err := Fingerprint("phone", normalized{Email: "a@example.com"})
		require.NoError(t, err)
		c, err := Fingerprint("email", normalized{Email: "b@example.com"})
		require.NoError(t, err)

		assert.NotEqual(t, a, b)
		assert.NotEqual(t, a, c)
	})
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()

	t.Run("expires entries", func(t *testing.T) {
		now := time.Now()
		cache := NewMemoryCache(WithClock(func() time.Time { return now }))

		require.NoError(t, cache.Set(ctx, "k", []byte("v"), time.Minute))

		got, ok, err := cache.Get(ctx, "k")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []byte("v"), got)

		now = now.Add(2 * time.Minute)
		_, ok, err = cache.Get(ctx, "k")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("set membership", func(t *testing.T) {
		cache := NewMemoryCache()
		require.NoError(t, cache.AddMembers(ctx, "disposable", "mailinator.com", "tempmail.io"))

		ok, err := cache.IsMember(ctx, "disposable", "mailinator.com")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = cache.IsMember(ctx, "disposable", "example.com")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestStoreGetOrCompute(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	t.Run("miss computes then hit returns stored bytes verbatim", func(t *testing.T) {
		cache := NewMemoryCache()
		store := NewStore(cache, logger, nil, time.Second)

		computes := 0
		compute := func(context.Context) ([]byte, error) {
			computes++
			return []byte(`{"valid":true,"ttl_seconds":3600}`), nil
		}

		raw, hit, err := store.GetOrCompute(ctx, "email", "email:abc", time.Hour, compute)
		require.NoError(t, err)
		assert.False(t, hit)
		assert.Equal(t, 1, computes)

		// The write-back is detached; wait for it to land.
		require.Eventually(t, func() bool {
			_, ok, _ := cache.Get(ctx, "email:abc")
			return ok
		}, time.Second, 5*time.Millisecond)

		again, hit, err := store.GetOrCompute(ctx, "email", "email:abc", time.Hour, compute)
		require.NoError(t, err)
		assert.True(t, hit)
		assert.Equal(t, 1, computes)
		assert.Equal(t, raw, again)
	})

	t.Run("compute error is returned and nothing cached", func(t *testing.T) {
		cache := NewMemoryCache()
		store := NewStore(cache, logger, nil, time.Second)

		_, _, err := store.GetOrCompute(ctx, "email", "email:err", time.Hour, func(context.Context) ([]byte, error) {
			return nil, errors.New("resolver down")
		})
		require.Error(t, err)

		_, ok, err := cache.Get(ctx, "email:err")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("nil cache always computes", func(t *testing.T) {
		store := NewStore(nil, logger, nil, time.Second)

		computes := 0
		for range 3 {
			_, hit, err := store.GetOrCompute(ctx, "phone", "phone:x", time.Hour, func(context.Context) ([]byte, error) {
				computes++
				return []byte(`{}`), nil
			})
			require.NoError(t, err)
			assert.False(t, hit)
		}
		assert.Equal(t, 3, computes)
	})

	t.Run("json helper round-trips typed results", func(t *testing.T) {
		type emailResult struct {
			Result
			NormalizedEmail string `json:"normalized_email"`
		}

		cache := NewMemoryCache()
		store := NewStore(cache, logger, nil, time.Second)

		fresh, hit, err := GetOrComputeJSON(ctx, store, "email", "email:json", time.Hour, func(context.Context) (emailResult, error) {
			r := emailResult{NormalizedEmail: "a@example.com"}
			r.Valid = true
			r.TTLSeconds = 3600
			r.Finalize()
			return r, nil
		})
		require.NoError(t, err)
		assert.False(t, hit)

		require.Eventually(t, func() bool {
			_, ok, _ := cache.Get(ctx, "email:json")
			return ok
		}, time.Second, 5*time.Millisecond)

		cached, hit, err := GetOrComputeJSON(ctx, store, "email", "email:json", time.Hour, func(context.Context) (emailResult, error) {
			t.Fatal("compute must not run on a hit")
			return emailResult{}, nil
		})
		require.NoError(t, err)
		assert.True(t, hit)
		assert.Equal(t, fresh, cached)
	})
}
