//go:build integration

package address_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vigil/internal/address"
	"vigil/pkg/testutil/containers"
)

func TestPostgresGazetteerIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	pc := containers.NewPostgresContainer(t)
	gaz := address.NewPostgresGazetteer(pc.DB)

	seed := func(country, postal, city, admin1 string) {
		_, err := pc.DB.ExecContext(ctx,
			`INSERT INTO gazetteer (country, postal_code, city, admin1) VALUES ($1, $2, $3, $4)`,
			country, postal, city, admin1)
		require.NoError(t, err)
	}

	require.NoError(t, pc.TruncateTables(ctx, "gazetteer"))
	seed("US", "97210", "Portland", "Oregon")
	seed("DE", "10115", "Berlin", "Berlin")

	t.Run("city matches postal code", func(t *testing.T) {
		ok, err := gaz.Match(ctx, "US", "97210", "Portland")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("match is case insensitive", func(t *testing.T) {
		ok, err := gaz.Match(ctx, "us", "97210", "PORTLAND")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("admin1 counts as a match", func(t *testing.T) {
		ok, err := gaz.Match(ctx, "US", "97210", "Oregon")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("wrong city for postal code", func(t *testing.T) {
		ok, err := gaz.Match(ctx, "US", "97210", "Seattle")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("country scopes the lookup", func(t *testing.T) {
		ok, err := gaz.Match(ctx, "DE", "97210", "Portland")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("no names never matches", func(t *testing.T) {
		ok, err := gaz.Match(ctx, "US", "97210")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestPostgresBoundsIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	pc := containers.NewPostgresContainer(t)
	bounds := address.NewPostgresBounds(pc.DB)

	_, err := pc.DB.ExecContext(ctx, `
		INSERT INTO country_bounds (country, min_lat, max_lat, min_lng, max_lng) VALUES
		('US', 24.5, 49.4, -125.0, -66.9),
		('FJ', -21.0, -12.5, 176.0, -178.0)`)
	require.NoError(t, err)

	t.Run("known country", func(t *testing.T) {
		box, ok, err := bounds.Bounds(ctx, "US")
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, box.Contains(45.52, -122.68))
		assert.False(t, box.Contains(48.85, 2.35))
	})

	t.Run("antimeridian box", func(t *testing.T) {
		box, ok, err := bounds.Bounds(ctx, "fj")
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, box.Contains(-18.14, 178.44))
		assert.True(t, box.Contains(-16.8, -179.3))
		assert.False(t, box.Contains(-18.14, 0))
	})

	t.Run("unknown country", func(t *testing.T) {
		_, ok, err := bounds.Bounds(ctx, "XX")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
