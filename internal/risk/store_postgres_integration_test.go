//go:build integration

package risk_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vigil/internal/address"
	"vigil/internal/risk"
	"vigil/pkg/testutil/containers"
)

func seedOrder(t *testing.T, store *risk.PostgresStore, id, email, name, line1, city, postal, country string) {
	t.Helper()
	err := store.InsertOrder(context.Background(), risk.OrderRecord{
		OrderID:    id,
		Email:      email,
		FullName:   name,
		Line1:      line1,
		City:       city,
		PostalCode: postal,
		Country:    country,
		CreatedAt:  time.Now(),
	})
	require.NoError(t, err)
}

func TestPostgresStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	pc := containers.NewPostgresContainer(t)
	store := risk.NewPostgresStore(pc.DB)

	reset := func(t *testing.T) {
		require.NoError(t, pc.TruncateTables(ctx, "orders"))
	}

	t.Run("exact email outranks name similarity", func(t *testing.T) {
		reset(t)
		seedOrder(t, store, "ord-1", "jane@example.com", "Jane Smith", "1 Main St", "Portland", "97210", "US")
		seedOrder(t, store, "ord-2", "other@example.com", "Jane Smyth", "2 Oak Ave", "Portland", "97209", "US")

		matches, err := store.MatchCustomers(ctx, "JANE@example.com", "Jane Smith", 0.3, 3)
		require.NoError(t, err)
		require.NotEmpty(t, matches)
		assert.Equal(t, "ord-1", matches[0].RecordID)
		assert.Equal(t, "exact_email", matches[0].MatchType)
		assert.InDelta(t, 1.0, matches[0].Similarity, 1e-9)
	})

	t.Run("trigram name match above threshold", func(t *testing.T) {
		reset(t)
		seedOrder(t, store, "ord-1", "a@example.com", "Jonathan Marsh", "1 Main St", "Portland", "97210", "US")
		seedOrder(t, store, "ord-2", "b@example.com", "Zofia Kwiatkowska", "2 Oak Ave", "Lisbon", "1100", "PT")

		matches, err := store.MatchCustomers(ctx, "c@example.com", "Jonathon Marsh", 0.3, 3)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "ord-1", matches[0].RecordID)
		assert.Equal(t, "name_trigram", matches[0].MatchType)
		assert.Greater(t, matches[0].Similarity, 0.3)
	})

	t.Run("exact postal plus city matches address", func(t *testing.T) {
		reset(t)
		seedOrder(t, store, "ord-1", "a@example.com", "Jane Smith", "1 Main St", "Portland", "97210", "US")

		matches, err := store.MatchAddresses(ctx, address.Input{
			Line1: "99 Completely Different Rd", City: "portland", PostalCode: "97210", Country: "us",
		}, 0.6, 3)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "exact_postal", matches[0].MatchType)
	})

	t.Run("address trigram similarity", func(t *testing.T) {
		reset(t)
		seedOrder(t, store, "ord-1", "a@example.com", "Jane Smith", "123 Northwest Lovejoy Street", "Portland", "97210", "US")

		matches, err := store.MatchAddresses(ctx, address.Input{
			Line1: "123 NW Lovejoy Street", City: "Portland", PostalCode: "97211", Country: "US",
		}, 0.6, 3)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "address_trigram", matches[0].MatchType)
		assert.GreaterOrEqual(t, matches[0].Similarity, 0.6)
	})

	t.Run("results capped at limit", func(t *testing.T) {
		reset(t)
		for _, id := range []string{"ord-1", "ord-2", "ord-3", "ord-4", "ord-5"} {
			seedOrder(t, store, id, "dup@example.com", "Jane Smith", "1 Main St", "Portland", "97210", "US")
		}

		matches, err := store.MatchCustomers(ctx, "dup@example.com", "Jane Smith", 0.3, 3)
		require.NoError(t, err)
		assert.Len(t, matches, 3)
	})

	t.Run("insert is idempotent", func(t *testing.T) {
		reset(t)
		seedOrder(t, store, "ord-1", "a@example.com", "Jane Smith", "1 Main St", "Portland", "97210", "US")
		seedOrder(t, store, "ord-1", "changed@example.com", "Someone Else", "9 Elm St", "Salem", "97301", "US")

		exists, err := store.OrderExists(ctx, "ord-1")
		require.NoError(t, err)
		assert.True(t, exists)

		matches, err := store.MatchCustomers(ctx, "a@example.com", "Jane Smith", 0.3, 3)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "exact_email", matches[0].MatchType)
	})

	t.Run("unknown order does not exist", func(t *testing.T) {
		reset(t)
		exists, err := store.OrderExists(ctx, "ord-404")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}
