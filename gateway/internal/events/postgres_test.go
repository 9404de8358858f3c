package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/lotuspetal/lotuspetal-api/common/database"
)

// setupTestDatabase starts a PostgreSQL container and applies the gateway
// migrations with golang-migrate.
func setupTestDatabase(t *testing.T) *PostgresStore {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping PostgreSQL integration test in short mode")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("lotuspetal_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	result, err := database.Migrate("file://../../migrations", connStr)
	require.NoError(t, err)
	assert.Equal(t, uint(1), result.Version)
	assert.True(t, result.Changed)

	again, err := database.Migrate("file://../../migrations", connStr)
	require.NoError(t, err)
	assert.False(t, again.Changed, "second run has nothing to apply")

	store, err := NewPostgresStore(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(store.Close)

	return store
}

func TestPostgresStore(t *testing.T) {
	store := setupTestDatabase(t)
	ctx := context.Background()

	require.NoError(t, store.Ping(ctx))

	t.Run("upsert and list", func(t *testing.T) {
		acme := Fake("acme", 4, 11)
		n, err := store.Upsert(ctx, append(acme, Fake("globex", 2, 12)...))
		require.NoError(t, err)
		assert.Equal(t, 6, n)

		list, err := store.List(ctx, "acme")
		require.NoError(t, err)
		require.Len(t, list, 4)
		for i := 1; i < len(list); i++ {
			assert.Less(t, list[i-1].ID, list[i].ID)
		}
	})

	t.Run("update existing id", func(t *testing.T) {
		_, err := store.Upsert(ctx, []SourcingEvent{{ID: "ev-pg", TenantID: "acme", Title: strPtr("First"), Platform: "ariba"}})
		require.NoError(t, err)
		_, err = store.Upsert(ctx, []SourcingEvent{{ID: "ev-pg", TenantID: "initech", Title: strPtr("Second"), DueAt: strPtr("2026-03-01")}})
		require.NoError(t, err)

		ev, err := store.Get(ctx, "ev-pg")
		require.NoError(t, err)
		assert.Equal(t, "initech", ev.TenantID)
		assert.Equal(t, "Second", *ev.Title)
		assert.Equal(t, "2026-03-01", *ev.DueAt)
		assert.Nil(t, ev.Status)
		assert.Equal(t, "ariba", ev.Platform)
	})

	t.Run("idempotent", func(t *testing.T) {
		batch := Fake("umbrella", 3, 13)
		for i := 0; i < 2; i++ {
			_, err := store.Upsert(ctx, batch)
			require.NoError(t, err)
		}
		list, err := store.List(ctx, "umbrella")
		require.NoError(t, err)
		assert.Len(t, list, 3)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := store.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("invalid batch writes nothing", func(t *testing.T) {
		_, err := store.Upsert(ctx, []SourcingEvent{{ID: "ev-ok", TenantID: "acme"}, {ID: "ev-bad"}})
		assert.ErrorIs(t, err, ErrInvalidEvent)

		_, err = store.Get(ctx, "ev-ok")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
