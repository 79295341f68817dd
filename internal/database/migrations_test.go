package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunMigrations_Idempotent(t *testing.T) {
	pool := TestDB(t)
	ctx := context.Background()

	// Running the sequence twice must not error: every applied version is
	// recorded and skipped on the second pass.
	require.NoError(t, RunMigrations(ctx, pool))
	require.NoError(t, RunMigrations(ctx, pool))

	var count int
	err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, len(migrations), count)
}

func TestMigrations_SchemaShape(t *testing.T) {
	pool := TestDB(t)
	ctx := context.Background()
	require.NoError(t, RunMigrations(ctx, pool))

	for _, table := range []string{"users", "user_sessions", "password_reset_tokens", "user_preferences", "expenses", "categories", "monthly_budgets"} {
		var exists bool
		err := pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)`,
			table,
		).Scan(&exists)
		require.NoError(t, err)
		require.True(t, exists, "table %s should exist", table)
	}

	// Row level security must be forced everywhere a scoped query could
	// otherwise reach, not just on expenses.
	for _, table := range []string{"expenses", "users", "user_sessions", "password_reset_tokens", "user_preferences", "monthly_budgets"} {
		var forced bool
		err := pool.QueryRow(ctx,
			`SELECT relforcerowsecurity FROM pg_class WHERE relname = $1`,
			table,
		).Scan(&forced)
		require.NoError(t, err)
		require.True(t, forced, "row level security should be forced on %s", table)
	}
}

func TestSeedCategories(t *testing.T) {
	pool := TestDB(t)
	ctx := context.Background()
	require.NoError(t, RunMigrations(ctx, pool))
	require.NoError(t, SeedCategories(ctx, pool))
	// Seeding again must not duplicate.
	require.NoError(t, SeedCategories(ctx, pool))

	var count int
	err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM categories`).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, len(defaultCategories), count)
}
