package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunMigrations(t *testing.T) {
	pool := TestDB(t)
	ctx := context.Background()

	require.NoError(t, RunMigrations(ctx, pool))
	require.NoError(t, RunMigrations(ctx, pool), "migrations are idempotent")

	var exists bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_name = 'local_store'
		)
	`).Scan(&exists)
	require.NoError(t, err)
	require.True(t, exists)
}

func TestLocalStorePrimaryKey(t *testing.T) {
	db := TestTx(t)

	require.NoError(t, SeedBucket(t, db, "s", "user", "{}"))
	require.Error(t, SeedBucket(t, db, "s", "user", "[]"), "scope and bucket identify a single value")
}
