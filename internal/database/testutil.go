package database

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TestDB opens a dedicated pool for tests that need their own connection,
// such as schema checks. It is not migrated. Skips without TEST_DATABASE_URL.
func TestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	pool, err := Connect(context.Background(), dbURL)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	return pool
}

// SeedBucket writes a raw value straight into local_store, bypassing any
// JSON encoding, so tests can plant corrupt or legacy values.
func SeedBucket(t *testing.T, db PGXDB, scope, bucket, value string) error {
	t.Helper()

	_, err := db.Exec(context.Background(),
		`INSERT INTO local_store (scope, bucket, value) VALUES ($1, $2, $3)`,
		scope, bucket, value)
	return err
}
