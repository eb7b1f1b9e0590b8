package database

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConnect(t *testing.T) {
	t.Parallel()

	t.Run("rejects a malformed URL", func(t *testing.T) {
		t.Parallel()
		pool, err := Connect(context.Background(), "invalid://connection")
		require.Error(t, err)
		require.Nil(t, pool)
	})

	t.Run("fails to ping an unreachable host", func(t *testing.T) {
		t.Parallel()
		pool, err := Connect(context.Background(), "postgres://localhost:59999/nonexistent?connect_timeout=1")
		require.Error(t, err)
		require.ErrorContains(t, err, "unable to")
		require.Nil(t, pool)
	})
}

func TestTestPoolIsShared(t *testing.T) {
	if os.Getenv("TEST_DATABASE_URL") == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	require.Same(t, TestPool(t), TestPool(t))
}
