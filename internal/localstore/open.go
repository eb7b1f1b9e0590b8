package localstore

import (
	"context"
	"fmt"
	"strings"

	"gitlab.com/yelinaung/spennies-bot/internal/database"
	"gitlab.com/yelinaung/spennies-bot/internal/logger"
	"gitlab.com/yelinaung/spennies-bot/internal/repository"
)

// Kind identifies a store backend.
type Kind string

// Store backends.
const (
	KindPostgres Kind = "postgres"
	KindSQLite   Kind = "sqlite"
	KindMemory   Kind = "memory"
)

// ParseURL maps a store URL onto its backend and backend-specific location.
func ParseURL(url string) (Kind, string) {
	url = strings.TrimSpace(url)
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return KindPostgres, url
	case url == "memory://" || url == "memory":
		return KindMemory, ""
	case strings.HasPrefix(url, "sqlite://"):
		return KindSQLite, strings.TrimPrefix(url, "sqlite://")
	case strings.HasPrefix(url, "file:"):
		return KindSQLite, strings.TrimPrefix(url, "file:")
	}
	return KindSQLite, url
}

// Open selects and initializes the store backend for url once at startup.
func Open(ctx context.Context, url string) (Store, error) {
	kind, location := ParseURL(url)

	switch kind {
	case KindPostgres:
		pool, err := database.Connect(ctx, location)
		if err != nil {
			return nil, fmt.Errorf("failed to connect local store: %w", err)
		}
		if err := database.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to migrate local store: %w", err)
		}
		logger.Log.Info().Str("backend", string(kind)).Msg("Local store ready")
		return NewPostgres(repository.NewBucketRepository(pool), pool), nil

	case KindMemory:
		logger.Log.Warn().Msg("Using in-memory local store; data is lost on restart")
		return NewMemory(), nil

	default:
		if location == "" {
			return nil, fmt.Errorf("sqlite store path is empty")
		}
		store, err := NewSQLite(ctx, location)
		if err != nil {
			return nil, err
		}
		logger.Log.Info().Str("backend", string(kind)).Str("path", location).Msg("Local store ready")
		return store, nil
	}
}
