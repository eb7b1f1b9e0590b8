package localstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLite is a Store in a single on-disk database file.
type SQLite struct {
	db *sql.DB
}

var _ Store = (*SQLite)(nil)

// NewSQLite opens (creating if needed) the database file and migrates it.
func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite store: %w", err)
	}
	// A single connection serializes writers and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite store: %w", err)
	}

	if err := runSQLiteMigrations(path); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func runSQLiteMigrations(path string) error {
	migrateDB, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open migration database: %w", err)
	}
	defer func() { _ = migrateDB.Close() }()

	driver, err := migratesqlite.WithInstance(migrateDB, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, scope string, bucket Bucket) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM local_store WHERE scope = ? AND bucket = ?`,
		scope, string(bucket),
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get bucket %s: %w", bucket, err)
	}
	return value, true, nil
}

func (s *SQLite) Set(ctx context.Context, scope string, bucket Bucket, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO local_store (scope, bucket, value, created_at, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (scope, bucket) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`, scope, string(bucket), value)
	if err != nil {
		return fmt.Errorf("failed to set bucket %s: %w", bucket, err)
	}
	return nil
}

func (s *SQLite) Remove(ctx context.Context, scope string, bucket Bucket) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM local_store WHERE scope = ? AND bucket = ?`, scope, string(bucket))
	if err != nil {
		return fmt.Errorf("failed to remove bucket %s: %w", bucket, err)
	}
	return nil
}

func (s *SQLite) Clear(ctx context.Context, scope string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM local_store WHERE scope = ?`, scope); err != nil {
		return fmt.Errorf("failed to clear scope: %w", err)
	}
	return nil
}

func (s *SQLite) Scopes(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT scope FROM local_store ORDER BY scope`)
	if err != nil {
		return nil, fmt.Errorf("failed to list scopes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var scopes []string
	for rows.Next() {
		var scope string
		if err := rows.Scan(&scope); err != nil {
			return nil, fmt.Errorf("failed to scan scope: %w", err)
		}
		scopes = append(scopes, scope)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scopes: %w", err)
	}
	return scopes, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
