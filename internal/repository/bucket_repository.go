package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"gitlab.com/yelinaung/spennies-bot/internal/database"
)

// BucketRepository persists opaque JSON values keyed by scope and bucket.
type BucketRepository struct {
	db database.PGXDB
}

// NewBucketRepository creates a new BucketRepository.
func NewBucketRepository(db database.PGXDB) *BucketRepository {
	return &BucketRepository{db: db}
}

// Get returns the stored value. ok is false when nothing is stored.
func (r *BucketRepository) Get(ctx context.Context, scope, bucket string) (value string, ok bool, err error) {
	err = r.db.QueryRow(ctx, `
		SELECT value FROM local_store WHERE scope = $1 AND bucket = $2
	`, scope, bucket).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get bucket %s: %w", bucket, err)
	}
	return value, true, nil
}

// Put stores a value, replacing any previous one.
func (r *BucketRepository) Put(ctx context.Context, scope, bucket, value string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO local_store (scope, bucket, value, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (scope, bucket) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = NOW()
	`, scope, bucket, value)
	if err != nil {
		return fmt.Errorf("failed to put bucket %s: %w", bucket, err)
	}
	return nil
}

// Delete removes a single bucket. Deleting a missing bucket is not an error.
func (r *BucketRepository) Delete(ctx context.Context, scope, bucket string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM local_store WHERE scope = $1 AND bucket = $2`, scope, bucket)
	if err != nil {
		return fmt.Errorf("failed to delete bucket %s: %w", bucket, err)
	}
	return nil
}

// DeleteScope removes every bucket of a scope and reports how many were removed.
func (r *BucketRepository) DeleteScope(ctx context.Context, scope string) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM local_store WHERE scope = $1`, scope)
	if err != nil {
		return 0, fmt.Errorf("failed to delete scope: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Scopes lists every scope holding at least one bucket.
func (r *BucketRepository) Scopes(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT scope FROM local_store ORDER BY scope`)
	if err != nil {
		return nil, fmt.Errorf("failed to list scopes: %w", err)
	}
	scopes, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan scopes: %w", err)
	}
	return scopes, nil
}
