package localstore

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"gitlab.com/yelinaung/spennies-bot/internal/repository"
)

// Postgres is a Store backed by the local_store table.
type Postgres struct {
	repo *repository.BucketRepository
	pool *pgxpool.Pool
}

var _ Store = (*Postgres)(nil)

// NewPostgres wraps a bucket repository. pool may be nil when the caller owns it.
func NewPostgres(repo *repository.BucketRepository, pool *pgxpool.Pool) *Postgres {
	return &Postgres{repo: repo, pool: pool}
}

func (p *Postgres) Get(ctx context.Context, scope string, bucket Bucket) (string, bool, error) {
	return p.repo.Get(ctx, scope, string(bucket))
}

func (p *Postgres) Set(ctx context.Context, scope string, bucket Bucket, value string) error {
	return p.repo.Put(ctx, scope, string(bucket), value)
}

func (p *Postgres) Remove(ctx context.Context, scope string, bucket Bucket) error {
	return p.repo.Delete(ctx, scope, string(bucket))
}

func (p *Postgres) Clear(ctx context.Context, scope string) error {
	_, err := p.repo.DeleteScope(ctx, scope)
	return err
}

func (p *Postgres) Scopes(ctx context.Context) ([]string, error) {
	return p.repo.Scopes(ctx)
}

func (p *Postgres) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}
