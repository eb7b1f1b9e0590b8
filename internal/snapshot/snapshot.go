// Package snapshot gathers the inputs every summary view derives from.
//
// Each call reads through the facade, so a signed-in user always sees the
// backend's current state. Nothing is cached or shared between callers:
// two views rendering after the same refresh fetch independently.
package snapshot

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"gitlab.com/yelinaung/spennies-bot/internal/ledger"
	"gitlab.com/yelinaung/spennies-bot/internal/models"
)

// Snapshot is everything the summary views derive from.
type Snapshot struct {
	User         *models.User
	Transactions []models.Transaction
	Loans        []models.Loan
	FetchedAt    time.Time
}

// Reader is the part of the facade a snapshot reads.
type Reader interface {
	User(ctx context.Context) *models.User
	AllTransactions(ctx context.Context) []models.Transaction
	Loans(ctx context.Context) []models.Loan
}

var _ Reader = (*ledger.Facade)(nil)

// Load reads the user, the merged transaction list and the loans
// concurrently and stamps the result with now. Facade reads degrade to
// defaults instead of failing, so Load has no error.
func Load(ctx context.Context, r Reader, now time.Time) Snapshot {
	snap := Snapshot{FetchedAt: now}
	var g errgroup.Group
	g.Go(func() error {
		snap.User = r.User(ctx)
		return nil
	})
	g.Go(func() error {
		snap.Transactions = r.AllTransactions(ctx)
		return nil
	})
	g.Go(func() error {
		snap.Loans = r.Loans(ctx)
		return nil
	})
	_ = g.Wait()
	return snap
}
