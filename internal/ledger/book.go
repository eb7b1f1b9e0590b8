package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"gitlab.com/yelinaung/spennies-bot/internal/localstore"
	"gitlab.com/yelinaung/spennies-bot/internal/logger"
	"gitlab.com/yelinaung/spennies-bot/internal/models"
	"gitlab.com/yelinaung/spennies-bot/internal/records"
)

// book reads and rewrites the JSON record lists kept in the local store.
// Every write replaces the whole bucket.
type book struct {
	store localstore.Store
	scope string
}

func (b book) list(ctx context.Context, bucket localstore.Bucket) []records.Raw {
	raw, ok, err := b.store.Get(ctx, b.scope, bucket)
	if err != nil {
		logger.Log.Warn().Err(err).Str("bucket", string(bucket)).Msg("Local store read failed")
		return nil
	}
	if !ok {
		return nil
	}
	list, err := records.DecodeList([]byte(raw))
	if err != nil {
		logger.Log.Debug().Err(err).Str("bucket", string(bucket)).Msg("Discarding corrupt local list")
		return nil
	}
	return list
}

func (b book) object(ctx context.Context, bucket localstore.Bucket) (records.Raw, bool) {
	raw, ok, err := b.store.Get(ctx, b.scope, bucket)
	if err != nil || !ok {
		return nil, false
	}
	obj, err := records.DecodeObject([]byte(raw))
	if err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

func (b book) put(ctx context.Context, bucket localstore.Bucket, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", bucket, err)
	}
	return b.store.Set(ctx, b.scope, bucket, string(data))
}

func (b book) user(ctx context.Context) (*models.User, bool) {
	raw, ok := b.object(ctx, localstore.BucketUser)
	if !ok {
		return nil, false
	}
	u := records.DecodeUser(raw)
	return &u, true
}

func (b book) putUser(ctx context.Context, u models.User) error {
	return b.put(ctx, localstore.BucketUser, records.EncodeUser(u))
}

func (b book) transactions(ctx context.Context, bucket localstore.Bucket) []models.Transaction {
	return records.DecodeTransactions(b.list(ctx, bucket))
}

func (b book) appendTransaction(ctx context.Context, bucket localstore.Bucket, tx models.Transaction) error {
	txs := b.transactions(ctx, bucket)
	txs = append(txs, tx)
	return b.put(ctx, bucket, records.EncodeTransactions(txs))
}

// removeTransaction drops id from the bucket and reports whether it was there.
func (b book) removeTransaction(ctx context.Context, bucket localstore.Bucket, id string) (bool, error) {
	txs := b.transactions(ctx, bucket)
	kept := txs[:0]
	for _, tx := range txs {
		if tx.ID != id {
			kept = append(kept, tx)
		}
	}
	if len(kept) == len(txs) {
		return false, nil
	}
	return true, b.put(ctx, bucket, records.EncodeTransactions(kept))
}

func (b book) loans(ctx context.Context) []models.Loan {
	return records.DecodeLoans(b.list(ctx, localstore.BucketLoans))
}

func (b book) putLoans(ctx context.Context, loans []models.Loan) error {
	return b.put(ctx, localstore.BucketLoans, records.EncodeLoans(loans))
}

func (b book) appendLoan(ctx context.Context, loan models.Loan) error {
	return b.putLoans(ctx, append(b.loans(ctx), loan))
}

// updateLoan applies fn to the loan with id and reports whether it existed.
func (b book) updateLoan(ctx context.Context, id string, fn func(*models.Loan)) (bool, error) {
	loans := b.loans(ctx)
	found := false
	for i := range loans {
		if loans[i].ID == id {
			fn(&loans[i])
			found = true
		}
	}
	if !found {
		return false, nil
	}
	return true, b.putLoans(ctx, loans)
}

func (b book) removeLoan(ctx context.Context, id string) (bool, error) {
	loans := b.loans(ctx)
	kept := loans[:0]
	for _, l := range loans {
		if l.ID != id {
			kept = append(kept, l)
		}
	}
	if len(kept) == len(loans) {
		return false, nil
	}
	return true, b.putLoans(ctx, kept)
}
