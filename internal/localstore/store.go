// Package localstore is the on-device fallback store: named JSON buckets per
// user scope, used as the only store while signed out and as a mirror of
// profile and loan writes while signed in.
package localstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gitlab.com/yelinaung/spennies-bot/internal/logger"
)

// Bucket names a value slot inside a scope.
type Bucket string

// Known buckets.
const (
	BucketUser                 Bucket = "user"
	BucketTransactions         Bucket = "transactions"
	BucketSMSTransactions      Bucket = "sms_transactions"
	BucketLoans                Bucket = "loans"
	BucketChatHistory          Bucket = "chat_history"
	BucketSession              Bucket = "session"
	BucketDashboard            Bucket = "dashboard_message"
	challengeDonePrefix               = "challenge_done_"
	currentChallengePrefix            = "current_challenge_"
	currentChallengeDatePrefix        = "current_challenge_date_"
)

// ChallengeDone is the per-user-per-day completion flag bucket.
func ChallengeDone(userKey string, day time.Time) Bucket {
	return Bucket(challengeDonePrefix + userKey + "_" + day.Format("2006-01-02"))
}

// CurrentChallenge holds the cached challenge for a user.
func CurrentChallenge(userKey string) Bucket {
	return Bucket(currentChallengePrefix + userKey)
}

// CurrentChallengeDate holds the day the cached challenge was fetched.
func CurrentChallengeDate(userKey string) Bucket {
	return Bucket(currentChallengeDatePrefix + userKey)
}

// Store is a key/value store of JSON text. No TTL, no size bound.
// Concurrent writers to the same bucket resolve as last write wins.
type Store interface {
	Get(ctx context.Context, scope string, bucket Bucket) (value string, ok bool, err error)
	Set(ctx context.Context, scope string, bucket Bucket, value string) error
	Remove(ctx context.Context, scope string, bucket Bucket) error
	// Clear removes every bucket of a scope.
	Clear(ctx context.Context, scope string) error
	// Scopes lists scopes that hold any data.
	Scopes(ctx context.Context) ([]string, error)
	Close() error
}

// Load reads and decodes a bucket. Missing buckets, read errors and corrupt
// JSON all report ok=false; corrupt values are discarded silently.
func Load[T any](ctx context.Context, s Store, scope string, bucket Bucket) (v T, ok bool) {
	raw, found, err := s.Get(ctx, scope, bucket)
	if err != nil {
		logger.Log.Warn().Err(err).Str("bucket", string(bucket)).Msg("Local store read failed")
		return v, false
	}
	if !found {
		return v, false
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		logger.Log.Debug().Err(err).Str("bucket", string(bucket)).Msg("Discarding corrupt local value")
		var zero T
		return zero, false
	}
	return v, true
}

// Save encodes v and overwrites the bucket.
func Save[T any](ctx context.Context, s Store, scope string, bucket Bucket, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", bucket, err)
	}
	return s.Set(ctx, scope, bucket, string(data))
}
