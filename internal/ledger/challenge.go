package ledger

import (
	"context"

	"gitlab.com/yelinaung/spennies-bot/internal/localstore"
	"gitlab.com/yelinaung/spennies-bot/internal/logger"
	"gitlab.com/yelinaung/spennies-bot/internal/models"
	"gitlab.com/yelinaung/spennies-bot/internal/records"
)

// DailyChallenge is today's challenge for one user.
type DailyChallenge struct {
	Challenge models.Challenge
	Completed bool
}

// TodayChallenge returns the challenge cached for userKey today, fetching
// one when none is cached. Completed challenges are not refetched.
func (f *Facade) TodayChallenge(ctx context.Context, userKey string) DailyChallenge {
	now := f.now()
	if f.challengeDone(ctx, userKey) {
		c, _ := localstore.Load[models.Challenge](ctx, f.store, f.scope, localstore.CurrentChallenge(userKey))
		return DailyChallenge{Challenge: c, Completed: true}
	}

	day, ok := localstore.Load[string](ctx, f.store, f.scope, localstore.CurrentChallengeDate(userKey))
	if ok && day == now.Format(records.DateLayout) {
		if c, ok := localstore.Load[models.Challenge](ctx, f.store, f.scope, localstore.CurrentChallenge(userKey)); ok && c.Title != "" {
			return DailyChallenge{Challenge: c}
		}
	}

	return DailyChallenge{Challenge: f.NewChallenge(ctx, userKey)}
}

// NewChallenge fetches a fresh challenge and caches it for today. Failures
// cache the fallback challenge instead.
func (f *Facade) NewChallenge(ctx context.Context, userKey string) models.Challenge {
	c, err := f.tier.Challenge(ctx)
	if err != nil {
		f.degrade("challenge", err)
		c = models.FallbackChallenge
	}

	if err := localstore.Save(ctx, f.store, f.scope, localstore.CurrentChallenge(userKey), c); err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to cache challenge")
	}
	if err := localstore.Save(ctx, f.store, f.scope, localstore.CurrentChallengeDate(userKey), f.now().Format(records.DateLayout)); err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to cache challenge date")
	}
	return c
}

// CompleteChallenge sets today's completion flag for userKey.
func (f *Facade) CompleteChallenge(ctx context.Context, userKey string) error {
	return localstore.Save(ctx, f.store, f.scope, localstore.ChallengeDone(userKey, f.now()), true)
}

func (f *Facade) challengeDone(ctx context.Context, userKey string) bool {
	done, _ := localstore.Load[bool](ctx, f.store, f.scope, localstore.ChallengeDone(userKey, f.now()))
	return done
}
