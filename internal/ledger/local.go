package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gitlab.com/yelinaung/spennies-bot/internal/localstore"
	"gitlab.com/yelinaung/spennies-bot/internal/logger"
	"gitlab.com/yelinaung/spennies-bot/internal/models"
)

// Local keeps everything in the local store. It serves signed-out users.
type Local struct {
	book   book
	parser SMSParser
	now    func() time.Time
	newID  func() string
}

var _ Tier = (*Local)(nil)

// NewLocal creates the signed-out tier.
func NewLocal(deps Deps) *Local {
	deps = deps.withDefaults()
	return &Local{
		book:   book{store: deps.Store, scope: deps.Scope},
		parser: deps.Parser,
		now:    deps.Now,
		newID:  deps.NewID,
	}
}

func (l *Local) Name() string        { return "local" }
func (l *Local) Authenticated() bool { return false }

func (l *Local) User(ctx context.Context) (*models.User, error) {
	u, ok := l.book.user(ctx)
	if !ok {
		return nil, nil
	}
	return u, nil
}

func (l *Local) SaveBudget(ctx context.Context, budget Budget) error {
	u, ok := l.book.user(ctx)
	if !ok {
		u = &models.User{}
	}
	u.AvgIncome = budget.Income
	u.SavingsTarget = budget.SavingsTarget
	u.Expenses = budget.Expenses
	return l.book.putUser(ctx, *u)
}

func (l *Local) UpdateProfile(ctx context.Context, update models.User) error {
	u, ok := l.book.user(ctx)
	if !ok {
		u = &models.User{}
	}
	mergeProfile(u, update)
	return l.book.putUser(ctx, *u)
}

// mergeProfile copies the non-empty descriptive fields of update onto u.
func mergeProfile(u *models.User, update models.User) {
	if update.Name != "" {
		u.Name = update.Name
	}
	if update.Email != "" {
		u.Email = update.Email
	}
	if update.JobType != "" {
		u.JobType = update.JobType
	}
	if update.Language != "" {
		u.Language = update.Language
	}
	if update.AITone != "" {
		u.AITone = update.AITone
	}
}

func (l *Local) Transactions(ctx context.Context) ([]models.Transaction, error) {
	return l.book.transactions(ctx, localstore.BucketTransactions), nil
}

func (l *Local) SMSTransactions(ctx context.Context) ([]models.Transaction, error) {
	return l.book.transactions(ctx, localstore.BucketSMSTransactions), nil
}

func (l *Local) stamp(tx models.Transaction) models.Transaction {
	now := l.now()
	if tx.ID == "" {
		tx.ID = l.newID()
	}
	if tx.Date.IsZero() {
		tx.Date = today(now)
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = now.UTC()
	}
	if tx.Source == "" {
		tx.Source = models.SourceManual
	}
	return tx
}

func (l *Local) AddTransaction(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	tx = l.stamp(tx)
	if err := l.book.appendTransaction(ctx, localstore.BucketTransactions, tx); err != nil {
		return models.Transaction{}, err
	}
	return tx, nil
}

func (l *Local) DeleteTransaction(ctx context.Context, id string) error {
	found := false
	for _, bucket := range []localstore.Bucket{localstore.BucketTransactions, localstore.BucketSMSTransactions} {
		removed, err := l.book.removeTransaction(ctx, bucket, id)
		if err != nil {
			return err
		}
		found = found || removed
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

// ParseSMS parses offline when a parser is configured and stores a
// confident result in the SMS bucket.
func (l *Local) ParseSMS(ctx context.Context, text string) (*models.SMSParseResult, error) {
	if l.parser == nil {
		return nil, ErrOffline
	}

	result, err := l.parser.ParseSMS(ctx, strings.TrimSpace(text))
	if err != nil {
		return nil, fmt.Errorf("failed to parse sms: %w", err)
	}

	if result.Recordable() {
		tx := l.stamp(result.Transaction(today(l.now())))
		if err := l.book.appendTransaction(ctx, localstore.BucketSMSTransactions, tx); err != nil {
			return nil, err
		}
		logger.Log.Debug().Str("amount", tx.Amount.String()).Msg("Stored offline SMS transaction")
	}
	return result, nil
}

func (l *Local) Loans(ctx context.Context) ([]models.Loan, error) {
	return l.book.loans(ctx), nil
}

func (l *Local) AddLoan(ctx context.Context, loan models.Loan) (models.Loan, error) {
	now := l.now()
	if loan.ID == "" {
		loan.ID = l.newID()
	}
	if loan.DateTaken.IsZero() {
		loan.DateTaken = today(now)
	}
	if loan.CreatedAt.IsZero() {
		loan.CreatedAt = now.UTC()
	}
	if err := l.book.appendLoan(ctx, loan); err != nil {
		return models.Loan{}, err
	}
	return loan, nil
}

func (l *Local) MarkLoanPaid(ctx context.Context, id string) error {
	paidOn := today(l.now())
	found, err := l.book.updateLoan(ctx, id, func(loan *models.Loan) {
		loan.IsPaid = true
		loan.PaidDate = paidOn
	})
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

func (l *Local) DeleteLoan(ctx context.Context, id string) error {
	found, err := l.book.removeLoan(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

func (l *Local) Chat(context.Context, string, string) (models.ChatReply, error) {
	return models.ChatReply{Response: ChatOfflineReply}, nil
}

func (l *Local) Insights(context.Context) (models.Insights, error) {
	return models.Insights{Tip: OfflineTip}, nil
}

func (l *Local) Challenge(context.Context) (models.Challenge, error) {
	return models.FallbackChallenge, nil
}

// ClearAll is a no-op here; the facade wipes the local scope for both tiers.
func (l *Local) ClearAll(context.Context) error {
	return nil
}
