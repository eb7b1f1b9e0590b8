// Package ledger is the data access facade. Each session picks one Tier,
// remote when a user is signed in and local otherwise, and every read and
// write for that session goes through it.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/spennies-bot/internal/gateway"
	"gitlab.com/yelinaung/spennies-bot/internal/localstore"
	"gitlab.com/yelinaung/spennies-bot/internal/models"
)

// Sentinel errors.
var (
	ErrOffline  = errors.New("sign in to use this feature")
	ErrNotFound = errors.New("record not found")
)

// Fallback texts shown when the AI endpoints are unavailable.
const (
	ChatErrorReply   = "⚠️ Error connecting to AI."
	ChatOfflineReply = "Please login to use AI."
	DefaultTip       = "Track every expense to find savings!"
	OfflineTip       = "Log in to see insights."
	ChatHistoryLimit = 50
)

// SMSParser turns bank SMS text into a transaction candidate.
type SMSParser interface {
	ParseSMS(ctx context.Context, text string) (*models.SMSParseResult, error)
}

// Budget is the savings target plus per-category monthly estimates.
type Budget struct {
	Income        decimal.Decimal
	SavingsTarget decimal.Decimal
	Expenses      models.Estimates
}

// Tier is one storage strategy.
type Tier interface {
	Name() string
	Authenticated() bool

	User(ctx context.Context) (*models.User, error)
	SaveBudget(ctx context.Context, budget Budget) error
	UpdateProfile(ctx context.Context, user models.User) error

	Transactions(ctx context.Context) ([]models.Transaction, error)
	SMSTransactions(ctx context.Context) ([]models.Transaction, error)
	AddTransaction(ctx context.Context, tx models.Transaction) (models.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
	ParseSMS(ctx context.Context, text string) (*models.SMSParseResult, error)

	Loans(ctx context.Context) ([]models.Loan, error)
	AddLoan(ctx context.Context, loan models.Loan) (models.Loan, error)
	MarkLoanPaid(ctx context.Context, id string) error
	DeleteLoan(ctx context.Context, id string) error

	Chat(ctx context.Context, message, language string) (models.ChatReply, error)
	Insights(ctx context.Context) (models.Insights, error)
	Challenge(ctx context.Context) (models.Challenge, error)

	// ClearAll removes every stored record of the user.
	ClearAll(ctx context.Context) error
}

// Deps is what Select needs to build either tier.
type Deps struct {
	API    *gateway.Client
	Store  localstore.Store
	Scope  string
	Parser SMSParser
	Now    func() time.Time
	NewID  func() string
}

func (d Deps) withDefaults() Deps {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	return d
}

// Select picks the tier once for a session.
func Select(authenticated bool, deps Deps) Tier {
	deps = deps.withDefaults()
	if authenticated && deps.API != nil {
		return NewRemote(deps)
	}
	return NewLocal(deps)
}

// today is now's calendar date as a UTC wall date, the form dates take on the wire.
func today(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
