package ledger

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/spennies-bot/internal/localstore"
	"gitlab.com/yelinaung/spennies-bot/internal/logger"
	"gitlab.com/yelinaung/spennies-bot/internal/models"
	"gitlab.com/yelinaung/spennies-bot/internal/summary"
)

// Facade wraps the session's tier. Reads never fail: errors are logged and
// turned into empty or default values. Writes return their errors.
type Facade struct {
	tier  Tier
	store localstore.Store
	scope string
	now   func() time.Time
}

// NewFacade wraps tier. Chat history and challenge state always live in
// store under scope, whichever tier is selected.
func NewFacade(tier Tier, store localstore.Store, scope string, now func() time.Time) *Facade {
	if now == nil {
		now = time.Now
	}
	return &Facade{tier: tier, store: store, scope: scope, now: now}
}

// Tier returns the selected strategy.
func (f *Facade) Tier() Tier { return f.tier }

// Authenticated reports whether the remote tier is in use.
func (f *Facade) Authenticated() bool { return f.tier.Authenticated() }

func (f *Facade) degrade(op string, err error) {
	logger.Log.Warn().Err(err).Str("op", op).Str("tier", f.tier.Name()).Msg("Read failed, using default")
}

// User returns the profile, or nil.
func (f *Facade) User(ctx context.Context) *models.User {
	u, err := f.tier.User(ctx)
	if err != nil {
		f.degrade("user", err)
		return nil
	}
	return u
}

// Transactions returns the regular transaction list.
func (f *Facade) Transactions(ctx context.Context) []models.Transaction {
	txs, err := f.tier.Transactions(ctx)
	if err != nil {
		f.degrade("transactions", err)
		return nil
	}
	return txs
}

// SMSTransactions returns the SMS-derived transactions.
func (f *Facade) SMSTransactions(ctx context.Context) []models.Transaction {
	txs, err := f.tier.SMSTransactions(ctx)
	if err != nil {
		f.degrade("sms_transactions", err)
		return nil
	}
	return txs
}

// AllTransactions merges regular and SMS transactions, drops rows present
// in both lists and hides soft-deleted ones.
func (f *Facade) AllTransactions(ctx context.Context) []models.Transaction {
	rows := f.Transactions(ctx)
	// The backend list already contains its SMS rows.
	if !f.tier.Authenticated() {
		rows = slices.Concat(rows, f.SMSTransactions(ctx))
	}

	seen := make(map[string]struct{}, len(rows))
	merged := make([]models.Transaction, 0, len(rows))
	for _, tx := range rows {
		if tx.ID != "" {
			if _, dup := seen[tx.ID]; dup {
				continue
			}
			seen[tx.ID] = struct{}{}
		}
		merged = append(merged, tx)
	}
	return summary.Visible(merged)
}

// Loans returns every loan.
func (f *Facade) Loans(ctx context.Context) []models.Loan {
	loans, err := f.tier.Loans(ctx)
	if err != nil {
		f.degrade("loans", err)
		return nil
	}
	return loans
}

// SaveBudget validates and stores the budget.
func (f *Facade) SaveBudget(ctx context.Context, budget Budget) error {
	if err := models.ValidateBudget(budget.Income, budget.SavingsTarget, budget.Expenses); err != nil {
		return err
	}
	return f.tier.SaveBudget(ctx, budget)
}

// UpdateProfile validates the option fields and stores the profile changes.
func (f *Facade) UpdateProfile(ctx context.Context, update models.User) error {
	update.Language = strings.ToLower(strings.TrimSpace(update.Language))
	update.AITone = strings.ToLower(strings.TrimSpace(update.AITone))
	if err := models.ValidateProfileOptions(update); err != nil {
		return err
	}
	return f.tier.UpdateProfile(ctx, update)
}

// AddTransaction validates and stores one transaction.
func (f *Facade) AddTransaction(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	if !tx.Amount.IsPositive() {
		return models.Transaction{}, &models.ValidationError{Message: "Amount must be greater than zero."}
	}
	if !tx.IsIncome() && !tx.IsExpense() {
		return models.Transaction{}, &models.ValidationError{Message: "Type must be income or expense."}
	}
	tx.Type = models.TransactionType(strings.ToLower(string(tx.Type)))
	tx.Category = strings.TrimSpace(tx.Category)
	if tx.Category == "" {
		tx.Category = models.DefaultCategory
	}
	return f.tier.AddTransaction(ctx, tx)
}

// DeleteTransaction removes one transaction.
func (f *Facade) DeleteTransaction(ctx context.Context, id string) error {
	return f.tier.DeleteTransaction(ctx, id)
}

// ParseSMS parses bank SMS text; confident results are recorded.
func (f *Facade) ParseSMS(ctx context.Context, text string) (*models.SMSParseResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &models.ValidationError{Message: "Paste the SMS text after the command."}
	}
	return f.tier.ParseSMS(ctx, text)
}

// AddLoan validates and stores a loan.
func (f *Facade) AddLoan(ctx context.Context, loan models.Loan) (models.Loan, error) {
	loan.LenderName = strings.TrimSpace(loan.LenderName)
	if loan.LenderName == "" {
		return models.Loan{}, &models.ValidationError{Message: "Lender name is required."}
	}
	if !loan.Amount.IsPositive() {
		return models.Loan{}, &models.ValidationError{Message: "Loan amount must be greater than zero."}
	}
	if loan.InterestRate.IsNegative() {
		return models.Loan{}, &models.ValidationError{Message: "Interest rate cannot be negative."}
	}
	if loan.ReminderDays < 0 {
		return models.Loan{}, &models.ValidationError{Message: "Reminder days cannot be negative."}
	}
	return f.tier.AddLoan(ctx, loan)
}

// MarkLoanPaid flips the paid flag.
func (f *Facade) MarkLoanPaid(ctx context.Context, id string) error {
	return f.tier.MarkLoanPaid(ctx, id)
}

// DeleteLoan removes a loan.
func (f *Facade) DeleteLoan(ctx context.Context, id string) error {
	return f.tier.DeleteLoan(ctx, id)
}

// Insights returns the AI insights, or just the default tip.
func (f *Facade) Insights(ctx context.Context) models.Insights {
	in, err := f.tier.Insights(ctx)
	if err != nil {
		f.degrade("insights", err)
		return models.Insights{Tip: DefaultTip}
	}
	if in.Tip == "" {
		in.Tip = DefaultTip
	}
	return in
}

// ClearAll deletes the user's data from the tier and wipes the local scope.
// A persisted sign-in survives the wipe.
func (f *Facade) ClearAll(ctx context.Context) error {
	if err := f.tier.ClearAll(ctx); err != nil {
		return err
	}

	token, hasToken, err := f.store.Get(ctx, f.scope, localstore.BucketSession)
	if err != nil {
		hasToken = false
	}
	if err := f.store.Clear(ctx, f.scope); err != nil {
		return err
	}
	if hasToken {
		return f.store.Set(ctx, f.scope, localstore.BucketSession, token)
	}
	return nil
}

// Target returns the effective savings target of u.
func Target(u *models.User) decimal.Decimal {
	if u == nil {
		return summary.DefaultSavingsTarget
	}
	return summary.EffectiveTarget(u.SavingsTarget)
}
