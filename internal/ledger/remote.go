package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"gitlab.com/yelinaung/spennies-bot/internal/gateway"
	"gitlab.com/yelinaung/spennies-bot/internal/logger"
	"gitlab.com/yelinaung/spennies-bot/internal/models"
	"gitlab.com/yelinaung/spennies-bot/internal/records"
)

// Remote reads and writes through the backend. Profile and loan writes are
// mirrored into the local store after they succeed; transactions are not.
type Remote struct {
	api    *gateway.Client
	mirror book
	now    func() time.Time
}

var _ Tier = (*Remote)(nil)

// NewRemote creates the signed-in tier.
func NewRemote(deps Deps) *Remote {
	deps = deps.withDefaults()
	return &Remote{
		api:    deps.API,
		mirror: book{store: deps.Store, scope: deps.Scope},
		now:    deps.Now,
	}
}

func (r *Remote) Name() string        { return "remote" }
func (r *Remote) Authenticated() bool { return true }

// Register creates the backend profile for a freshly signed-up identity.
func (r *Remote) Register(ctx context.Context, reg models.Registration, uid string) (*models.User, error) {
	data, err := r.api.Post(ctx, "/api/auth/register", records.EncodeRegistration(reg, uid))
	if err != nil {
		return nil, fmt.Errorf("failed to register profile: %w", err)
	}
	raw, err := records.DecodeObject(data)
	if err != nil {
		return nil, err
	}
	u := records.DecodeUser(raw)
	u.Expenses = reg.Profile.Expenses
	r.mirrorUser(ctx, u)
	return &u, nil
}

// User fetches the profile and the estimates together. When the backend is
// unreachable the mirrored profile is returned instead.
func (r *Remote) User(ctx context.Context) (*models.User, error) {
	var profile, estimates []byte

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profile, err = r.api.Get(gctx, "/api/auth/me")
		return err
	})
	g.Go(func() error {
		var err error
		estimates, err = r.api.Get(gctx, "/api/estimates/")
		return err
	})

	if err := g.Wait(); err != nil {
		if u, ok := r.mirror.user(ctx); ok {
			logger.Log.Warn().Err(err).Msg("Backend profile fetch failed, using mirrored profile")
			return u, nil
		}
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}

	raw, err := records.DecodeObject(profile)
	if err != nil {
		return nil, err
	}
	list, err := records.DecodeList(estimates)
	if err != nil {
		return nil, err
	}

	u := records.DecodeUser(raw)
	u.Expenses = records.DecodeEstimates(list)
	return &u, nil
}

// SaveBudget updates the savings target and income, then posts the four
// category estimates for the current month concurrently.
func (r *Remote) SaveBudget(ctx context.Context, budget Budget) error {
	_, err := r.api.Put(ctx, "/api/users/me", records.Raw{
		"savings_target": json.Number(budget.SavingsTarget.String()),
		"avg_income":     json.Number(budget.Income.String()),
	})
	if err != nil {
		return fmt.Errorf("failed to update savings target: %w", err)
	}

	now := r.now()
	g, gctx := errgroup.WithContext(ctx)
	for _, category := range models.EstimateCategories {
		payload := records.Raw{
			"category":         category,
			"estimated_amount": json.Number(budget.Expenses.Get(category).String()),
			"month":            int(now.Month()),
			"year":             now.Year(),
		}
		g.Go(func() error {
			_, err := r.api.Post(gctx, "/api/estimates/", payload)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to save estimates: %w", err)
	}

	u, ok := r.mirror.user(ctx)
	if !ok {
		u = &models.User{}
	}
	u.AvgIncome = budget.Income
	u.SavingsTarget = budget.SavingsTarget
	u.Expenses = budget.Expenses
	r.mirrorUser(ctx, *u)
	return nil
}

func (r *Remote) UpdateProfile(ctx context.Context, update models.User) error {
	payload := records.Raw{}
	if update.Name != "" {
		payload["name"] = update.Name
	}
	if update.JobType != "" {
		payload["job_type"] = update.JobType
	}
	if update.Language != "" {
		payload["language"] = update.Language
	}
	if update.AITone != "" {
		payload["ai_tone"] = update.AITone
	}

	data, err := r.api.Put(ctx, "/api/users/me", payload)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	u, ok := r.mirror.user(ctx)
	if !ok {
		u = &models.User{}
	}
	if raw, err := records.DecodeObject(data); err == nil && raw != nil {
		fresh := records.DecodeUser(raw)
		fresh.Expenses = u.Expenses
		u = &fresh
	} else {
		mergeProfile(u, update)
	}
	r.mirrorUser(ctx, *u)
	return nil
}

// mirrorUser is best effort: a failed local write never fails the remote one.
func (r *Remote) mirrorUser(ctx context.Context, u models.User) {
	if err := r.mirror.putUser(ctx, u); err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to mirror profile locally")
	}
}

func (r *Remote) Transactions(ctx context.Context) ([]models.Transaction, error) {
	data, err := r.api.Get(ctx, "/api/transactions/")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transactions: %w", err)
	}
	list, err := records.DecodeList(data)
	if err != nil {
		return nil, err
	}
	return records.DecodeTransactions(list), nil
}

// SMSTransactions are the SMS-sourced rows of the backend transaction list.
func (r *Remote) SMSTransactions(ctx context.Context) ([]models.Transaction, error) {
	txs, err := r.Transactions(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Transaction
	for _, tx := range txs {
		if tx.IsSMS() {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (r *Remote) AddTransaction(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	if tx.Date.IsZero() {
		tx.Date = today(r.now())
	}
	if tx.Source == "" {
		tx.Source = models.SourceManual
	}
	payload := records.EncodeTransaction(tx)
	delete(payload, "id")
	delete(payload, "created_at")

	data, err := r.api.Post(ctx, "/api/transactions/", payload)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("failed to add transaction: %w", err)
	}
	raw, err := records.DecodeObject(data)
	if err != nil || raw == nil {
		return tx, nil
	}
	return records.DecodeTransaction(raw), nil
}

func (r *Remote) DeleteTransaction(ctx context.Context, id string) error {
	if _, err := r.api.Delete(ctx, "/api/transactions/"+url.PathEscape(id)); err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return nil
}

// ParseSMS sends the text to the backend parser, which records confident
// results itself.
func (r *Remote) ParseSMS(ctx context.Context, text string) (*models.SMSParseResult, error) {
	data, err := r.api.Post(ctx, "/api/ai/parse-sms", records.Raw{"sms_text": strings.TrimSpace(text)})
	if err != nil {
		return nil, fmt.Errorf("failed to parse sms: %w", err)
	}
	raw, err := records.DecodeObject(data)
	if err != nil {
		return nil, err
	}
	return records.DecodeSMSResult(raw), nil
}

func (r *Remote) Loans(ctx context.Context) ([]models.Loan, error) {
	// The timestamp defeats intermediary caches.
	data, err := r.api.Get(ctx, fmt.Sprintf("/api/loans/?_t=%d", r.now().UnixMilli()))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch loans: %w", err)
	}
	list, err := records.DecodeList(data)
	if err != nil {
		return nil, err
	}
	return records.DecodeLoans(list), nil
}

func (r *Remote) AddLoan(ctx context.Context, loan models.Loan) (models.Loan, error) {
	if loan.DateTaken.IsZero() {
		loan.DateTaken = today(r.now())
	}
	payload := records.EncodeLoan(loan)
	delete(payload, "id")

	data, err := r.api.Post(ctx, "/api/loans/", payload)
	if err != nil {
		return models.Loan{}, fmt.Errorf("failed to add loan: %w", err)
	}
	if raw, err := records.DecodeObject(data); err == nil && raw != nil {
		loan = records.DecodeLoan(raw)
	}

	if err := r.mirror.appendLoan(ctx, loan); err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to mirror loan locally")
	}
	return loan, nil
}

func (r *Remote) MarkLoanPaid(ctx context.Context, id string) error {
	if _, err := r.api.Put(ctx, "/api/loans/"+url.PathEscape(id)+"/paid", nil); err != nil {
		return fmt.Errorf("failed to mark loan paid: %w", err)
	}
	paidOn := today(r.now())
	if _, err := r.mirror.updateLoan(ctx, id, func(l *models.Loan) {
		l.IsPaid = true
		l.PaidDate = paidOn
	}); err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to mirror loan locally")
	}
	return nil
}

func (r *Remote) DeleteLoan(ctx context.Context, id string) error {
	if _, err := r.api.Delete(ctx, "/api/loans/"+url.PathEscape(id)); err != nil {
		return fmt.Errorf("failed to delete loan: %w", err)
	}
	if _, err := r.mirror.removeLoan(ctx, id); err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to mirror loan locally")
	}
	return nil
}

func (r *Remote) Chat(ctx context.Context, message, language string) (models.ChatReply, error) {
	if language == "" {
		language = "en"
	}
	data, err := r.api.Post(ctx, "/api/ai/chat", records.Raw{"message": message, "language": language})
	if err != nil {
		return models.ChatReply{}, fmt.Errorf("failed to chat: %w", err)
	}
	raw, err := records.DecodeObject(data)
	if err != nil {
		return models.ChatReply{}, err
	}
	return records.DecodeChatReply(raw), nil
}

func (r *Remote) Insights(ctx context.Context) (models.Insights, error) {
	data, err := r.api.Get(ctx, "/api/ai/insights")
	if err != nil {
		return models.Insights{}, fmt.Errorf("failed to fetch insights: %w", err)
	}
	v, err := records.DecodeValue(data)
	if err != nil {
		return models.Insights{}, err
	}
	return records.DecodeInsights(v, DefaultTip), nil
}

func (r *Remote) Challenge(ctx context.Context) (models.Challenge, error) {
	data, err := r.api.Get(ctx, "/api/ai/challenge?refresh=true")
	if err != nil {
		return models.Challenge{}, fmt.Errorf("failed to fetch challenge: %w", err)
	}
	raw, err := records.DecodeObject(data)
	if err != nil {
		return models.Challenge{}, err
	}
	c, ok := records.DecodeChallenge(raw)
	if !ok {
		return models.Challenge{}, fmt.Errorf("challenge response has no title")
	}
	return c, nil
}

func (r *Remote) ClearAll(ctx context.Context) error {
	if _, err := r.api.Delete(ctx, "/api/users/me/data"); err != nil {
		return fmt.Errorf("failed to clear data: %w", err)
	}
	return nil
}
