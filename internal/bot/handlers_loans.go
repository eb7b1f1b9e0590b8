package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot/models"

	"gitlab.com/yelinaung/spennies-bot/internal/logger"
	appmodels "gitlab.com/yelinaung/spennies-bot/internal/models"
	"gitlab.com/yelinaung/spennies-bot/internal/summary"
)

func loanID(l appmodels.Loan) string { return l.ID }

func (b *Bot) formatLoan(loan appmodels.Loan, now time.Time) string {
	var sb strings.Builder
	icon := "🤝"
	if loan.IsPaid {
		icon = "✅"
	} else if summary.IsUrgent(loan, now) {
		icon = "⏰"
	}
	fmt.Fprintf(&sb, "%s <code>%s</code> <b>%s</b>: %s", icon, shortID(loan.ID), escapeHTML(loan.LenderName), b.money(loan.Amount))
	if loan.InterestRate.IsPositive() {
		fmt.Fprintf(&sb, " @ %s%%/month", loan.InterestRate.String())
	}
	if loan.Purpose != "" {
		fmt.Fprintf(&sb, "\n   %s", escapeHTML(loan.Purpose))
	}

	if loan.IsPaid {
		if !loan.PaidDate.IsZero() {
			fmt.Fprintf(&sb, "\n   Paid on %s", loan.PaidDate.Format("2 Jan 2006"))
		}
		return sb.String()
	}

	fmt.Fprintf(&sb, "\n   Total owed: %s", b.money(summary.TotalOwed(loan, now)))
	if !loan.DueDate.IsZero() {
		fmt.Fprintf(&sb, "\n   Due %s · %s", loan.DueDate.Format("2 Jan 2006"), summary.DueLabel(loan, now))
	}
	return sb.String()
}

// handleLoansCore lists active and paid loans.
func (b *Bot) handleLoansCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageInfo(update)
	if !ok {
		return
	}
	s, ok := b.sessionFor(ctx, tg, chatID, userID)
	if !ok {
		return
	}

	loans := b.load(ctx, s).Loans
	if len(loans) == 0 {
		reply(ctx, tg, chatID, "📭 No loan reminders. Add a loan to track repayments:\n<code>/loan Ramesh | 5000 | 2026-12-31 | 2</code>")
		return
	}

	now := b.now()
	var active, paid []string
	for _, loan := range loans {
		if loan.IsPaid {
			paid = append(paid, b.formatLoan(loan, now))
		} else {
			active = append(active, b.formatLoan(loan, now))
		}
	}

	var sb strings.Builder
	sb.WriteString("🤝 <b>Loan Reminders</b>\n")
	if len(active) > 0 {
		fmt.Fprintf(&sb, "\n<b>Active Loans</b> (outstanding %s)\n%s\n", b.money(summary.Outstanding(loans, now)), strings.Join(active, "\n"))
	}
	if len(paid) > 0 {
		fmt.Fprintf(&sb, "\n<b>Paid Loans</b>\n%s\n", strings.Join(paid, "\n"))
	}
	sb.WriteString("\nMark paid with <code>/paid &lt;id&gt;</code>")
	reply(ctx, tg, chatID, sb.String())
}

// handleAddLoanCore records a new loan.
func (b *Bot) handleAddLoanCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageInfo(update)
	if !ok {
		return
	}

	now := b.now()
	loan, err := ParseLoanArgs(extractCommandArgs(update.Message.Text, "/loan"), now)
	if err != nil {
		reply(ctx, tg, chatID, "❌ "+escapeHTML(err.Error()))
		return
	}

	s, ok := b.sessionFor(ctx, tg, chatID, userID)
	if !ok {
		return
	}
	saved, err := s.Facade().AddLoan(ctx, loan)
	if err != nil {
		logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(userID)).Msg("Failed to add loan")
		reply(ctx, tg, chatID, failure("save the loan", err))
		return
	}
	b.changed(ctx, s)
	reply(ctx, tg, chatID, "✅ Loan added\n"+b.formatLoan(saved, now))
}

// handlePaidCore marks a loan as paid.
func (b *Bot) handlePaidCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	b.loanActionCore(ctx, tg, update, "/paid", "mark the loan paid", "✅ Loan <code>%s</code> marked as paid.",
		func(ctx context.Context, s loanWriter, id string) error { return s.MarkLoanPaid(ctx, id) })
}

// handleDeleteLoanCore deletes a loan.
func (b *Bot) handleDeleteLoanCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	b.loanActionCore(ctx, tg, update, "/deleteloan", "delete the loan", "🗑️ Deleted loan <code>%s</code>.",
		func(ctx context.Context, s loanWriter, id string) error { return s.DeleteLoan(ctx, id) })
}

type loanWriter interface {
	MarkLoanPaid(ctx context.Context, id string) error
	DeleteLoan(ctx context.Context, id string) error
}

func (b *Bot) loanActionCore(
	ctx context.Context,
	tg TelegramAPI,
	update *models.Update,
	cmd, action, done string,
	apply func(ctx context.Context, w loanWriter, id string) error,
) {
	chatID, userID, ok := messageInfo(update)
	if !ok {
		return
	}
	prefix := extractCommandArgs(update.Message.Text, cmd)
	if prefix == "" {
		reply(ctx, tg, chatID, fmt.Sprintf("❌ Usage: <code>%s &lt;id&gt;</code> (ids are shown by /loans)", cmd))
		return
	}
	s, ok := b.sessionFor(ctx, tg, chatID, userID)
	if !ok {
		return
	}

	f := s.Facade()
	id, err := resolveID(f.Loans(ctx), prefix, loanID)
	if err != nil {
		reply(ctx, tg, chatID, lookupFailure("loan", prefix, err))
		return
	}
	if err := apply(ctx, f, id); err != nil {
		logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(userID)).Str("cmd", cmd).Msg("Loan update failed")
		reply(ctx, tg, chatID, failure(action, err))
		return
	}
	b.changed(ctx, s)
	reply(ctx, tg, chatID, fmt.Sprintf(done, shortID(id)))
}
