package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"gitlab.com/yelinaung/spennies-bot/internal/logger"
	appmodels "gitlab.com/yelinaung/spennies-bot/internal/models"
	"gitlab.com/yelinaung/spennies-bot/internal/summary"
)

const (
	// ReminderCheckInterval is how often the reminder loop checks whether to send reminders.
	ReminderCheckInterval = 30 * time.Minute
	// ReminderTimeout is the maximum time a single reminder check can take.
	ReminderTimeout = 2 * time.Minute
)

// startLoanReminderLoop periodically reminds known users about unpaid loans
// that are due within their reminder lead time.
func (b *Bot) startLoanReminderLoop(ctx context.Context) {
	if !b.cfg.LoanReminderEnabled {
		logger.Log.Info().Msg("Loan reminder is disabled")
		return
	}

	loc := b.cfg.ReminderLocation()
	logger.Log.Info().
		Int("hour", b.cfg.ReminderHour).
		Str("timezone", loc.String()).
		Msg("Loan reminder loop started")

	reminded := make(map[int64]string)
	ticker := time.NewTicker(ReminderCheckInterval)
	defer ticker.Stop()

	select {
	case <-ctx.Done():
		logger.Log.Info().Msg("Loan reminder loop stopped")
		return
	default:
	}

	// Check once at startup so a restart during the reminder hour still sends.
	b.checkAndSendLoanReminders(ctx, reminded, b.now().In(loc))

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info().Msg("Loan reminder loop stopped")
			return
		case <-ticker.C:
			b.checkAndSendLoanReminders(ctx, reminded, b.now().In(loc))
		}
	}
}

// checkAndSendLoanReminders sends each known user one message listing their
// urgent loans. The reminded map records the day each user was last reminded.
func (b *Bot) checkAndSendLoanReminders(ctx context.Context, reminded map[int64]string, now time.Time) {
	if now.Hour() != b.cfg.ReminderHour {
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, ReminderTimeout)
	defer cancel()

	todayStr := now.Format("2006-01-02")
	for uid, dateStr := range reminded {
		if dateStr != todayStr {
			delete(reminded, uid)
		}
	}

	users, err := b.sessions.Known(checkCtx)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to list users for loan reminder")
		return
	}

	for _, userID := range users {
		if reminded[userID] == todayStr {
			continue
		}
		log := logger.ForUser(userID)
		s, err := b.sessions.Get(checkCtx, userID)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to load session for loan reminder")
			continue
		}
		due := summary.UpcomingReminders(s.Facade().Loans(checkCtx), now)
		if len(due) == 0 {
			continue
		}

		_, err = b.api.SendMessage(checkCtx, &tgbot.SendMessageParams{
			ChatID:    userID,
			Text:      b.formatLoanReminder(due, now),
			ParseMode: models.ParseModeHTML,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to send loan reminder")
			continue
		}

		reminded[userID] = todayStr
		log.Debug().Int("loans", len(due)).Msg("Sent loan reminder")
	}
}

func (b *Bot) formatLoanReminder(loans []appmodels.Loan, now time.Time) string {
	var sb strings.Builder
	sb.WriteString("⏰ <b>Loan reminder</b>\n")
	for _, loan := range loans {
		fmt.Fprintf(&sb, "\n%s", b.formatLoan(loan, now))
	}
	sb.WriteString("\n\nMark a loan paid with <code>/paid &lt;id&gt;</code>")
	return sb.String()
}
