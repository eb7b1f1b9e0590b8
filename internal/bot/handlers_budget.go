package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/spennies-bot/internal/logger"
	appmodels "gitlab.com/yelinaung/spennies-bot/internal/models"
	"gitlab.com/yelinaung/spennies-bot/internal/summary"
)

const (
	resetCallbackPrefix = "reset_"
	resetConfirmData    = "reset_confirm"
	resetCancelData     = "reset_cancel"
)

// handleBudgetCore updates income, savings target and category estimates.
func (b *Bot) handleBudgetCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageInfo(update)
	if !ok {
		return
	}
	s, ok := b.sessionFor(ctx, tg, chatID, userID)
	if !ok {
		return
	}

	args := extractCommandArgs(update.Message.Text, "/budget")
	if args == "" {
		reply(ctx, tg, chatID, b.formatBudget(s.Facade().User(ctx)))
		return
	}

	budget, err := ParseBudgetArgs(args)
	if err != nil {
		reply(ctx, tg, chatID, "❌ "+escapeHTML(err.Error()))
		return
	}
	if err := s.Facade().SaveBudget(ctx, budget); err != nil {
		logger.Log.Warn().Err(err).Str("user_hash", logger.HashUserID(userID)).Msg("Budget update failed")
		reply(ctx, tg, chatID, failure("update the budget", err))
		return
	}
	b.changed(ctx, s)
	reply(ctx, tg, chatID, fmt.Sprintf("✅ Budget updated. Daily savings goal: %s.",
		b.wholeMoney(budget.SavingsTarget.Div(decimal.NewFromInt(int64(summary.DaysInMonth(b.now())))))))
}

func (b *Bot) formatBudget(u *appmodels.User) string {
	var sb strings.Builder
	sb.WriteString("📝 <b>Monthly Budget</b>\n\n")
	if u == nil {
		sb.WriteString("No budget yet.\n")
	} else {
		fmt.Fprintf(&sb, "Income: %s\nSavings target: %s\n", b.money(u.AvgIncome), b.money(u.SavingsTarget))
		for _, category := range appmodels.EstimateCategories {
			fmt.Fprintf(&sb, "%s: %s\n", category, b.money(u.Expenses.Get(category)))
		}
		fmt.Fprintf(&sb, "Estimated spending: %s\n", b.money(u.Expenses.Total()))
	}
	sb.WriteString("\nUpdate with <code>/budget income savings food transport bills other</code>")
	return sb.String()
}

// handleResetCore asks for confirmation before wiping all data.
func (b *Bot) handleResetCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, _, ok := messageInfo(update)
	if !ok {
		return
	}

	_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      "⚠️ <b>Delete all your data?</b>\n\nTransactions, loans, budget and chat history will be removed. This cannot be undone.",
		ParseMode: models.ParseModeHTML,
		ReplyMarkup: &models.InlineKeyboardMarkup{
			InlineKeyboard: [][]models.InlineKeyboardButton{{
				{Text: "🗑️ Delete everything", CallbackData: resetConfirmData},
				{Text: "⬅️ Cancel", CallbackData: resetCancelData},
			}},
		},
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send reset confirmation")
	}
}

// handleResetCallbackCore handles the reset confirmation buttons.
func (b *Bot) handleResetCallbackCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	cq := update.CallbackQuery
	if cq == nil || cq.Message.Message == nil {
		return
	}
	chatID := cq.Message.Message.Chat.ID
	messageID := cq.Message.Message.ID

	_, _ = tg.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: cq.ID})

	edit := func(text string) {
		_, err := tg.EditMessageText(ctx, &bot.EditMessageTextParams{
			ChatID:    chatID,
			MessageID: messageID,
			Text:      text,
			ParseMode: models.ParseModeHTML,
		})
		if err != nil {
			logger.Log.Error().Err(err).Msg("Failed to edit reset message")
		}
	}

	switch cq.Data {
	case resetCancelData:
		edit("👍 Reset cancelled. Your data is safe.")
		return
	case resetConfirmData:
	default:
		return
	}

	s, err := b.sessions.Get(ctx, cq.From.ID)
	if err != nil {
		edit(sessionErrorMsg)
		return
	}
	if err := s.Facade().ClearAll(ctx); err != nil {
		logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(cq.From.ID)).Msg("Reset failed")
		edit(failure("delete your data", err))
		return
	}
	b.changed(ctx, s)

	logger.Log.Info().Str("user_hash", logger.HashUserID(cq.From.ID)).Msg("User data reset")
	edit("🗑️ All your data has been deleted.")
}
