package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"gitlab.com/yelinaung/spennies-bot/internal/ledger"
	"gitlab.com/yelinaung/spennies-bot/internal/logger"
	"gitlab.com/yelinaung/spennies-bot/internal/summary"
)

// sendChart uploads a PNG as a photo.
func sendChart(ctx context.Context, tg TelegramAPI, chatID int64, filename, caption string, png []byte) error {
	_, err := tg.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID: chatID,
		Photo: &models.InputFileUpload{
			Filename: filename,
			Data:     bytes.NewReader(png),
		},
		Caption:   caption,
		ParseMode: models.ParseModeHTML,
	})
	return err
}

// handleForecastCore sends the month's savings forecast as a line chart.
func (b *Bot) handleForecastCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageInfo(update)
	if !ok {
		return
	}
	s, ok := b.sessionFor(ctx, tg, chatID, userID)
	if !ok {
		return
	}

	snap := b.load(ctx, s)
	now := b.now()
	savings := summary.MonthlySavings(snap.Transactions, now)
	points := summary.ForecastFor(savings, now)
	target := ledger.Target(snap.User)

	png, err := GenerateForecastChart(points, target, now)
	if err != nil {
		logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(userID)).Msg("Failed to generate forecast chart")
		reply(ctx, tg, chatID, "❌ Failed to generate chart. Please try again.")
		return
	}

	caption := fmt.Sprintf("📈 <b>Savings Forecast</b>\nSaved so far: %s\nDaily rate: %s\nProjected month end: %s\nTarget: %s",
		b.wholeMoney(savings),
		b.wholeMoney(summary.DailyRate(savings, now.Day())),
		b.wholeMoney(summary.ProjectedMonthEnd(points)),
		b.wholeMoney(target))
	if err := sendChart(ctx, tg, chatID, chartFilename("forecast", now), caption, png); err != nil {
		logger.Log.Error().Err(err).Str("chat_hash", logger.HashChatID(chatID)).Msg("Failed to send forecast chart")
	}
}

// handleChartCore sends the weekly income/expense bars and this month's
// category breakdown.
func (b *Bot) handleChartCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageInfo(update)
	if !ok {
		return
	}
	s, ok := b.sessionFor(ctx, tg, chatID, userID)
	if !ok {
		return
	}

	txs := b.load(ctx, s).Transactions
	now := b.now()

	weekly, err := GenerateWeeklyChart(summary.WeeklyFlow(txs, now))
	if err != nil {
		logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(userID)).Msg("Failed to generate weekly chart")
		reply(ctx, tg, chatID, "❌ Failed to generate chart. Please try again.")
		return
	}
	if err := sendChart(ctx, tg, chatID, chartFilename("weekly", now), "📊 <b>Last 7 days</b>", weekly); err != nil {
		logger.Log.Error().Err(err).Str("chat_hash", logger.HashChatID(chatID)).Msg("Failed to send weekly chart")
		return
	}

	byCategory := summary.ByCategory(summary.ThisMonth(txs, now))
	pie, err := GenerateCategoryChart(byCategory, "Spending - "+now.Format("January 2006"))
	if errors.Is(err, errNothingToChart) {
		reply(ctx, tg, chatID, "📭 No expenses this month yet, so there is no category breakdown.")
		return
	}
	if err != nil {
		logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(userID)).Msg("Failed to generate category chart")
		reply(ctx, tg, chatID, "❌ Failed to generate chart. Please try again.")
		return
	}

	caption := "🥧 <b>Spending by category</b>"
	for _, t := range byCategory {
		caption += fmt.Sprintf("\n%s: %s", escapeHTML(t.Category), b.money(t.Total))
	}
	if err := sendChart(ctx, tg, chatID, chartFilename("categories", now), caption, pie); err != nil {
		logger.Log.Error().Err(err).Str("chat_hash", logger.HashChatID(chatID)).Msg("Failed to send category chart")
	}
}
