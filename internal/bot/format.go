package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"gitlab.com/yelinaung/spennies-bot/internal/logger"
	"gitlab.com/yelinaung/spennies-bot/internal/session"
)

// displayLanguage drives digit grouping of amounts.
var displayLanguage = language.MustParse("en-IN")

const (
	genericErrorMsg = "❌ Something went wrong. Please try again."
	sessionErrorMsg = "❌ Could not load your account right now. Please try again."
)

// formatAmount renders an amount with grouped digits, dropping ".00".
func formatAmount(d decimal.Decimal) string {
	p := message.NewPrinter(displayLanguage)
	d = d.Round(2)
	if d.IsInteger() {
		return p.Sprintf("%d", d.IntPart())
	}
	return p.Sprintf("%.2f", d.InexactFloat64())
}

// money prefixes formatAmount with the configured currency symbol.
func (b *Bot) money(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-" + b.cfg.CurrencySymbol + formatAmount(d.Neg())
	}
	return b.cfg.CurrencySymbol + formatAmount(d)
}

// wholeMoney is money rounded to whole units, as the buffer shows it.
func (b *Bot) wholeMoney(d decimal.Decimal) string {
	return b.money(d.Round(0))
}

// titleCase capitalises free-text labels such as categories coming from SMS parsing.
// Casers are stateful, so each call gets its own.
func titleCase(s string) string {
	return cases.Title(language.English).String(strings.TrimSpace(s))
}

// escapeHTML escapes characters that have special meaning in Telegram HTML.
func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// shortID is the id prefix shown in lists and accepted by /delete and /paid.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// progressBar draws a ten-cell bar for a percentage in [0, 100].
func progressBar(percent decimal.Decimal) string {
	filled := int(percent.Div(decimal.NewFromInt(10)).Round(0).IntPart())
	filled = max(0, min(filled, 10))
	return strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)
}

// reply sends an HTML message and logs failures.
func reply(ctx context.Context, tg TelegramAPI, chatID int64, text string) {
	_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Str("chat_hash", logger.HashChatID(chatID)).Msg("Failed to send message")
	}
}

// sessionFor returns the caller's session, telling them when it cannot be loaded.
func (b *Bot) sessionFor(ctx context.Context, tg TelegramAPI, chatID, userID int64) (*session.Session, bool) {
	s, err := b.sessions.Get(ctx, userID)
	if err != nil {
		logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(userID)).Msg("Failed to load session")
		reply(ctx, tg, chatID, sessionErrorMsg)
		return nil, false
	}
	return s, true
}

// changed broadcasts that the user's data changed.
func (b *Bot) changed(ctx context.Context, s *session.Session) {
	b.bus.Publish(ctx, s.Scope)
}

// messageInfo pulls chat and user ids from a message update.
func messageInfo(update *models.Update) (chatID, userID int64, ok bool) {
	if update.Message == nil || update.Message.From == nil {
		return 0, 0, false
	}
	return update.Message.Chat.ID, update.Message.From.ID, true
}

// failure renders a write error as a one-line message. Validation messages
// are shown verbatim.
func failure(action string, err error) string {
	if msg, ok := userMessage(err); ok {
		return "❌ " + escapeHTML(msg)
	}
	return fmt.Sprintf("❌ Failed to %s. Please try again.", action)
}
