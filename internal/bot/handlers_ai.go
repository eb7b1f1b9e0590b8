package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot/models"

	"gitlab.com/yelinaung/spennies-bot/internal/ledger"
	"gitlab.com/yelinaung/spennies-bot/internal/logger"
	appmodels "gitlab.com/yelinaung/spennies-bot/internal/models"
	"gitlab.com/yelinaung/spennies-bot/internal/session"
	"gitlab.com/yelinaung/spennies-bot/internal/summary"
)

// chatHistoryShown is how many past messages /chat without text replays.
const chatHistoryShown = 10

// handleInsightsCore shows AI insights, the month-end projection and the tip of the day.
func (b *Bot) handleInsightsCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageInfo(update)
	if !ok {
		return
	}
	s, ok := b.sessionFor(ctx, tg, chatID, userID)
	if !ok {
		return
	}

	insights := s.Facade().Insights(ctx)
	snap := b.load(ctx, s)
	now := b.now()
	projected := summary.ProjectedMonthEnd(summary.ForecastFor(summary.MonthlySavings(snap.Transactions, now), now))

	var sb strings.Builder
	sb.WriteString("🧠 <b>AI Insights</b>\n\n")
	if len(insights.Items) == 0 {
		sb.WriteString("No insights yet. Keep tracking to unlock them.\n")
	}
	for _, item := range insights.Items {
		fmt.Fprintf(&sb, "• %s\n", escapeHTML(item))
	}
	fmt.Fprintf(&sb, "\n📈 <b>Savings Projection</b>\nAt this pace you will save %s by month end (target %s).\n",
		b.wholeMoney(projected), b.wholeMoney(ledger.Target(snap.User)))
	fmt.Fprintf(&sb, "\n💡 <b>Spennies Tip of the Day</b>\n%s", escapeHTML(insights.Tip))
	reply(ctx, tg, chatID, sb.String())
}

// challengeKey identifies the user for per-day challenge state.
func challengeKey(ctx context.Context, s *session.Session) string {
	if u := s.Facade().User(ctx); u != nil {
		return u.KeyID()
	}
	return s.Scope
}

func (b *Bot) formatChallenge(c appmodels.Challenge, completed bool) string {
	var sb strings.Builder
	if completed {
		sb.WriteString("🎉 <b>Daily Challenge Completed!</b>\n\n")
	} else {
		sb.WriteString("🎯 <b>Today's Challenge</b>\n\n")
	}
	fmt.Fprintf(&sb, "<b>%s</b>\n%s", escapeHTML(c.Title), escapeHTML(c.Description))
	if c.Reward.IsPositive() {
		fmt.Fprintf(&sb, "\n\n💰 Potential savings: %s", b.money(c.Reward))
	}
	if !completed {
		sb.WriteString("\n\nDone it? Send /done. Want another? <code>/challenge new</code>")
	}
	return sb.String()
}

// handleChallengeCore shows today's challenge, or fetches a new one.
func (b *Bot) handleChallengeCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageInfo(update)
	if !ok {
		return
	}
	s, ok := b.sessionFor(ctx, tg, chatID, userID)
	if !ok {
		return
	}

	f := s.Facade()
	key := challengeKey(ctx, s)
	today := f.TodayChallenge(ctx, key)
	if strings.EqualFold(extractCommandArgs(update.Message.Text, "/challenge"), "new") && !today.Completed {
		today.Challenge = f.NewChallenge(ctx, key)
	}
	reply(ctx, tg, chatID, b.formatChallenge(today.Challenge, today.Completed))
}

// handleDoneCore marks today's challenge as completed.
func (b *Bot) handleDoneCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageInfo(update)
	if !ok {
		return
	}
	s, ok := b.sessionFor(ctx, tg, chatID, userID)
	if !ok {
		return
	}

	f := s.Facade()
	key := challengeKey(ctx, s)
	today := f.TodayChallenge(ctx, key)
	if today.Completed {
		reply(ctx, tg, chatID, "✅ You already completed today's challenge. Come back tomorrow!")
		return
	}
	if err := f.CompleteChallenge(ctx, key); err != nil {
		reply(ctx, tg, chatID, failure("save your progress", err))
		return
	}
	reply(ctx, tg, chatID, b.formatChallenge(today.Challenge, true))
}

// handleChatCore sends a message to the assistant, or replays recent history.
func (b *Bot) handleChatCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageInfo(update)
	if !ok {
		return
	}
	text := extractCommandArgs(update.Message.Text, "/chat")
	if text != "" {
		b.chat(ctx, tg, chatID, userID, text)
		return
	}

	s, ok := b.sessionFor(ctx, tg, chatID, userID)
	if !ok {
		return
	}
	history := s.Facade().ChatHistory(ctx)
	if len(history) == 0 {
		reply(ctx, tg, chatID, "💬 Ask me anything about your money, e.g. <code>/chat how much did I spend on food?</code>")
		return
	}
	if len(history) > chatHistoryShown {
		history = history[len(history)-chatHistoryShown:]
	}
	var sb strings.Builder
	sb.WriteString("💬 <b>Recent conversation</b>\n")
	for _, msg := range history {
		who := "🧑"
		if msg.Role == appmodels.ChatRoleAssistant {
			who = "🤖"
		}
		fmt.Fprintf(&sb, "\n%s %s", who, escapeHTML(msg.Text))
	}
	reply(ctx, tg, chatID, sb.String())
}

// chat runs one assistant turn. Replies that changed data trigger a refresh.
func (b *Bot) chat(ctx context.Context, tg TelegramAPI, chatID, userID int64, text string) {
	s, ok := b.sessionFor(ctx, tg, chatID, userID)
	if !ok {
		return
	}

	f := s.Facade()
	language := "en"
	if u := f.User(ctx); u != nil && u.Language != "" {
		language = u.Language
	}

	answer := f.Chat(ctx, text, language)
	if answer.TriggersRefresh() {
		logger.Log.Debug().Str("user_hash", logger.HashUserID(userID)).Str("action", answer.Action).Msg("Chat action changed data")
		b.changed(ctx, s)
	}
	reply(ctx, tg, chatID, "🤖 "+escapeHTML(answer.Response))
}

// handleClearChatCore forgets the conversation.
func (b *Bot) handleClearChatCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageInfo(update)
	if !ok {
		return
	}
	s, ok := b.sessionFor(ctx, tg, chatID, userID)
	if !ok {
		return
	}
	if err := s.Facade().ClearChat(ctx); err != nil {
		reply(ctx, tg, chatID, failure("clear the chat", err))
		return
	}
	reply(ctx, tg, chatID, "🧹 Chat history cleared.")
}
