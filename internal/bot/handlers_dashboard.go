package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"gitlab.com/yelinaung/spennies-bot/internal/ledger"
	"gitlab.com/yelinaung/spennies-bot/internal/localstore"
	"gitlab.com/yelinaung/spennies-bot/internal/logger"
	"gitlab.com/yelinaung/spennies-bot/internal/session"
	"gitlab.com/yelinaung/spennies-bot/internal/snapshot"
	"gitlab.com/yelinaung/spennies-bot/internal/summary"
)

// subscriberDashboard is the refresh subscriber that edits live dashboards.
const subscriberDashboard = "dashboard"

// dashboardRef locates the live dashboard message of a user.
type dashboardRef struct {
	ChatID    int64 `json:"chat_id"`
	MessageID int   `json:"message_id"`
}

// subscribe wires the views that react to refresh broadcasts.
func (b *Bot) subscribe() {
	b.unsubscribe = append(b.unsubscribe,
		b.bus.Subscribe(subscriberDashboard, b.refreshDashboard),
	)
}

// load reads the user's dashboard inputs from the current tier.
func (b *Bot) load(ctx context.Context, s *session.Session) snapshot.Snapshot {
	return snapshot.Load(ctx, s.Facade(), b.now())
}

// handleDashboardCore sends the dashboard and remembers it for in-place refreshes.
func (b *Bot) handleDashboardCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageInfo(update)
	if !ok {
		return
	}
	s, ok := b.sessionFor(ctx, tg, chatID, userID)
	if !ok {
		return
	}

	text := b.renderDashboard(b.load(ctx, s), s.Authenticated())
	msg, err := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Str("chat_hash", logger.HashChatID(chatID)).Msg("Failed to send dashboard")
		return
	}

	ref := dashboardRef{ChatID: chatID, MessageID: msg.ID}
	if err := localstore.Save(ctx, b.store, s.Scope, localstore.BucketDashboard, ref); err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to remember dashboard message")
	}
}

// refreshDashboard re-renders the user's live dashboard in place.
func (b *Bot) refreshDashboard(ctx context.Context, scope string) {
	ref, ok := localstore.Load[dashboardRef](ctx, b.store, scope, localstore.BucketDashboard)
	if !ok || ref.MessageID == 0 {
		return
	}
	userID, ok := session.ParseScope(scope)
	if !ok {
		return
	}
	s, err := b.sessions.Get(ctx, userID)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Dashboard refresh skipped")
		return
	}

	snap := b.load(ctx, s)
	_, err = b.api.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    ref.ChatID,
		MessageID: ref.MessageID,
		Text:      b.renderDashboard(snap, s.Authenticated()),
		ParseMode: models.ParseModeHTML,
	})
	switch {
	case err == nil:
		logger.Log.Debug().Str("user_hash", logger.HashUserID(userID)).Msg("Dashboard refreshed")
	case strings.Contains(err.Error(), "message is not modified"):
	case strings.Contains(err.Error(), "message to edit not found"):
		_ = b.store.Remove(ctx, scope, localstore.BucketDashboard)
	default:
		logger.Log.Warn().Err(err).Str("user_hash", logger.HashUserID(userID)).Msg("Failed to refresh dashboard")
	}
}

// renderDashboard draws the summary cards.
func (b *Bot) renderDashboard(snap snapshot.Snapshot, online bool) string {
	now := b.now()
	target := ledger.Target(snap.User)
	sum := summary.Summarize(snap.Transactions, target, now)

	var sb strings.Builder
	title := "📊 <b>Dashboard</b>"
	if snap.User != nil && snap.User.Name != "" {
		title = fmt.Sprintf("📊 <b>%s's Dashboard</b>", escapeHTML(snap.User.Name))
	}
	sb.WriteString(title)
	if !online {
		sb.WriteString(" <i>(offline)</i>")
	}
	fmt.Fprintf(&sb, "\n%s\n\n", now.Format("Monday, 2 Jan 2006"))

	fmt.Fprintf(&sb, "<b>Today</b>\n💰 Income: %s\n💸 Expense: %s\n\n",
		b.money(sum.Today.Income), b.money(sum.Today.Expense))

	fmt.Fprintf(&sb, "<b>This month</b>\n💰 Income: %s\n💸 Expense: %s\n🏦 Savings: %s\n",
		b.money(sum.Month.Income), b.money(sum.Month.Expense), b.money(sum.Savings()))
	fmt.Fprintf(&sb, "🎯 Target: %s\n%s %s%%\n",
		b.money(sum.Target), progressBar(sum.Progress), sum.Progress.Round(0).String())
	if sum.Extra.IsPositive() {
		fmt.Fprintf(&sb, "✨ Extra funds: %s\n", b.money(sum.Extra))
	}

	sb.WriteString("\n<b>Daily buffer</b>\n")
	sb.WriteString(b.renderBuffer(summary.DailyBuffer(snap.Transactions, target, now)))
	sb.WriteString("\n")

	if unpaid := summary.Outstanding(snap.Loans, now); unpaid.IsPositive() {
		fmt.Fprintf(&sb, "\n<b>Loans</b>\n🤝 Outstanding: %s", b.money(unpaid))
		if urgent := len(summary.UpcomingReminders(snap.Loans, now)); urgent > 0 {
			fmt.Fprintf(&sb, " (%d due soon)", urgent)
		}
		sb.WriteString("\n")
	}

	if recent := summary.Recent(snap.Transactions, 3); len(recent) > 0 {
		sb.WriteString("\n<b>Recent</b>\n")
		for _, tx := range recent {
			sb.WriteString(b.formatTransactionLine(tx))
			sb.WriteString("\n")
		}
	}

	fetched := snap.FetchedAt
	if fetched.IsZero() {
		fetched = now
	}
	fmt.Fprintf(&sb, "\n<i>Updated %s</i>", fetched.In(now.Location()).Format("15:04:05"))
	return sb.String()
}

// renderBuffer words the safe-to-spend outcome.
func (b *Bot) renderBuffer(buf summary.Buffer) string {
	var sb strings.Builder
	switch buf.Outcome {
	case summary.TargetMet:
		fmt.Fprintf(&sb, "🎉 Monthly goal achieved! You've already met your monthly savings target.\n%s extra. Can spend wisely from these.",
			b.wholeMoney(buf.Extra()))
		return sb.String()
	case summary.Surplus:
		fmt.Fprintf(&sb, "✅ You can spend today, but wisely: %s after setting aside your daily savings.",
			b.wholeMoney(buf.Surplus))
	case summary.Behind:
		fmt.Fprintf(&sb, "⚠️ Think twice before spending! You are behind today's target by %s.",
			b.wholeMoney(buf.Surplus.Abs()))
	case summary.Exact:
		sb.WriteString("👌 You've met today's savings target.")
		if buf.Extra().IsPositive() {
			fmt.Fprintf(&sb, " You also have %s extra monthly savings. You may use these funds, but wisely.", b.wholeMoney(buf.Extra()))
		} else {
			sb.WriteString(" No extra monthly funds available. Stay cautious.")
		}
	}

	if buf.ShowProgress {
		fmt.Fprintf(&sb, "\nToday's goal: save %s\n%s\nNet saved today: %s",
			b.wholeMoney(buf.DailyTarget), progressBar(buf.Progress), b.wholeMoney(buf.NetToday))
	}
	return sb.String()
}

// handleBufferCore shows only the daily buffer.
func (b *Bot) handleBufferCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageInfo(update)
	if !ok {
		return
	}
	s, ok := b.sessionFor(ctx, tg, chatID, userID)
	if !ok {
		return
	}

	snap := b.load(ctx, s)
	buf := summary.DailyBuffer(snap.Transactions, ledger.Target(snap.User), b.now())
	reply(ctx, tg, chatID, "💵 <b>Daily Buffer</b>\n\n"+b.renderBuffer(buf))
}
