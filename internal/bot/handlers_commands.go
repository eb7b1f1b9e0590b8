package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot/models"

	"gitlab.com/yelinaung/spennies-bot/internal/logger"
)

// extractCommandArgs strips the /command prefix (and optional @botname suffix)
// from a message and returns the remaining trimmed arguments.
func extractCommandArgs(text, command string) string {
	args := strings.TrimSpace(strings.TrimPrefix(text, command))
	if strings.HasPrefix(args, "@") {
		if spaceIdx := strings.IndexAny(args, " \n"); spaceIdx != -1 {
			args = strings.TrimSpace(args[spaceIdx:])
		} else {
			args = ""
		}
	}
	return args
}

// formatGreeting returns a greeting suffix with the user's name.
func formatGreeting(firstName string) string {
	if firstName == "" {
		return ""
	}
	return ", " + escapeHTML(firstName)
}

// handleStartCore greets the user and says which storage mode they are in.
func (b *Bot) handleStartCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageInfo(update)
	if !ok {
		return
	}

	s, ok := b.sessionFor(ctx, tg, chatID, userID)
	if !ok {
		return
	}

	mode := "📴 You are using Spennies offline. Your data stays on this bot."
	if s.Authenticated() {
		mode = "☁️ You are logged in. Your data is synced with your Spennies account."
	} else if b.sessions.AuthEnabled() {
		mode += "\nUse /register or /login to sync with your Spennies account."
	}

	text := fmt.Sprintf(`👋 Welcome to Spennies%s!

I help you track income and expenses, stay on your savings target and remember your loans.

<b>Quick Start:</b>
• Send an expense like: <code>250 lunch</code>
• Add income: <code>/income 15000 salary</code>
• See your numbers: /dashboard

%s

Use /help to see all available commands.`,
		formatGreeting(update.Message.From.FirstName), mode)

	logger.Log.Debug().Str("chat_hash", logger.HashChatID(chatID)).Msg("Sending /start response")
	reply(ctx, tg, chatID, text)
}

const helpText = `📚 <b>Available Commands</b>

<b>Account:</b>
• <code>/register email | password | name | income | savings target [| job] [| language] [| tone]</code>
• <code>/login email password</code> / <code>/logout</code>
• <code>/guest name [| income] [| savings target] [| job]</code> - Set up an offline profile
• <code>/settings</code> - Show profile, <code>/settings tone motivational</code> to change it

<b>Overview:</b>
• <code>/dashboard</code> - Today and this month, kept up to date
• <code>/buffer</code> - What is safe to spend today
• <code>/forecast</code> - Savings projection chart
• <code>/chart</code> - Weekly overview and expense breakdown

<b>Transactions:</b>
• Send <code>250 lunch</code> or <code>/expense 250 lunch #Food</code>
• <code>/income 15000 salary #Salary</code>
• <code>/list</code> - Recent transactions, <code>/list all</code> for everything
• <code>/delete &lt;id&gt;</code> - Delete a transaction
• <code>/sms &lt;bank sms text&gt;</code> - Track a bank SMS

<b>Loans:</b>
• <code>/loan lender | amount | due YYYY-MM-DD [| rate %] [| reminder days] [| purpose]</code>
• <code>/loans</code> - Active and paid loans
• <code>/paid &lt;id&gt;</code> / <code>/deleteloan &lt;id&gt;</code>

<b>AI:</b>
• <code>/insights</code> - Insights and tip of the day
• <code>/challenge</code> - Today's challenge, <code>/challenge new</code> for another, <code>/done</code> when completed
• <code>/chat &lt;message&gt;</code> - Ask Spennies, <code>/clearchat</code> to forget the conversation

<b>Budget &amp; data:</b>
• <code>/budget income savings food transport bills other</code> - Update estimates
• <code>/reset</code> - Delete all your data`

// handleHelpCore lists every command.
func (b *Bot) handleHelpCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, _, ok := messageInfo(update)
	if !ok {
		return
	}
	reply(ctx, tg, chatID, helpText)
}
