package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot/models"

	"gitlab.com/yelinaung/spennies-bot/internal/ledger"
	"gitlab.com/yelinaung/spennies-bot/internal/logger"
	appmodels "gitlab.com/yelinaung/spennies-bot/internal/models"
	"gitlab.com/yelinaung/spennies-bot/internal/summary"
)

// Default categories for entries typed without a #tag.
const (
	defaultIncomeCategory  = "Salary"
	defaultExpenseCategory = "Food"
	recentTransactionLimit = 5
	maxListedTransactions  = 50
)

var (
	errNoMatch   = errors.New("no match")
	errAmbiguous = errors.New("ambiguous")
)

// resolveID finds the single item whose id starts with prefix.
func resolveID[T any](items []T, prefix string, idOf func(T) string) (string, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return "", errNoMatch
	}
	var found string
	for _, item := range items {
		id := idOf(item)
		if !strings.HasPrefix(strings.ToLower(id), prefix) {
			continue
		}
		if id == found {
			continue
		}
		if found != "" {
			return "", errAmbiguous
		}
		found = id
	}
	if found == "" {
		return "", errNoMatch
	}
	return found, nil
}

func (b *Bot) formatTransactionLine(tx appmodels.Transaction) string {
	sign, icon := "-", "💸"
	if tx.IsIncome() {
		sign, icon = "+", "💰"
	}
	date := "-"
	if !tx.Date.IsZero() {
		date = tx.Date.Format("2 Jan")
	}

	line := fmt.Sprintf("%s <code>%s</code> %s %s%s", icon, shortID(tx.ID), date, sign, b.money(tx.Amount))
	if tx.Description != "" {
		line += " " + escapeHTML(tx.Description)
	}
	if tx.Category != "" {
		line += " (" + escapeHTML(tx.Category) + ")"
	}
	if tx.IsSMS() {
		line += " 📩 SMS"
	}
	return line
}

func (b *Bot) handleIncomeCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	b.addEntryCore(ctx, tg, update, "/income", appmodels.TransactionIncome)
}

func (b *Bot) handleExpenseCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	b.addEntryCore(ctx, tg, update, "/expense", appmodels.TransactionExpense)
}

// addEntryCore records "<amount> <description> [#category]" as the given type.
func (b *Bot) addEntryCore(ctx context.Context, tg TelegramAPI, update *models.Update, cmd string, typ appmodels.TransactionType) {
	chatID, userID, ok := messageInfo(update)
	if !ok {
		return
	}

	entry := ParseEntryInput(extractCommandArgs(update.Message.Text, cmd))
	if entry == nil {
		reply(ctx, tg, chatID, fmt.Sprintf("❌ Usage: <code>%s &lt;amount&gt; &lt;description&gt; [#category]</code>\nExample: <code>%s 250 lunch #Food</code>", cmd, cmd))
		return
	}
	b.recordEntry(ctx, tg, chatID, userID, entry, typ)
}

// handleFreeTextCore treats "<amount> <description>" as an expense and
// anything else as a chat message.
func (b *Bot) handleFreeTextCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageInfo(update)
	if !ok {
		return
	}
	text := strings.TrimSpace(update.Message.Text)
	if text == "" {
		return
	}
	if strings.HasPrefix(text, "/") {
		reply(ctx, tg, chatID, "I didn't understand that command. Use /help to see available commands.")
		return
	}

	if entry := ParseEntryInput(text); entry != nil {
		b.recordEntry(ctx, tg, chatID, userID, entry, appmodels.TransactionExpense)
		return
	}
	b.chat(ctx, tg, chatID, userID, text)
}

func (b *Bot) recordEntry(ctx context.Context, tg TelegramAPI, chatID, userID int64, entry *ParsedEntry, typ appmodels.TransactionType) {
	s, ok := b.sessionFor(ctx, tg, chatID, userID)
	if !ok {
		return
	}

	category := entry.Category
	if category == "" {
		category = defaultExpenseCategory
		if typ == appmodels.TransactionIncome {
			category = defaultIncomeCategory
		}
	}

	tx, err := s.Facade().AddTransaction(ctx, appmodels.Transaction{
		Amount:      entry.Amount,
		Type:        typ,
		Category:    category,
		Description: entry.Description,
		Source:      appmodels.SourceManual,
	})
	if err != nil {
		logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(userID)).Msg("Failed to add transaction")
		reply(ctx, tg, chatID, failure("save the transaction", err))
		return
	}
	b.changed(ctx, s)

	logger.Log.Info().
		Str("user_hash", logger.HashUserID(userID)).
		Str("type", string(tx.Type)).
		Str("amount", tx.Amount.String()).
		Str("description", logger.SanitizeDescription(tx.Description)).
		Msg("Transaction added")

	label := "Expense"
	if tx.IsIncome() {
		label = "Income"
	}
	reply(ctx, tg, chatID, fmt.Sprintf("✅ %s added\n%s", label, b.formatTransactionLine(tx)))
}

// handleListCore lists recent transactions, or all of them with "all".
func (b *Bot) handleListCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageInfo(update)
	if !ok {
		return
	}
	s, ok := b.sessionFor(ctx, tg, chatID, userID)
	if !ok {
		return
	}

	showAll := strings.EqualFold(extractCommandArgs(update.Message.Text, "/list"), "all")
	sorted := summary.SortTransactions(b.load(ctx, s).Transactions)
	if len(sorted) == 0 {
		reply(ctx, tg, chatID, "📭 No transactions found. Add one to get started!\nExample: <code>250 lunch</code>")
		return
	}

	limit := recentTransactionLimit
	title := "🧾 <b>Recent Transactions</b>"
	if showAll {
		limit = maxListedTransactions
		title = "🧾 <b>All Transactions</b>"
	}
	shown := summary.Recent(sorted, limit)

	var sb strings.Builder
	sb.WriteString(title + "\n\n")
	for _, tx := range shown {
		sb.WriteString(b.formatTransactionLine(tx))
		sb.WriteString("\n")
	}
	if hidden := len(sorted) - len(shown); hidden > 0 {
		if showAll {
			fmt.Fprintf(&sb, "\n…and %d older.", hidden)
		} else {
			fmt.Fprintf(&sb, "\n%d more. Use <code>/list all</code> to see everything.", hidden)
		}
	}
	sb.WriteString("\nDelete with <code>/delete &lt;id&gt;</code>")
	reply(ctx, tg, chatID, sb.String())
}

// handleDeleteCore deletes the transaction whose id starts with the argument.
func (b *Bot) handleDeleteCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageInfo(update)
	if !ok {
		return
	}
	prefix := extractCommandArgs(update.Message.Text, "/delete")
	if prefix == "" {
		reply(ctx, tg, chatID, "❌ Usage: <code>/delete &lt;id&gt;</code> (ids are shown by /list)")
		return
	}
	s, ok := b.sessionFor(ctx, tg, chatID, userID)
	if !ok {
		return
	}

	f := s.Facade()
	id, err := resolveID(f.AllTransactions(ctx), prefix, func(tx appmodels.Transaction) string { return tx.ID })
	if err != nil {
		reply(ctx, tg, chatID, lookupFailure("transaction", prefix, err))
		return
	}

	if err := f.DeleteTransaction(ctx, id); err != nil {
		logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(userID)).Msg("Failed to delete transaction")
		reply(ctx, tg, chatID, failure("delete the transaction", err))
		return
	}
	b.changed(ctx, s)
	reply(ctx, tg, chatID, fmt.Sprintf("🗑️ Deleted transaction <code>%s</code>.", shortID(id)))
}

func lookupFailure(kind, prefix string, err error) string {
	if errors.Is(err, errAmbiguous) {
		return fmt.Sprintf("❌ More than one %s starts with <code>%s</code>. Use more characters.", kind, escapeHTML(prefix))
	}
	return fmt.Sprintf("❌ No %s found with id <code>%s</code>.", kind, escapeHTML(prefix))
}

// handleSMSCore parses pasted bank SMS text and records confident results.
func (b *Bot) handleSMSCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageInfo(update)
	if !ok {
		return
	}
	s, ok := b.sessionFor(ctx, tg, chatID, userID)
	if !ok {
		return
	}

	result, err := s.Facade().ParseSMS(ctx, extractCommandArgs(update.Message.Text, "/sms"))
	if err != nil {
		logger.Log.Warn().Err(err).Str("user_hash", logger.HashUserID(userID)).Msg("SMS parse failed")
		if errors.Is(err, ledger.ErrOffline) {
			reply(ctx, tg, chatID, "❌ SMS tracking needs an account. Please /login, or add it manually: <code>250 lunch</code>")
			return
		}
		reply(ctx, tg, chatID, failure("parse the SMS", err))
		return
	}

	confidence := int(result.Confidence * 100)
	if !result.Recordable() {
		reply(ctx, tg, chatID, fmt.Sprintf("🤔 I'm not sure this SMS is a transaction (confidence %d%%). Nothing was recorded.", confidence))
		return
	}
	b.changed(ctx, s)

	tx := result.Transaction(b.now())
	text := fmt.Sprintf("📩 <b>SMS tracked</b>\n%s %s", titleCase(string(tx.Type)), b.money(tx.Amount))
	if result.Merchant != "" {
		text += " at " + escapeHTML(result.Merchant)
	}
	text += fmt.Sprintf("\nCategory: %s\nConfidence: %d%%", escapeHTML(tx.Category), confidence)
	reply(ctx, tg, chatID, text)
}
