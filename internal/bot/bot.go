// Package bot is the Telegram view layer: commands render the user's data
// and every mutation broadcasts a refresh so open views re-render.
package bot

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/yelinaung/spennies-bot/internal/bot/mocks"
	"gitlab.com/yelinaung/spennies-bot/internal/config"
	"gitlab.com/yelinaung/spennies-bot/internal/localstore"
	"gitlab.com/yelinaung/spennies-bot/internal/logger"
	"gitlab.com/yelinaung/spennies-bot/internal/refresh"
	"gitlab.com/yelinaung/spennies-bot/internal/session"
	"gitlab.com/yelinaung/spennies-bot/internal/telemetry"
)

// TelegramAPI is what handlers send through. It is declared in mocks so the
// mock can implement it without an import cycle.
type TelegramAPI = mocks.TelegramAPI

var _ TelegramAPI = (*bot.Bot)(nil)

// Deps are the collaborators shared by all handlers.
type Deps struct {
	Sessions *session.Manager
	Bus      *refresh.Bus
	Store    localstore.Store
	Now      func() time.Time
}

// Bot wraps the Telegram bot with application dependencies.
type Bot struct {
	bot *bot.Bot
	// api is what refresh subscribers and the reminder loop send through.
	api TelegramAPI

	cfg      *config.Config
	sessions *session.Manager
	bus      *refresh.Bus
	store    localstore.Store
	now      func() time.Time

	unsubscribe []func()
}

// coreHandler is a handler body that can run against any TelegramAPI.
type coreHandler func(ctx context.Context, tg TelegramAPI, update *tgmodels.Update)

// command binds a slash command to its handler.
type command struct {
	name string
	core coreHandler
}

// New creates a new Bot instance.
func New(cfg *config.Config, deps Deps) (*Bot, error) {
	b := newBot(cfg, deps)

	opts := []bot.Option{
		bot.WithMiddlewares(b.whitelistMiddleware),
		bot.WithDefaultHandler(b.defaultHandler),
	}

	telegramBot, err := bot.New(cfg.TelegramBotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b.bot = telegramBot
	b.api = telegramBot
	b.registerHandlers()
	b.subscribe()

	return b, nil
}

// newBot builds a Bot without a Telegram connection.
func newBot(cfg *config.Config, deps Deps) *Bot {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	bus := deps.Bus
	if bus == nil {
		bus = refresh.New()
	}
	return &Bot{
		cfg:      cfg,
		sessions: deps.Sessions,
		bus:      bus,
		store:    deps.Store,
		now:      now,
	}
}

// Start begins polling for updates and runs the loan reminder loop.
func (b *Bot) Start(ctx context.Context) {
	go b.startLoanReminderLoop(ctx)

	logger.Log.Info().Msg("Bot started polling")
	b.bot.Start(ctx)

	for _, unsub := range b.unsubscribe {
		unsub()
	}
	b.bus.Wait()
}

func (b *Bot) commands() []command {
	return []command{
		{"start", b.handleStartCore},
		{"help", b.handleHelpCore},
		{"register", b.handleRegisterCore},
		{"login", b.handleLoginCore},
		{"logout", b.handleLogoutCore},
		{"guest", b.handleGuestCore},
		{"dashboard", b.handleDashboardCore},
		{"buffer", b.handleBufferCore},
		{"forecast", b.handleForecastCore},
		{"chart", b.handleChartCore},
		{"income", b.handleIncomeCore},
		{"expense", b.handleExpenseCore},
		{"list", b.handleListCore},
		{"delete", b.handleDeleteCore},
		{"sms", b.handleSMSCore},
		{"loans", b.handleLoansCore},
		{"loan", b.handleAddLoanCore},
		{"paid", b.handlePaidCore},
		{"deleteloan", b.handleDeleteLoanCore},
		{"insights", b.handleInsightsCore},
		{"challenge", b.handleChallengeCore},
		{"done", b.handleDoneCore},
		{"chat", b.handleChatCore},
		{"clearchat", b.handleClearChatCore},
		{"settings", b.handleSettingsCore},
		{"budget", b.handleBudgetCore},
		{"reset", b.handleResetCore},
	}
}

// commandPattern matches "/name", "/name args" and "/name@bot args" but not
// longer commands sharing the prefix (/loan vs /loans).
func commandPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`^/` + regexp.QuoteMeta(name) + `(?:@\w+)?(?:\s|$)`)
}

// registerHandlers sets up command and callback handlers.
func (b *Bot) registerHandlers() {
	for _, cmd := range b.commands() {
		b.bot.RegisterHandlerRegexp(bot.HandlerTypeMessageText, commandPattern(cmd.name), b.adapt(cmd.name, cmd.core))
	}
	b.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, resetCallbackPrefix, bot.MatchTypePrefix, b.adapt("reset_callback", b.handleResetCallbackCore))
}

// adapt turns a core handler into a go-telegram handler with a span per update.
func (b *Bot) adapt(name string, core coreHandler) bot.HandlerFunc {
	return func(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
		ctx, span := telemetry.Tracer().Start(ctx, "bot."+name,
			trace.WithAttributes(attribute.String("user", logger.HashUserID(extractUserID(update)))))
		defer span.End()
		core(ctx, tgBot, update)
	}
}

// whitelistMiddleware checks if the user is whitelisted before processing.
func (b *Bot) whitelistMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
		if !b.allowed(ctx, tgBot, update) {
			return
		}
		next(ctx, tgBot, update)
	}
}

// allowed logs the update and tells non-whitelisted users they are blocked.
func (b *Bot) allowed(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) bool {
	userID := extractUserID(update)
	if userID == 0 {
		return false
	}

	username := extractUsername(update)
	logUserAction(userID, update)

	if b.cfg.IsUserWhitelisted(userID, username) {
		return true
	}

	logger.Log.Warn().
		Str("user_hash", logger.HashUserID(userID)).
		Msg("Blocked non-whitelisted user")
	if update.Message != nil {
		_, _ = tg.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   "⛔ Sorry, you are not authorized to use this bot.",
		})
	}
	return false
}

// logUserAction logs the user's input without its content.
func logUserAction(userID int64, update *tgmodels.Update) {
	switch {
	case update.Message != nil:
		msg := update.Message
		event := logger.Log.Info().
			Str("user_hash", logger.HashUserID(userID)).
			Str("chat_hash", logger.HashChatID(msg.Chat.ID))
		if msg.Text != "" {
			event = event.Str("text", logger.SanitizeText(msg.Text))
		}
		event.Msg("User input")

	case update.CallbackQuery != nil:
		logger.Log.Info().
			Str("user_hash", logger.HashUserID(userID)).
			Str("data", update.CallbackQuery.Data).
			Msg("Callback query")
	}
}

// extractUsername gets the username from the update.
func extractUsername(update *tgmodels.Update) string {
	if update.Message != nil && update.Message.From != nil {
		return update.Message.From.Username
	}
	if update.CallbackQuery != nil {
		return update.CallbackQuery.From.Username
	}
	return ""
}

// extractUserID gets the user ID from various update types.
func extractUserID(update *tgmodels.Update) int64 {
	if update == nil {
		return 0
	}
	if update.Message != nil && update.Message.From != nil {
		return update.Message.From.ID
	}
	if update.CallbackQuery != nil {
		return update.CallbackQuery.From.ID
	}
	return 0
}

// defaultHandler handles messages no command matched.
func (b *Bot) defaultHandler(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.adapt("free_text", b.handleFreeTextCore)(ctx, tgBot, update)
}
