package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot/models"

	"gitlab.com/yelinaung/spennies-bot/internal/logger"
	appmodels "gitlab.com/yelinaung/spennies-bot/internal/models"
)

const passwordHint = "\n\n🔒 You may want to delete your message with the password."

// handleRegisterCore creates an online account and profile.
func (b *Bot) handleRegisterCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageInfo(update)
	if !ok {
		return
	}
	if !b.sessions.AuthEnabled() {
		reply(ctx, tg, chatID, failure("register", errAuthDisabled))
		return
	}

	reg, err := ParseRegisterArgs(extractCommandArgs(update.Message.Text, "/register"))
	if err != nil {
		reply(ctx, tg, chatID, "❌ "+escapeHTML(err.Error()))
		return
	}

	user, err := b.sessions.Register(ctx, userID, reg)
	if err != nil {
		logger.Log.Warn().Err(err).Str("user_hash", logger.HashUserID(userID)).Msg("Registration failed")
		reply(ctx, tg, chatID, failure("register", err))
		return
	}

	name := reg.Profile.Name
	if user != nil && user.Name != "" {
		name = user.Name
	}
	logger.Log.Info().Str("user_hash", logger.HashUserID(userID)).Msg("User registered")
	reply(ctx, tg, chatID, fmt.Sprintf("✅ Welcome aboard, %s! Your account is ready. Try /dashboard.%s", escapeHTML(name), passwordHint))
}

// handleLoginCore signs the user in with e-mail and password.
func (b *Bot) handleLoginCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageInfo(update)
	if !ok {
		return
	}
	if !b.sessions.AuthEnabled() {
		reply(ctx, tg, chatID, failure("log in", errAuthDisabled))
		return
	}

	fields := strings.Fields(extractCommandArgs(update.Message.Text, "/login"))
	if len(fields) != 2 {
		reply(ctx, tg, chatID, "❌ Usage: <code>/login email password</code>")
		return
	}

	if err := b.sessions.Login(ctx, userID, fields[0], fields[1]); err != nil {
		logger.Log.Warn().Err(err).Str("user_hash", logger.HashUserID(userID)).Msg("Login failed")
		reply(ctx, tg, chatID, failure("log in", err))
		return
	}

	logger.Log.Info().Str("user_hash", logger.HashUserID(userID)).Msg("User logged in")
	reply(ctx, tg, chatID, "✅ Logged in. Your data now comes from your Spennies account. Try /dashboard."+passwordHint)
}

// handleLogoutCore signs the user out; offline data stays.
func (b *Bot) handleLogoutCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageInfo(update)
	if !ok {
		return
	}

	if err := b.sessions.Logout(ctx, userID); err != nil {
		reply(ctx, tg, chatID, failure("log out", err))
		return
	}
	logger.Log.Info().Str("user_hash", logger.HashUserID(userID)).Msg("User logged out")
	reply(ctx, tg, chatID, "👋 Logged out. You are back to offline tracking.")
}

// handleGuestCore stores an offline profile.
func (b *Bot) handleGuestCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageInfo(update)
	if !ok {
		return
	}

	profile, err := ParseGuestArgs(extractCommandArgs(update.Message.Text, "/guest"))
	if err != nil {
		reply(ctx, tg, chatID, "❌ "+escapeHTML(err.Error()))
		return
	}

	if err := b.sessions.Guest(ctx, userID, profile); err != nil {
		reply(ctx, tg, chatID, failure("save your profile", err))
		return
	}
	reply(ctx, tg, chatID, fmt.Sprintf("✅ Hi %s! Your offline profile is saved. Try /dashboard.", escapeHTML(profile.Name)))
}

// settingFields maps /settings keys to the profile field they change.
var settingFields = map[string]func(u *appmodels.User, v string){
	"name":     func(u *appmodels.User, v string) { u.Name = v },
	"job":      func(u *appmodels.User, v string) { u.JobType = strings.ToLower(v) },
	"language": func(u *appmodels.User, v string) { u.Language = v },
	"tone":     func(u *appmodels.User, v string) { u.AITone = v },
}

// handleSettingsCore shows the profile, or updates one field.
func (b *Bot) handleSettingsCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageInfo(update)
	if !ok {
		return
	}
	s, ok := b.sessionFor(ctx, tg, chatID, userID)
	if !ok {
		return
	}

	args := extractCommandArgs(update.Message.Text, "/settings")
	if args == "" {
		reply(ctx, tg, chatID, b.formatSettings(s.Facade().User(ctx), s.Authenticated()))
		return
	}

	key, value, _ := strings.Cut(args, " ")
	set, known := settingFields[strings.ToLower(key)]
	value = strings.TrimSpace(value)
	if !known || value == "" {
		reply(ctx, tg, chatID, "❌ Usage: <code>/settings name|job|language|tone &lt;value&gt;</code>")
		return
	}

	var change appmodels.User
	set(&change, value)
	if err := s.Facade().UpdateProfile(ctx, change); err != nil {
		reply(ctx, tg, chatID, failure("update settings", err))
		return
	}
	b.changed(ctx, s)
	reply(ctx, tg, chatID, fmt.Sprintf("✅ Updated %s.", escapeHTML(strings.ToLower(key))))
}

func (b *Bot) formatSettings(u *appmodels.User, online bool) string {
	mode := "Offline"
	if online {
		mode = "Online"
	}
	if u == nil {
		return fmt.Sprintf("⚙️ <b>Settings</b> (%s)\n\nNo profile yet. Use /guest or /register.", mode)
	}

	orDash := func(s string) string {
		if s == "" {
			return "-"
		}
		return escapeHTML(s)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "⚙️ <b>Settings</b> (%s)\n\n", mode)
	fmt.Fprintf(&sb, "Name: %s\n", orDash(u.Name))
	if online {
		fmt.Fprintf(&sb, "Email: %s\n", orDash(u.Email))
	}
	fmt.Fprintf(&sb, "Job: %s\n", orDash(u.JobType))
	fmt.Fprintf(&sb, "Language: %s\n", orDash(u.Language))
	fmt.Fprintf(&sb, "AI tone: %s\n\n", orDash(u.AITone))
	fmt.Fprintf(&sb, "<b>Monthly budget</b>\n")
	fmt.Fprintf(&sb, "Income: %s\n", b.money(u.AvgIncome))
	fmt.Fprintf(&sb, "Savings target: %s\n", b.money(u.SavingsTarget))
	for _, category := range appmodels.EstimateCategories {
		fmt.Fprintf(&sb, "%s: %s\n", category, b.money(u.Expenses.Get(category)))
	}
	return strings.TrimRight(sb.String(), "\n")
}
