package bot

import (
	"errors"

	"gitlab.com/yelinaung/spennies-bot/internal/gemini"
	"gitlab.com/yelinaung/spennies-bot/internal/identity"
	"gitlab.com/yelinaung/spennies-bot/internal/ledger"
	"gitlab.com/yelinaung/spennies-bot/internal/models"
	"gitlab.com/yelinaung/spennies-bot/internal/session"
)

// errAuthDisabled is reported when no identity provider is configured.
var errAuthDisabled = identity.ErrNotConfigured

// userMessage maps errors the user can act on to the text shown to them.
func userMessage(err error) (string, bool) {
	var verr *models.ValidationError
	switch {
	case err == nil:
		return "", false
	case errors.As(err, &verr):
		return verr.Message, true
	case errors.Is(err, identity.ErrInvalidCredentials):
		return "Invalid email or password.", true
	case errors.Is(err, identity.ErrEmailExists):
		return "That email is already registered. Use /login instead.", true
	case errors.Is(err, identity.ErrSessionExpired):
		return "Your session expired. Please /login again.", true
	case errors.Is(err, identity.ErrNotConfigured):
		return "Online accounts are not enabled on this bot. Use /guest to track offline.", true
	case errors.Is(err, session.ErrSignedIn):
		return "You are already logged in. Use /logout first.", true
	case errors.Is(err, session.ErrSignedOut):
		return "You are not logged in.", true
	case errors.Is(err, ledger.ErrOffline):
		return "Please /login to use this feature.", true
	case errors.Is(err, ledger.ErrNotFound):
		return "Not found. Check the id with /list or /loans.", true
	case errors.Is(err, gemini.ErrSMSParseTimeout):
		return "Parsing the SMS took too long. Please try again.", true
	case errors.Is(err, gemini.ErrNoSMSData):
		return "Could not find a transaction in that SMS.", true
	}
	return "", false
}
