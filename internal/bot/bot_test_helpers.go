package bot

import (
	"context"
	"testing"
	"time"

	"github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"gitlab.com/yelinaung/spennies-bot/internal/bot/mocks"
	"gitlab.com/yelinaung/spennies-bot/internal/config"
	"gitlab.com/yelinaung/spennies-bot/internal/localstore"
	"gitlab.com/yelinaung/spennies-bot/internal/refresh"
	"gitlab.com/yelinaung/spennies-bot/internal/session"
)

// testNow is the fixed clock of handler tests: mid-month, mid-afternoon.
var testNow = time.Date(2026, 10, 15, 14, 30, 0, 0, time.UTC)

// testBot bundles a Bot without a Telegram connection and its fakes.
type testBot struct {
	*Bot
	api   *mocks.MockBot
	store *localstore.Memory
}

// newTestBot creates an offline Bot backed by an in-memory store.
//
//nolint:unused // Used in test files
func newTestBot(t *testing.T) *testBot {
	t.Helper()

	store := localstore.NewMemory()
	bus := refresh.New()
	now := func() time.Time { return testNow }

	cfg := &config.Config{
		TelegramBotToken: "test-token",
		CurrencySymbol:   "₹",
		ReminderHour:     9,
		ReminderTimezone: "UTC",
	}

	sessions := session.NewManager(session.Config{
		Store: store,
		Bus:   bus,
		Now:   now,
	})

	b := newBot(cfg, Deps{
		Sessions: sessions,
		Bus:      bus,
		Store:    store,
		Now:      now,
	})
	api := mocks.NewMockBot()
	b.api = api
	b.subscribe()

	t.Cleanup(func() {
		for _, unsub := range b.unsubscribe {
			unsub()
		}
		bus.Wait()
	})

	return &testBot{Bot: b, api: api, store: store}
}

// send runs a core handler against the test bot's mock API and waits for
// refresh subscribers to settle.
//
//nolint:unused // Used in test files
func (tb *testBot) send(t *testing.T, core coreHandler, userID int64, text string) {
	t.Helper()
	core(context.Background(), tb.api, mocks.MessageUpdate(userID, userID, text))
	tb.bus.Wait()
}

// lastText returns the text of the most recent message sent.
//
//nolint:unused // Used in test files
func (tb *testBot) lastText(t *testing.T) string {
	t.Helper()
	msg := tb.api.LastSentMessage()
	require.NotNil(t, msg, "expected a message to be sent")
	return msg.Text
}

// callbackUpdate builds a button press on messageID in the user's private chat.
//
//nolint:unused // Used in test files
func callbackUpdate(userID int64, messageID int, data string) *models.Update {
	return mocks.CallbackQueryUpdate(userID, userID, messageID, data)
}

// mustParseDecimal parses a decimal string or panics (for test data).
//
//nolint:unused // Used in test files
func mustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic("invalid decimal in test: " + s)
	}
	return d
}
