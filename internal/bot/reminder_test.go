package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCheckAndSendLoanReminders(t *testing.T) {
	t.Parallel()

	// testNow is 14:30, so reminders fire at hour 14.
	todayStr := testNow.Format("2006-01-02")

	t.Run("sends urgent loans once per day", func(t *testing.T) {
		t.Parallel()
		tb := newTestBot(t)
		tb.cfg.ReminderHour = 14
		ctx := context.Background()

		tb.send(t, tb.handleAddLoanCore, 60, "/loan Ramesh | 5000 | 2026-10-17")
		tb.send(t, tb.handleAddLoanCore, 60, "/loan Priya | 900 | 2027-03-01")
		tb.api.Reset()

		reminded := make(map[int64]string)
		tb.checkAndSendLoanReminders(ctx, reminded, testNow)

		require.Equal(t, 1, tb.api.SentMessageCount())
		msg := tb.api.LastSentMessage()
		require.Equal(t, int64(60), msg.ChatID)
		require.Contains(t, msg.Text, "Loan reminder")
		require.Contains(t, msg.Text, "Ramesh")
		require.Contains(t, msg.Text, "2 days left")
		require.NotContains(t, msg.Text, "Priya")
		require.Equal(t, todayStr, reminded[60])

		tb.checkAndSendLoanReminders(ctx, reminded, testNow.Add(10*time.Minute))
		require.Equal(t, 1, tb.api.SentMessageCount())
	})

	t.Run("skips outside the reminder hour", func(t *testing.T) {
		t.Parallel()
		tb := newTestBot(t)
		tb.cfg.ReminderHour = 9

		tb.send(t, tb.handleAddLoanCore, 61, "/loan Ramesh | 5000 | 2026-10-17")
		tb.api.Reset()

		tb.checkAndSendLoanReminders(context.Background(), make(map[int64]string), testNow)
		require.Equal(t, 0, tb.api.SentMessageCount())
	})

	t.Run("skips paid and users without loans", func(t *testing.T) {
		t.Parallel()
		tb := newTestBot(t)
		tb.cfg.ReminderHour = 14

		tb.send(t, tb.handleAddLoanCore, 62, "/loan Ramesh | 5000 | 2026-10-17")
		loan := firstLoan(t, tb, 62)
		tb.send(t, tb.handlePaidCore, 62, "/paid "+shortID(loan.ID))
		tb.send(t, tb.handleFreeTextCore, 63, "100 tea")
		tb.api.Reset()

		tb.checkAndSendLoanReminders(context.Background(), make(map[int64]string), testNow)
		require.Equal(t, 0, tb.api.SentMessageCount())
	})

	t.Run("prunes previous days and retries failed sends", func(t *testing.T) {
		t.Parallel()
		tb := newTestBot(t)
		tb.cfg.ReminderHour = 14

		tb.send(t, tb.handleAddLoanCore, 64, "/loan Ramesh | 5000 | 2026-10-17")
		tb.api.Reset()

		reminded := map[int64]string{64: "2026-10-14", 999: "2026-10-14"}
		tb.api.SendMessageError = errors.New("blocked by user")
		tb.checkAndSendLoanReminders(context.Background(), reminded, testNow)
		require.NotContains(t, reminded, int64(999))
		require.NotContains(t, reminded, int64(64))

		tb.api.SendMessageError = nil
		tb.checkAndSendLoanReminders(context.Background(), reminded, testNow)
		require.Equal(t, 1, tb.api.SentMessageCount())
		require.Equal(t, todayStr, reminded[64])
	})
}

func TestStartLoanReminderLoop_Disabled(t *testing.T) {
	t.Parallel()
	tb := newTestBot(t)
	tb.cfg.LoanReminderEnabled = false

	done := make(chan struct{})
	go func() {
		tb.startLoanReminderLoop(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled loop should return immediately")
	}
}

func TestStartLoanReminderLoop_StopsOnCancel(t *testing.T) {
	t.Parallel()
	tb := newTestBot(t)
	tb.cfg.LoanReminderEnabled = true
	tb.cfg.ReminderHour = 3

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tb.startLoanReminderLoop(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop should stop when the context is cancelled")
	}
}
