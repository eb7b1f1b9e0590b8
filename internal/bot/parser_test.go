package bot

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"gitlab.com/yelinaung/spennies-bot/internal/models"
)

func TestParseEntryInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		amount   string
		desc     string
		category string
	}{
		{name: "amount and description", input: "250 lunch", amount: "250", desc: "lunch"},
		{name: "amount only", input: "99", amount: "99"},
		{name: "decimal amount", input: "99.50 coffee", amount: "99.5", desc: "coffee"},
		{name: "grouped digits", input: "1,200 rent", amount: "1200", desc: "rent"},
		{name: "rupee symbol", input: "₹40 auto", amount: "40", desc: "auto"},
		{name: "rs prefix", input: "Rs. 40 auto", amount: "40", desc: "auto"},
		{name: "category tag", input: "1200 electricity #bills", amount: "1200", desc: "electricity", category: "Bills"},
		{name: "tag without description", input: "500 #transport", amount: "500", category: "Transport"},
		{name: "surrounding whitespace", input: "  75   tea  ", amount: "75", desc: "tea"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ParseEntryInput(tt.input)
			require.NotNil(t, got)
			require.True(t, mustParseDecimal(tt.amount).Equal(got.Amount), "amount %s", got.Amount)
			require.Equal(t, tt.desc, got.Description)
			require.Equal(t, tt.category, got.Category)
		})
	}

	t.Run("rejects non-entries", func(t *testing.T) {
		t.Parallel()
		for _, input := range []string{
			"",
			"   ",
			"lunch 250",
			"how much did I spend?",
			"0 nothing",
			"2026-12-31 due",
			"12abc",
		} {
			require.Nil(t, ParseEntryInput(input), "input %q", input)
		}
	})
}

func TestParseEntryInput_Property(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		whole := rapid.Int64Range(1, 10_000_000).Draw(t, "whole")
		cents := rapid.IntRange(0, 99).Draw(t, "cents")
		desc := rapid.StringMatching(`[a-z]{1,12}( [a-z]{1,12}){0,2}`).Draw(t, "desc")

		amount := decimal.New(whole*100+int64(cents), -2)
		got := ParseEntryInput(fmt.Sprintf("%s %s", amount.StringFixed(2), desc))
		if got == nil {
			t.Fatalf("expected an entry for %s %s", amount.StringFixed(2), desc)
		}
		if !got.Amount.Equal(amount) {
			t.Fatalf("amount = %s, want %s", got.Amount, amount)
		}
		if got.Description != desc {
			t.Fatalf("description = %q, want %q", got.Description, desc)
		}
	})
}

func TestParseLoanArgs(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 15, 18, 0, 0, 0, time.UTC)

	t.Run("required fields only", func(t *testing.T) {
		t.Parallel()
		loan, err := ParseLoanArgs("Ramesh | 5,000 | 2026-12-31", now)
		require.NoError(t, err)
		require.Equal(t, "Ramesh", loan.LenderName)
		require.True(t, decimal.NewFromInt(5000).Equal(loan.Amount))
		require.Equal(t, time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC), loan.DueDate)
		require.Equal(t, time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC), loan.DateTaken)
		require.Equal(t, models.DefaultReminderDays, loan.ReminderDays)
		require.True(t, loan.InterestRate.IsZero())
		require.Empty(t, loan.Purpose)
	})

	t.Run("all fields", func(t *testing.T) {
		t.Parallel()
		loan, err := ParseLoanArgs("Priya | 12000 | 2027-01-15 | 2% | 7 | laptop | repair", now)
		require.NoError(t, err)
		require.True(t, decimal.NewFromInt(2).Equal(loan.InterestRate))
		require.Equal(t, 7, loan.ReminderDays)
		require.Equal(t, "laptop | repair", loan.Purpose)
	})

	t.Run("errors", func(t *testing.T) {
		t.Parallel()
		for _, args := range []string{
			"",
			"Ramesh | 5000",
			" | 5000 | 2026-12-31",
			"Ramesh | lots | 2026-12-31",
			"Ramesh | -5 | 2026-12-31",
			"Ramesh | 5000 | 31/12/2026",
			"Ramesh | 5000 | 2026-12-31 | x",
			"Ramesh | 5000 | 2026-12-31 | 2 | 1.5",
		} {
			_, err := ParseLoanArgs(args, now)
			require.Error(t, err, "args %q", args)
		}
	})

	t.Run("usage error", func(t *testing.T) {
		t.Parallel()
		_, err := ParseLoanArgs("", now)
		require.ErrorIs(t, err, errLoanUsage)
	})
}

func TestParseBudgetArgs(t *testing.T) {
	t.Parallel()

	t.Run("six numbers", func(t *testing.T) {
		t.Parallel()
		budget, err := ParseBudgetArgs("50,000 10000 8000 2000 3000 1000")
		require.NoError(t, err)
		require.True(t, decimal.NewFromInt(50000).Equal(budget.Income))
		require.True(t, decimal.NewFromInt(10000).Equal(budget.SavingsTarget))
		require.True(t, decimal.NewFromInt(8000).Equal(budget.Expenses.Food))
		require.True(t, decimal.NewFromInt(2000).Equal(budget.Expenses.Transport))
		require.True(t, decimal.NewFromInt(3000).Equal(budget.Expenses.Bills))
		require.True(t, decimal.NewFromInt(1000).Equal(budget.Expenses.Other))
	})

	t.Run("wrong field count", func(t *testing.T) {
		t.Parallel()
		_, err := ParseBudgetArgs("50000 10000")
		require.ErrorIs(t, err, errBudgetUsage)
	})

	t.Run("not a number names the field", func(t *testing.T) {
		t.Parallel()
		_, err := ParseBudgetArgs("50000 10000 lots 0 0 0")
		require.ErrorContains(t, err, "Food")
	})
}

func TestParseRegisterArgs(t *testing.T) {
	t.Parallel()

	t.Run("minimal", func(t *testing.T) {
		t.Parallel()
		reg, err := ParseRegisterArgs("asha@example.com | secret1 | Asha | 60000 | 15000")
		require.NoError(t, err)
		require.Equal(t, "asha@example.com", reg.Email)
		require.Equal(t, "secret1", reg.Password)
		require.Equal(t, "Asha", reg.Profile.Name)
		require.True(t, decimal.NewFromInt(60000).Equal(reg.Profile.AvgIncome))
		require.True(t, decimal.NewFromInt(15000).Equal(reg.Profile.SavingsTarget))
	})

	t.Run("optional profile fields", func(t *testing.T) {
		t.Parallel()
		reg, err := ParseRegisterArgs("a@b.co | pw1234 | A | 1 | 1 | student | hi | friendly")
		require.NoError(t, err)
		require.Equal(t, "student", reg.Profile.JobType)
		require.Equal(t, "hi", reg.Profile.Language)
		require.Equal(t, "friendly", reg.Profile.AITone)
	})

	t.Run("too few fields", func(t *testing.T) {
		t.Parallel()
		_, err := ParseRegisterArgs("a@b.co | pw")
		require.ErrorIs(t, err, errRegisterUsage)
	})

	t.Run("bad income", func(t *testing.T) {
		t.Parallel()
		_, err := ParseRegisterArgs("a@b.co | pw1234 | A | many | 1")
		require.ErrorContains(t, err, "income")
	})
}

func TestParseGuestArgs(t *testing.T) {
	t.Parallel()

	t.Run("name only", func(t *testing.T) {
		t.Parallel()
		u, err := ParseGuestArgs("Ravi")
		require.NoError(t, err)
		require.Equal(t, "Ravi", u.Name)
		require.True(t, u.AvgIncome.IsZero())
	})

	t.Run("full", func(t *testing.T) {
		t.Parallel()
		u, err := ParseGuestArgs("Ravi | 30000 | 5000 | Freelancer")
		require.NoError(t, err)
		require.True(t, decimal.NewFromInt(30000).Equal(u.AvgIncome))
		require.True(t, decimal.NewFromInt(5000).Equal(u.SavingsTarget))
		require.Equal(t, "freelancer", u.JobType)
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		_, err := ParseGuestArgs("  ")
		require.ErrorIs(t, err, errGuestUsage)
	})
}
