package summary

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/spennies-bot/internal/models"
	"pgregory.net/rapid"
)

var testNow = time.Date(2026, 6, 10, 15, 0, 0, 0, time.UTC)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func tx(id string, typ models.TransactionType, amount int64, date time.Time) models.Transaction {
	return models.Transaction{ID: id, Type: typ, Amount: d(amount), Date: date}
}

// genTransaction draws a transaction dated within a few months of testNow.
func genTransaction() *rapid.Generator[models.Transaction] {
	return rapid.Custom(func(t *rapid.T) models.Transaction {
		offset := rapid.IntRange(-70, 30).Draw(t, "day_offset")
		date := testNow.AddDate(0, 0, offset)
		if rapid.IntRange(0, 9).Draw(t, "undated") == 0 {
			date = time.Time{}
		}
		return models.Transaction{
			ID:     rapid.StringMatching(`[a-f0-9]{1,6}`).Draw(t, "id"),
			Amount: decimal.New(rapid.Int64Range(0, 10_000_000).Draw(t, "cents"), -2),
			Type: rapid.SampledFrom([]models.TransactionType{
				"income", "expense", "INCOME", "Expense", "transfer", "",
			}).Draw(t, "type"),
			Date:      date,
			CreatedAt: testNow.Add(time.Duration(rapid.IntRange(-500, 500).Draw(t, "created_min")) * time.Minute),
		}
	})
}

func TestSplit(t *testing.T) {
	t.Parallel()

	txs := []models.Transaction{
		tx("1", "income", 1000, testNow),
		tx("2", "INCOME", 500, testNow),
		tx("3", "expense", 300, testNow),
		tx("4", "Expense", 200, testNow),
		tx("5", "refund", 999, testNow),
	}

	got := Split(txs)
	require.True(t, got.Income.Equal(d(1500)))
	require.True(t, got.Expense.Equal(d(500)))
	require.True(t, got.Net().Equal(d(1000)))
}

func TestBucketing(t *testing.T) {
	t.Parallel()

	txs := []models.Transaction{
		tx("today", "expense", 10, time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)),
		tx("earlier", "expense", 20, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)),
		tx("last-month", "expense", 40, time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC)),
		tx("last-year", "expense", 80, time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)),
		tx("undated", "expense", 160, time.Time{}),
	}

	require.Len(t, Today(txs, testNow), 1)
	require.Len(t, ThisMonth(txs, testNow), 2)

	s := Summarize(txs, d(0), testNow)
	require.True(t, s.Today.Expense.Equal(d(10)))
	require.True(t, s.Month.Expense.Equal(d(30)))
	require.True(t, s.Target.Equal(DefaultSavingsTarget))
	require.True(t, s.Savings().Equal(d(-30)))
	require.True(t, s.Progress.IsZero())
}

func TestMonthlySavingsIdentity(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		txs := rapid.SliceOf(genTransaction()).Draw(t, "txs")
		month := Split(ThisMonth(txs, testNow))
		savings := MonthlySavings(txs, testNow)
		if !month.Income.Sub(month.Expense).Equal(savings) {
			t.Fatalf("income %s - expense %s != savings %s", month.Income, month.Expense, savings)
		}

		reversed := make([]models.Transaction, len(txs))
		for i, v := range txs {
			reversed[len(txs)-1-i] = v
		}
		if !MonthlySavings(reversed, testNow).Equal(savings) {
			t.Fatalf("savings depends on order")
		}
	})
}

func TestProgressClamped(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		savings := d(rapid.Int64Range(-1_000_000, 1_000_000).Draw(t, "savings"))
		target := d(rapid.Int64Range(-10_000, 100_000).Draw(t, "target"))
		p := Progress(savings, target)
		if p.IsNegative() || p.GreaterThan(hundred) {
			t.Fatalf("progress %s out of range for savings %s target %s", p, savings, target)
		}
	})

	require.True(t, Progress(d(2500), d(5000)).Equal(d(50)))
	require.True(t, Progress(d(9000), d(5000)).Equal(d(100)))
	require.True(t, Progress(d(-100), d(5000)).IsZero())
	require.True(t, Progress(d(2500), d(0)).Equal(d(50)), "zero target falls back to default")
}

func TestExtraFunds(t *testing.T) {
	t.Parallel()

	require.True(t, ExtraFunds(d(7000), d(5000)).Equal(d(2000)))
	require.True(t, ExtraFunds(d(3000), d(5000)).IsZero())
	require.True(t, ExtraFunds(d(6000), d(-1)).Equal(d(1000)))
}

func TestDaysInMonth(t *testing.T) {
	t.Parallel()

	require.Equal(t, 30, DaysInMonth(testNow))
	require.Equal(t, 29, DaysInMonth(time.Date(2028, 2, 5, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, 31, DaysInMonth(time.Date(2026, 12, 31, 23, 0, 0, 0, time.UTC)))
}
