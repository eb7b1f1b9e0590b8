// Package summary derives the on-screen financial metrics from transactions,
// the user profile and loans. Every function is pure; "now" is always passed in.
package summary

import (
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/spennies-bot/internal/models"
)

// DefaultSavingsTarget applies when the stored target is zero or negative.
var DefaultSavingsTarget = decimal.NewFromInt(5000)

var hundred = decimal.NewFromInt(100)

// Totals is an income/expense pair over some window.
type Totals struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// Net returns income minus expense.
func (t Totals) Net() decimal.Decimal {
	return t.Income.Sub(t.Expense)
}

// Split sums income and expense amounts. Type matching ignores case; other
// types are not counted.
func Split(txs []models.Transaction) Totals {
	var t Totals
	for _, tx := range txs {
		switch {
		case tx.IsIncome():
			t.Income = t.Income.Add(tx.Amount)
		case tx.IsExpense():
			t.Expense = t.Expense.Add(tx.Amount)
		}
	}
	return t
}

// sameDay compares calendar dates by wall clock, so a date-only record
// matches the viewer's local day regardless of zone.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// Today returns transactions dated on now's calendar day. Undated ones are excluded.
func Today(txs []models.Transaction, now time.Time) []models.Transaction {
	var out []models.Transaction
	for _, tx := range txs {
		if !tx.Date.IsZero() && sameDay(tx.Date, now) {
			out = append(out, tx)
		}
	}
	return out
}

// ThisMonth returns transactions dated in now's calendar month.
func ThisMonth(txs []models.Transaction, now time.Time) []models.Transaction {
	var out []models.Transaction
	for _, tx := range txs {
		if !tx.Date.IsZero() && sameMonth(tx.Date, now) {
			out = append(out, tx)
		}
	}
	return out
}

// Summary holds the dashboard's headline numbers.
type Summary struct {
	Today    Totals
	Month    Totals
	Target   decimal.Decimal
	Progress decimal.Decimal
	Extra    decimal.Decimal
}

// Savings returns monthly income minus monthly expense.
func (s Summary) Savings() decimal.Decimal {
	return s.Month.Net()
}

// Summarize buckets transactions into today and this month and derives progress.
func Summarize(txs []models.Transaction, savingsTarget decimal.Decimal, now time.Time) Summary {
	month := Split(ThisMonth(txs, now))
	target := EffectiveTarget(savingsTarget)
	return Summary{
		Today:    Split(Today(txs, now)),
		Month:    month,
		Target:   target,
		Progress: Progress(month.Net(), target),
		Extra:    ExtraFunds(month.Net(), target),
	}
}

// MonthlySavings returns this month's income minus expense.
func MonthlySavings(txs []models.Transaction, now time.Time) decimal.Decimal {
	return Split(ThisMonth(txs, now)).Net()
}

// EffectiveTarget substitutes the default for non-positive targets.
func EffectiveTarget(target decimal.Decimal) decimal.Decimal {
	if !target.IsPositive() {
		return DefaultSavingsTarget
	}
	return target
}

// Progress returns savings as a percentage of the target, clamped to [0, 100].
func Progress(savings, target decimal.Decimal) decimal.Decimal {
	pct := savings.Div(EffectiveTarget(target)).Mul(hundred)
	return clamp(pct, decimal.Zero, hundred)
}

// ExtraFunds returns savings beyond the target, never negative.
func ExtraFunds(savings, target decimal.Decimal) decimal.Decimal {
	return decimal.Max(decimal.Zero, savings.Sub(EffectiveTarget(target)))
}

// DaysInMonth returns the number of days in now's month.
func DaysInMonth(now time.Time) int {
	return time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	return decimal.Min(hi, decimal.Max(lo, v))
}
