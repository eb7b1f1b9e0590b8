package summary

import (
	"cmp"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/spennies-bot/internal/models"
)

// compareForDisplay orders newest first: date, then creation time, then id.
func compareForDisplay(a, b models.Transaction) int {
	if c := b.Date.Compare(a.Date); c != 0 {
		return c
	}
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(b.ID, a.ID)
}

// SortTransactions returns a copy sorted for display.
func SortTransactions(txs []models.Transaction) []models.Transaction {
	sorted := slices.Clone(txs)
	slices.SortStableFunc(sorted, compareForDisplay)
	return sorted
}

// Recent returns the n most recent transactions in display order.
func Recent(txs []models.Transaction, n int) []models.Transaction {
	sorted := SortTransactions(txs)
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// Visible drops soft-deleted transactions.
func Visible(txs []models.Transaction) []models.Transaction {
	out := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if !tx.IsDeleted {
			out = append(out, tx)
		}
	}
	return out
}

// DayFlow is one day's income and expense.
type DayFlow struct {
	Date time.Time
	Totals
}

// wallDate returns midnight of t's calendar date in loc.
func wallDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// WeeklyFlow returns income and expense for each of the last seven days,
// oldest first, ending today.
func WeeklyFlow(txs []models.Transaction, now time.Time) []DayFlow {
	flows := make([]DayFlow, 7)
	for i := range flows {
		d := now.AddDate(0, 0, i-6)
		flows[i] = DayFlow{Date: wallDate(d, now.Location())}
		var daily []models.Transaction
		for _, tx := range txs {
			if !tx.Date.IsZero() && sameDay(tx.Date, d) {
				daily = append(daily, tx)
			}
		}
		flows[i].Totals = Split(daily)
	}
	return flows
}

// CategoryTotal is the expense total for one category.
type CategoryTotal struct {
	Category string
	Total    decimal.Decimal
}

// ByCategory totals expenses per category, largest first. Missing categories
// count as "Other".
func ByCategory(txs []models.Transaction) []CategoryTotal {
	totals := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		if !tx.IsExpense() {
			continue
		}
		category := tx.Category
		if category == "" {
			category = models.DefaultCategory
		}
		totals[category] = totals[category].Add(tx.Amount)
	}

	out := make([]CategoryTotal, 0, len(totals))
	for category, total := range totals {
		out = append(out, CategoryTotal{Category: category, Total: total})
	}
	slices.SortFunc(out, func(a, b CategoryTotal) int {
		if c := b.Total.Cmp(a.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})
	return out
}
