//go:build ignore
// +build ignore

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/spennies-bot/internal/bot"
	"gitlab.com/yelinaung/spennies-bot/internal/summary"
)

func main() {
	now := time.Date(2026, 1, 12, 10, 0, 0, 0, time.UTC)

	forecast, err := bot.GenerateForecastChart(
		summary.ForecastFor(decimal.NewFromInt(4200), now),
		decimal.NewFromInt(10000),
		now,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	categories, err := bot.GenerateCategoryChart([]summary.CategoryTotal{
		{Category: "Food", Total: decimal.NewFromFloat(6150.50)},
		{Category: "Bills", Total: decimal.NewFromInt(3200)},
		{Category: "Transport", Total: decimal.NewFromInt(1480)},
		{Category: "Other", Total: decimal.NewFromInt(900)},
	}, "Spending - January 2026")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	for name, data := range map[string][]byte{"forecast.png": forecast, "categories.png": categories} {
		if err := os.WriteFile(name, data, 0600); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("✓ Created %s\n", name)
	}
}
