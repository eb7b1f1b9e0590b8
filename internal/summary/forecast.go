package summary

import (
	"time"

	"github.com/shopspring/decimal"
)

// ForecastPoint is the projected cumulative savings at the end of a day.
type ForecastPoint struct {
	Day       int
	Projected decimal.Decimal
	// Actual marks days up to and including the current day.
	Actual bool
}

// Forecast projects savings linearly across the month. Days up to currentDay
// ramp to monthlySavings at the observed daily rate; later days continue at
// that rate. Values are rounded to two places and never negative.
func Forecast(monthlySavings decimal.Decimal, currentDay, daysInMonth int) []ForecastPoint {
	if daysInMonth <= 0 {
		return nil
	}
	currentDay = max(1, min(currentDay, daysInMonth))
	rate := DailyRate(monthlySavings, currentDay)

	points := make([]ForecastPoint, 0, daysInMonth)
	for day := 1; day <= daysInMonth; day++ {
		var v decimal.Decimal
		if day <= currentDay {
			v = rate.Mul(decimal.NewFromInt(int64(day)))
		} else {
			v = monthlySavings.Add(rate.Mul(decimal.NewFromInt(int64(day - currentDay))))
		}
		points = append(points, ForecastPoint{
			Day:       day,
			Projected: decimal.Max(decimal.Zero, v).Round(2),
			Actual:    day <= currentDay,
		})
	}
	return points
}

// DailyRate returns savings per elapsed day.
func DailyRate(monthlySavings decimal.Decimal, currentDay int) decimal.Decimal {
	return monthlySavings.Div(decimal.NewFromInt(int64(max(1, currentDay))))
}

// ForecastFor is Forecast anchored at now's day of month.
func ForecastFor(monthlySavings decimal.Decimal, now time.Time) []ForecastPoint {
	return Forecast(monthlySavings, now.Day(), DaysInMonth(now))
}

// ProjectedMonthEnd returns the last forecast value, or zero for an empty forecast.
func ProjectedMonthEnd(points []ForecastPoint) decimal.Decimal {
	if len(points) == 0 {
		return decimal.Zero
	}
	return points[len(points)-1].Projected
}
