package bot

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-analyze/charts"
	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/spennies-bot/internal/summary"
)

var errNothingToChart = errors.New("nothing to chart")

// GenerateForecastChart renders projected savings for each day of the month
// against the savings target. Returns PNG bytes.
func GenerateForecastChart(points []summary.ForecastPoint, target decimal.Decimal, month time.Time) ([]byte, error) {
	if len(points) == 0 {
		return nil, errNothingToChart
	}

	days := make([]string, len(points))
	projected := make([]float64, len(points))
	goal := make([]float64, len(points))
	for i, p := range points {
		days[i] = strconv.Itoa(p.Day)
		projected[i] = p.Projected.InexactFloat64()
		goal[i] = target.InexactFloat64()
	}

	p, err := charts.LineRender(
		[][]float64{projected, goal},
		charts.TitleOptionFunc(charts.TitleOption{
			Text: "Savings Forecast - " + month.Format("January 2006"),
		}),
		charts.XAxisLabelsOptionFunc(days),
		charts.LegendLabelsOptionFunc([]string{"Projected", "Target"}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart: %w", err)
	}
	return render(p)
}

// GenerateWeeklyChart renders income and expense bars for the last seven days.
func GenerateWeeklyChart(flows []summary.DayFlow) ([]byte, error) {
	if len(flows) == 0 {
		return nil, errNothingToChart
	}

	labels := make([]string, len(flows))
	income := make([]float64, len(flows))
	expense := make([]float64, len(flows))
	for i, f := range flows {
		labels[i] = f.Date.Format("Mon")
		income[i] = f.Income.InexactFloat64()
		expense[i] = f.Expense.InexactFloat64()
	}

	p, err := charts.BarRender(
		[][]float64{income, expense},
		charts.TitleOptionFunc(charts.TitleOption{Text: "Last 7 Days"}),
		charts.XAxisLabelsOptionFunc(labels),
		charts.LegendLabelsOptionFunc([]string{"Income", "Expense"}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart: %w", err)
	}
	return render(p)
}

// GenerateCategoryChart renders a pie of expense totals per category.
func GenerateCategoryChart(totals []summary.CategoryTotal, title string) ([]byte, error) {
	values := make([]float64, 0, len(totals))
	names := make([]string, 0, len(totals))
	for _, t := range totals {
		if !t.Total.IsPositive() {
			continue
		}
		values = append(values, t.Total.InexactFloat64())
		names = append(names, t.Category)
	}
	if len(values) == 0 {
		return nil, errNothingToChart
	}

	p, err := charts.PieRender(
		values,
		charts.TitleOptionFunc(charts.TitleOption{Text: title}),
		charts.LegendLabelsOptionFunc(names),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart: %w", err)
	}
	return render(p)
}

func render(p *charts.Painter) ([]byte, error) {
	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return buf, nil
}

// chartFilename names an upload like "forecast_2026-10.png".
func chartFilename(kind string, now time.Time) string {
	if kind == "forecast" {
		return fmt.Sprintf("%s_%s.png", kind, now.Format("2006-01"))
	}
	return fmt.Sprintf("%s_%s.png", kind, now.Format("2006-01-02"))
}
