package summary

import (
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/spennies-bot/internal/models"
)

// Outcome names the safe-to-spend state for today.
type Outcome int

// Buffer outcomes.
const (
	// Surplus means today's net exceeds the daily share of the target.
	Surplus Outcome = iota
	// Behind means today's net falls short of the daily share.
	Behind
	// Exact means today's net equals the daily share.
	Exact
	// TargetMet means the whole monthly target is already saved.
	TargetMet
)

func (o Outcome) String() string {
	switch o {
	case Surplus:
		return "surplus"
	case Behind:
		return "behind"
	case Exact:
		return "exact"
	case TargetMet:
		return "target_met"
	}
	return "unknown"
}

// Buffer is the "safe to spend today" view of the savings plan.
type Buffer struct {
	Outcome     Outcome
	Target      decimal.Decimal
	DailyTarget decimal.Decimal
	NetToday    decimal.Decimal
	// Surplus is NetToday minus DailyTarget; negative when behind.
	Surplus    decimal.Decimal
	MonthlyNet decimal.Decimal
	// ExtraMonthly is MonthlyNet minus Target, unclamped.
	ExtraMonthly decimal.Decimal
	// Progress is today's net as a percentage of the daily target, in [0, 100].
	Progress     decimal.Decimal
	ShowProgress bool
}

// Extra returns the extra-beyond-target amount, never negative.
func (b Buffer) Extra() decimal.Decimal {
	return decimal.Max(decimal.Zero, b.ExtraMonthly)
}

// DailyBuffer computes today's buffer against the pro-rated savings target.
// Once the monthly target is met the outcome is TargetMet and the daily
// progress bar is suppressed.
func DailyBuffer(txs []models.Transaction, savingsTarget decimal.Decimal, now time.Time) Buffer {
	target := EffectiveTarget(savingsTarget)
	daily := target.Div(decimal.NewFromInt(int64(DaysInMonth(now))))
	netToday := Split(Today(txs, now)).Net()
	monthlyNet := MonthlySavings(txs, now)

	b := Buffer{
		Target:       target,
		DailyTarget:  daily,
		NetToday:     netToday,
		Surplus:      netToday.Sub(daily),
		MonthlyNet:   monthlyNet,
		ExtraMonthly: monthlyNet.Sub(target),
		Progress:     clamp(netToday.Div(daily).Mul(hundred), decimal.Zero, hundred),
		ShowProgress: true,
	}

	switch {
	case monthlyNet.GreaterThanOrEqual(target):
		b.Outcome = TargetMet
		b.ShowProgress = false
	case b.Surplus.IsPositive():
		b.Outcome = Surplus
	case b.Surplus.IsNegative():
		b.Outcome = Behind
	default:
		b.Outcome = Exact
	}

	return b
}
