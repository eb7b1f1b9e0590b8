package summary

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/spennies-bot/internal/models"
)

var daysPerMonth = decimal.NewFromInt(30)

// dayNumber counts calendar days since the epoch for t's own wall date.
// Differences of day numbers are whole days regardless of zone or DST.
func dayNumber(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}

// AccruedMonths returns the interest period in 30-day months, at least one.
// The period runs from the date taken to the due date; a missing end is
// read as today.
func AccruedMonths(loan models.Loan, now time.Time) decimal.Decimal {
	start, end := dayNumber(now), dayNumber(now)
	if !loan.DateTaken.IsZero() {
		start = dayNumber(loan.DateTaken)
	}
	if !loan.DueDate.IsZero() {
		end = dayNumber(loan.DueDate)
	}
	days := decimal.NewFromInt(end - start)
	return decimal.Max(decimal.NewFromInt(1), days.Div(daysPerMonth))
}

// TotalOwed returns principal plus simple monthly interest. A zero rate owes
// exactly the principal.
func TotalOwed(loan models.Loan, now time.Time) decimal.Decimal {
	if loan.InterestRate.IsZero() {
		return loan.Amount
	}
	interest := loan.Amount.Mul(loan.InterestRate).Mul(AccruedMonths(loan, now)).Div(hundred)
	return loan.Amount.Add(interest)
}

// DaysUntilDue returns calendar days from now's date to the due date. ok is
// false when the loan has no due date; such loans are never urgent.
func DaysUntilDue(loan models.Loan, now time.Time) (days int, ok bool) {
	if loan.DueDate.IsZero() {
		return 0, false
	}
	return int(dayNumber(loan.DueDate) - dayNumber(now)), true
}

// IsUrgent reports whether an unpaid loan is within its reminder lead time or overdue.
func IsUrgent(loan models.Loan, now time.Time) bool {
	if loan.IsPaid {
		return false
	}
	days, ok := DaysUntilDue(loan, now)
	return ok && days <= loan.ReminderDays
}

// DueLabel renders the days-until-due as a short phrase.
func DueLabel(loan models.Loan, now time.Time) string {
	days, ok := DaysUntilDue(loan, now)
	switch {
	case !ok:
		return "No due date"
	case days > 0:
		return fmt.Sprintf("%d days left", days)
	case days == 0:
		return "Due today!"
	default:
		return fmt.Sprintf("%d days overdue", -days)
	}
}

// Outstanding sums the total owed across unpaid loans.
func Outstanding(loans []models.Loan, now time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, loan := range loans {
		if !loan.IsPaid {
			total = total.Add(TotalOwed(loan, now))
		}
	}
	return total
}

// UpcomingReminders returns the unpaid loans that are urgent as of now.
func UpcomingReminders(loans []models.Loan, now time.Time) []models.Loan {
	var out []models.Loan
	for _, loan := range loans {
		if IsUrgent(loan, now) {
			out = append(out, loan)
		}
	}
	return out
}
