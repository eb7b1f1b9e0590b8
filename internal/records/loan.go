package records

import (
	"encoding/json"

	"gitlab.com/yelinaung/spennies-bot/internal/models"
)

// DecodeLoan normalizes one loan record, reading either field spelling.
func DecodeLoan(raw Raw) models.Loan {
	reminder := models.DefaultReminderDays
	if has(raw, "reminderDays", "reminder_days") {
		reminder = Int(pick(raw, "reminderDays", "reminder_days"))
	}

	return models.Loan{
		ID:           Text(raw["id"]),
		LenderName:   Text(pick(raw, "lenderName", "lender_name")),
		Amount:       Number(raw["amount"]),
		Purpose:      Text(raw["purpose"]),
		DateTaken:    Date(pick(raw, "dateTaken", "date_taken")),
		DueDate:      Date(pick(raw, "dueDate", "due_date")),
		InterestRate: Number(pick(raw, "interestRate", "interest_rate")),
		ReminderDays: reminder,
		IsPaid:       anyFlag(raw, "isPaid", "is_paid"),
		PaidDate:     Date(pick(raw, "paidDate", "paid_date")),
		CreatedAt:    Date(pick(raw, "createdAt", "created_at")),
	}
}

// DecodeLoans normalizes a list of loan records.
func DecodeLoans(list []Raw) []models.Loan {
	loans := make([]models.Loan, 0, len(list))
	for _, raw := range list {
		loans = append(loans, DecodeLoan(raw))
	}
	return loans
}

// EncodeLoan emits both field spellings so either reader convention can consume it.
func EncodeLoan(loan models.Loan) Raw {
	rate := json.Number(loan.InterestRate.String())
	raw := Raw{
		"amount":        json.Number(loan.Amount.String()),
		"purpose":       loan.Purpose,
		"lenderName":    loan.LenderName,
		"lender_name":   loan.LenderName,
		"dateTaken":     formatDate(loan.DateTaken),
		"date_taken":    formatDate(loan.DateTaken),
		"dueDate":       formatDate(loan.DueDate),
		"due_date":      formatDate(loan.DueDate),
		"interestRate":  rate,
		"interest_rate": rate,
		"reminderDays":  loan.ReminderDays,
		"reminder_days": loan.ReminderDays,
		"isPaid":        loan.IsPaid,
		"is_paid":       loan.IsPaid,
		"paidDate":      formatDate(loan.PaidDate),
		"paid_date":     formatDate(loan.PaidDate),
	}
	if loan.ID != "" {
		raw["id"] = loan.ID
	}
	if !loan.CreatedAt.IsZero() {
		raw["created_at"] = formatTime(loan.CreatedAt)
	}
	return raw
}

// EncodeLoans encodes a list of loans.
func EncodeLoans(loans []models.Loan) []Raw {
	list := make([]Raw, 0, len(loans))
	for _, loan := range loans {
		list = append(list, EncodeLoan(loan))
	}
	return list
}
