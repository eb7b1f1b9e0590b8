package bot

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/spennies-bot/internal/ledger"
	"gitlab.com/yelinaung/spennies-bot/internal/models"
	"gitlab.com/yelinaung/spennies-bot/internal/records"
)

// ParsedEntry is a transaction typed as "<amount> <description> [#category]".
type ParsedEntry struct {
	Amount      decimal.Decimal
	Description string
	Category    string
}

// amountRegex matches "250", "1,200", "₹99.50" or "Rs. 40" followed by a space or the end.
var amountRegex = regexp.MustCompile(`^(?i:₹|rs\.?)?\s*(\d[\d,]*(?:\.\d{1,2})?)(?:\s|$)`)

// categoryTagRegex matches a trailing "#Category" token.
var categoryTagRegex = regexp.MustCompile(`\s*#(\w[\w-]*)$`)

// ParseEntryInput parses free-text input like "250 lunch" or "1,200 rent #Bills".
// Returns nil if the input does not start with a positive amount.
func ParseEntryInput(input string) *ParsedEntry {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil
	}

	m := amountRegex.FindStringSubmatchIndex(input)
	if m == nil {
		return nil
	}

	raw := strings.ReplaceAll(input[m[2]:m[3]], ",", "")
	amount, err := decimal.NewFromString(raw)
	if err != nil || !amount.IsPositive() {
		return nil
	}

	entry := &ParsedEntry{Amount: amount}
	rest := strings.TrimSpace(input[m[3]:])
	if tag := categoryTagRegex.FindStringSubmatch(rest); tag != nil {
		entry.Category = titleCase(tag[1])
		rest = strings.TrimSpace(rest[:len(rest)-len(tag[0])])
	}
	entry.Description = rest
	return entry
}

// splitPipe splits "a | b | c" into trimmed fields.
func splitPipe(args string) []string {
	if strings.TrimSpace(args) == "" {
		return nil
	}
	parts := strings.Split(args, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// parseAmountField parses a non-negative number, allowing digit grouping.
func parseAmountField(name, s string) (decimal.Decimal, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "₹")
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be a number, got %q", name, s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s cannot be negative", name)
	}
	return d, nil
}

var errLoanUsage = errors.New("usage: /loan <lender> | <amount> | <due YYYY-MM-DD> [| rate %] [| reminder days] [| purpose]")

// ParseLoanArgs parses "/loan" arguments into a loan taken today.
func ParseLoanArgs(args string, now time.Time) (models.Loan, error) {
	parts := splitPipe(args)
	if len(parts) < 3 || parts[0] == "" {
		return models.Loan{}, errLoanUsage
	}

	amount, err := parseAmountField("amount", parts[1])
	if err != nil {
		return models.Loan{}, err
	}

	due, err := time.Parse(records.DateLayout, parts[2])
	if err != nil {
		return models.Loan{}, fmt.Errorf("due date must look like 2026-07-31, got %q", parts[2])
	}

	loan := models.Loan{
		LenderName:   parts[0],
		Amount:       amount,
		DateTaken:    time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		DueDate:      due,
		ReminderDays: models.DefaultReminderDays,
	}

	if len(parts) > 3 && parts[3] != "" {
		rate, err := parseAmountField("rate", strings.TrimSuffix(parts[3], "%"))
		if err != nil {
			return models.Loan{}, err
		}
		loan.InterestRate = rate
	}
	if len(parts) > 4 && parts[4] != "" {
		days, err := parseAmountField("reminder days", parts[4])
		if err != nil || !days.IsInteger() {
			return models.Loan{}, fmt.Errorf("reminder days must be a whole number, got %q", parts[4])
		}
		loan.ReminderDays = int(days.IntPart())
	}
	if len(parts) > 5 {
		loan.Purpose = strings.Join(parts[5:], " | ")
	}
	return loan, nil
}

var errBudgetUsage = errors.New("usage: /budget <income> <savings target> <food> <transport> <bills> <other>")

// ParseBudgetArgs parses the six numbers of /budget.
func ParseBudgetArgs(args string) (ledger.Budget, error) {
	fields := strings.Fields(args)
	if len(fields) != 6 {
		return ledger.Budget{}, errBudgetUsage
	}

	names := append([]string{"income", "savings target"}, models.EstimateCategories...)
	values := make([]decimal.Decimal, len(fields))
	for i, f := range fields {
		// Negative estimates are reported by the budget validator with its own wording.
		d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimPrefix(f, "₹"), ",", ""))
		if err != nil {
			return ledger.Budget{}, fmt.Errorf("%s must be a number, got %q", names[i], f)
		}
		values[i] = d
	}

	budget := ledger.Budget{Income: values[0], SavingsTarget: values[1]}
	for i, category := range models.EstimateCategories {
		budget.Expenses.Set(category, values[2+i])
	}
	return budget, nil
}

var errRegisterUsage = errors.New("usage: /register <email> | <password> | <name> | <income> | <savings target> [| job] [| language] [| tone]")

// ParseRegisterArgs parses /register arguments. Validation is left to the registration itself.
func ParseRegisterArgs(args string) (models.Registration, error) {
	parts := splitPipe(args)
	if len(parts) < 5 {
		return models.Registration{}, errRegisterUsage
	}

	income, err := parseAmountField("income", parts[3])
	if err != nil {
		return models.Registration{}, err
	}
	target, err := parseAmountField("savings target", parts[4])
	if err != nil {
		return models.Registration{}, err
	}

	reg := models.Registration{
		Email:    parts[0],
		Password: parts[1],
		Profile: models.User{
			Name:          parts[2],
			AvgIncome:     income,
			SavingsTarget: target,
		},
	}
	if len(parts) > 5 {
		reg.Profile.JobType = parts[5]
	}
	if len(parts) > 6 {
		reg.Profile.Language = parts[6]
	}
	if len(parts) > 7 {
		reg.Profile.AITone = parts[7]
	}
	return reg, nil
}

var errGuestUsage = errors.New("usage: /guest <name> [| income] [| savings target] [| job]")

// ParseGuestArgs parses /guest arguments into an offline profile.
func ParseGuestArgs(args string) (models.User, error) {
	parts := splitPipe(args)
	if len(parts) == 0 || parts[0] == "" {
		return models.User{}, errGuestUsage
	}

	profile := models.User{Name: parts[0]}
	if len(parts) > 1 && parts[1] != "" {
		income, err := parseAmountField("income", parts[1])
		if err != nil {
			return models.User{}, err
		}
		profile.AvgIncome = income
	}
	if len(parts) > 2 && parts[2] != "" {
		target, err := parseAmountField("savings target", parts[2])
		if err != nil {
			return models.User{}, err
		}
		profile.SavingsTarget = target
	}
	if len(parts) > 3 {
		profile.JobType = strings.ToLower(parts[3])
	}
	return profile, nil
}
