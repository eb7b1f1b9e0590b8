package models

import (
	"fmt"
	"net/mail"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// ValidationError is a user-facing input problem detected before submission.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// Allowed profile options.
var (
	JobTypes  = []string{"freelancer", "driver", "vendor", "student", "housewife", "other"}
	Languages = []string{"en", "hi", "mr"}
	AITones   = []string{"friendly", "motivational", "professional"}
)

// MinPasswordLength is the identity provider's minimum password length.
const MinPasswordLength = 6

// ValidateBudget checks income, per-category estimates and the savings target.
func ValidateBudget(income, savingsTarget decimal.Decimal, expenses Estimates) error {
	if !income.IsPositive() {
		return invalid("Please enter a valid positive average monthly income.")
	}

	for _, category := range EstimateCategories {
		if expenses.Get(category).IsNegative() {
			return invalid("%s cannot be negative.", category)
		}
	}

	if savingsTarget.IsNegative() {
		return invalid("Savings target cannot be negative.")
	}

	if savingsTarget.GreaterThanOrEqual(income) {
		return invalid("Savings target cannot exceed monthly income (%s).", income.StringFixed(0))
	}

	return nil
}

// Registration carries everything needed to create an account.
type Registration struct {
	Email    string
	Password string
	Profile  User
}

// Normalize fills option defaults and trims free text.
func (r *Registration) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
	r.Profile.Email = r.Email
	r.Profile.Name = strings.TrimSpace(r.Profile.Name)
	r.Profile.JobType = strings.ToLower(strings.TrimSpace(r.Profile.JobType))
	if r.Profile.JobType == "" {
		r.Profile.JobType = "other"
	}
	r.Profile.Language = strings.ToLower(strings.TrimSpace(r.Profile.Language))
	if r.Profile.Language == "" {
		r.Profile.Language = "en"
	}
	r.Profile.AITone = strings.ToLower(strings.TrimSpace(r.Profile.AITone))
	if r.Profile.AITone == "" {
		r.Profile.AITone = "friendly"
	}
}

// Validate checks credentials, profile options and the budget.
func (r *Registration) Validate() error {
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return invalid("Please enter a valid email address.")
	}
	if len(r.Password) < MinPasswordLength {
		return invalid("Password must be at least %d characters.", MinPasswordLength)
	}
	if r.Profile.Name == "" {
		return invalid("Please enter your name.")
	}
	if err := ValidateProfileOptions(r.Profile); err != nil {
		return err
	}
	return ValidateBudget(r.Profile.AvgIncome, r.Profile.SavingsTarget, r.Profile.Expenses)
}

// ValidateProfileOptions checks job type, language and AI tone against the allowed sets.
// Custom job types are accepted as free text.
func ValidateProfileOptions(u User) error {
	if u.Language != "" && !slices.Contains(Languages, u.Language) {
		return invalid("Unsupported language %q. Use one of: %s.", u.Language, strings.Join(Languages, ", "))
	}
	if u.AITone != "" && !slices.Contains(AITones, u.AITone) {
		return invalid("Unsupported AI tone %q. Use one of: %s.", u.AITone, strings.Join(AITones, ", "))
	}
	return nil
}
