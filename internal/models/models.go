// Package models defines the canonical domain entities for the finance tracker.
package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultReminderDays is the loan reminder lead time used when a record has none.
const DefaultReminderDays = 3

// TransactionType tags the direction of a transaction. Amounts are always positive.
type TransactionType string

// Transaction types.
const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

// Transaction sources.
const (
	SourceManual = "manual"
	SourceSMS    = "sms"
)

// DefaultCategory is used for transactions without a category label.
const DefaultCategory = "Other"

// Transaction is a single income or expense entry.
type Transaction struct {
	ID          string
	Amount      decimal.Decimal
	Type        TransactionType
	Category    string
	Description string
	// Date is zero when the record carried no parseable date.
	Date      time.Time
	Source    string
	CreatedAt time.Time
	IsDeleted bool
}

// IsIncome reports whether the type tag is income, ignoring case.
func (t Transaction) IsIncome() bool {
	return strings.EqualFold(string(t.Type), string(TransactionIncome))
}

// IsExpense reports whether the type tag is expense, ignoring case.
func (t Transaction) IsExpense() bool {
	return strings.EqualFold(string(t.Type), string(TransactionExpense))
}

// IsSMS reports whether the transaction was derived from a bank SMS.
func (t Transaction) IsSMS() bool {
	return strings.EqualFold(t.Source, SourceSMS)
}

// Loan is an informal borrowing tracked until it is paid back.
type Loan struct {
	ID           string
	LenderName   string
	Amount       decimal.Decimal
	Purpose      string
	DateTaken    time.Time
	DueDate      time.Time
	InterestRate decimal.Decimal
	ReminderDays int
	IsPaid       bool
	PaidDate     time.Time
	CreatedAt    time.Time
}

// Estimates holds the per-category monthly budget estimates.
type Estimates struct {
	Food      decimal.Decimal
	Transport decimal.Decimal
	Bills     decimal.Decimal
	Other     decimal.Decimal
}

// EstimateCategories lists the backend category names in display order.
var EstimateCategories = []string{"Food", "Transport", "Bills", "Other"}

// Get returns the estimate for a category name, ignoring case.
func (e Estimates) Get(category string) decimal.Decimal {
	switch strings.ToLower(category) {
	case "food":
		return e.Food
	case "transport":
		return e.Transport
	case "bills":
		return e.Bills
	case "other":
		return e.Other
	}
	return decimal.Zero
}

// Set stores the estimate for a category name. Unknown names are ignored.
func (e *Estimates) Set(category string, amount decimal.Decimal) {
	switch strings.ToLower(category) {
	case "food":
		e.Food = amount
	case "transport":
		e.Transport = amount
	case "bills":
		e.Bills = amount
	case "other":
		e.Other = amount
	}
}

// Total returns the sum of all estimates.
func (e Estimates) Total() decimal.Decimal {
	return e.Food.Add(e.Transport).Add(e.Bills).Add(e.Other)
}

// User is the profile of a registered or offline user.
type User struct {
	ID            string
	Email         string
	Name          string
	JobType       string
	Language      string
	AITone        string
	AvgIncome     decimal.Decimal
	SavingsTarget decimal.Decimal
	Expenses      Estimates
}

// KeyID returns a stable identifier for per-user local keys.
func (u *User) KeyID() string {
	if u == nil {
		return "anon"
	}
	switch {
	case u.ID != "":
		return u.ID
	case u.Email != "":
		return u.Email
	case u.Name != "":
		return u.Name
	}
	return "anon"
}

// Challenge is the daily AI-suggested savings action.
type Challenge struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Reward      decimal.Decimal `json:"reward"`
}

// FallbackChallenge is shown when no challenge can be fetched.
var FallbackChallenge = Challenge{
	Title:       "Track every expense",
	Description: "Log all your spending today accurately.",
	Reward:      decimal.Zero,
}

// ChatRole tags who authored a chat message.
type ChatRole string

// Chat roles.
const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one entry in the locally kept chat history.
type ChatMessage struct {
	Role ChatRole  `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Chat actions reported by the assistant.
const (
	ActionTransactionAdded   = "transaction_added"
	ActionTransactionDeleted = "transaction_deleted"
	ActionLoanUpdated        = "loan_updated"
	ActionBudgetUpdated      = "budget_updated"
	ActionProfileUpdated     = "profile_updated"
)

// ChatReply is the assistant's answer to one chat turn.
type ChatReply struct {
	Response string
	Action   string
	Data     map[string]any
}

// TriggersRefresh reports whether the reply's action changed stored data.
func (r ChatReply) TriggersRefresh() bool {
	switch r.Action {
	case ActionTransactionAdded, ActionTransactionDeleted, ActionLoanUpdated,
		ActionBudgetUpdated, ActionProfileUpdated:
		return true
	}
	return false
}

// Insights is the AI-generated spending analysis.
type Insights struct {
	Items []string
	Tip   string
}

// SMSParseResult is a transaction extracted from bank SMS text.
type SMSParseResult struct {
	Amount      decimal.Decimal
	Category    string
	Type        TransactionType
	Description string
	Merchant    string
	Confidence  float64
	Date        time.Time
}

// MinSMSConfidence is the confidence above which a parsed SMS is recorded.
const MinSMSConfidence = 0.7

// Recordable reports whether the parse is confident enough to store.
func (r *SMSParseResult) Recordable() bool {
	return r != nil && r.Confidence > MinSMSConfidence && r.Amount.IsPositive()
}

// Transaction converts the parse result into an SMS-sourced transaction.
func (r *SMSParseResult) Transaction(now time.Time) Transaction {
	date := r.Date
	if date.IsZero() {
		date = now
	}
	desc := r.Description
	if desc == "" {
		merchant := r.Merchant
		if merchant == "" {
			merchant = "Unknown"
		}
		desc = "Payment at " + merchant
	}
	category := r.Category
	if category == "" {
		category = DefaultCategory
	}
	return Transaction{
		Amount:      r.Amount,
		Type:        r.Type,
		Category:    category,
		Description: desc,
		Date:        date,
		Source:      SourceSMS,
		CreatedAt:   now,
	}
}
