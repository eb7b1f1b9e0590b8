package records

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/spennies-bot/internal/models"
)

func TestNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want string
	}{
		{name: "json number", in: json.Number("12.50"), want: "12.5"},
		{name: "float", in: 3.25, want: "3.25"},
		{name: "int", in: 7, want: "7"},
		{name: "numeric string", in: " 1500 ", want: "1500"},
		{name: "non numeric string", in: "abc", want: "0"},
		{name: "nil", in: nil, want: "0"},
		{name: "bool", in: true, want: "0"},
		{name: "empty string", in: "", want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, Number(tt.in).String())
		})
	}
}

func TestFlag(t *testing.T) {
	t.Parallel()

	require.True(t, Flag(true))
	require.True(t, Flag("true"))
	require.True(t, Flag(json.Number("1")))
	require.False(t, Flag("no"))
	require.False(t, Flag(nil))
	require.False(t, Flag(json.Number("0")))
}

func TestDate(t *testing.T) {
	t.Parallel()

	require.Equal(t, time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC), Date("2026-02-03"))
	require.Equal(t, time.Date(2026, 2, 3, 10, 30, 0, 0, time.UTC), Date("2026-02-03T10:30:00"))
	require.Equal(t, time.Date(2026, 2, 3, 10, 30, 0, 123000000, time.UTC), Date("2026-02-03T10:30:00.123"))
	require.True(t, Date("2026-02-03T10:30:00Z").Equal(time.Date(2026, 2, 3, 10, 30, 0, 0, time.UTC)))
	require.True(t, Date("yesterday").IsZero())
	require.True(t, Date(nil).IsZero())
}

func TestDecodeList(t *testing.T) {
	t.Parallel()

	list, err := DecodeList([]byte(`[{"id": 1}, "skip", {"id": "b"}]`))
	require.NoError(t, err)
	require.Len(t, list, 2)

	list, err = DecodeList([]byte(`null`))
	require.NoError(t, err)
	require.Empty(t, list)

	_, err = DecodeList([]byte(`{not json`))
	require.Error(t, err)
}

func TestDecodeValue(t *testing.T) {
	t.Parallel()

	v, err := DecodeValue([]byte(`{"insights":["a"],"n":1.50}`))
	require.NoError(t, err)
	obj, ok := v.(Raw)
	require.True(t, ok)
	require.Equal(t, "1.50", Number(obj["n"]).StringFixed(2))

	v, err = DecodeValue([]byte(`["x"]`))
	require.NoError(t, err)
	require.IsType(t, []any{}, v)
}

func TestDecodeTransaction(t *testing.T) {
	t.Parallel()

	raw, err := DecodeObject([]byte(`{
		"id": "tx-1", "amount": "250.75", "type": "EXPENSE", "category": "Food",
		"description": "Lunch", "date": "2026-03-01", "source": "SMS",
		"created_at": "2026-03-01T12:00:00", "is_deleted": false
	}`))
	require.NoError(t, err)

	tx := DecodeTransaction(raw)
	require.Equal(t, "tx-1", tx.ID)
	require.True(t, tx.Amount.Equal(decimal.RequireFromString("250.75")))
	require.Equal(t, models.TransactionExpense, tx.Type)
	require.True(t, tx.IsSMS())
	require.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), tx.Date)
	require.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), tx.CreatedAt)
	require.False(t, tx.IsDeleted)

	t.Run("missing fields default", func(t *testing.T) {
		t.Parallel()
		tx := DecodeTransaction(Raw{"id": json.Number("42"), "isDeleted": true})
		require.Equal(t, "42", tx.ID)
		require.True(t, tx.Amount.IsZero())
		require.True(t, tx.Date.IsZero())
		require.True(t, tx.IsDeleted)
	})
}

func TestEncodeTransactionRoundTripsThroughDecode(t *testing.T) {
	t.Parallel()

	in := models.Transaction{
		ID:          "abc",
		Amount:      decimal.RequireFromString("99.5"),
		Type:        models.TransactionIncome,
		Category:    "Salary",
		Description: "March pay",
		Date:        time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		Source:      models.SourceManual,
		CreatedAt:   time.Date(2026, 3, 31, 8, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(EncodeTransaction(in))
	require.NoError(t, err)
	require.Contains(t, string(data), `"amount":99.5`)

	raw, err := DecodeObject(data)
	require.NoError(t, err)
	out := DecodeTransaction(raw)
	require.Equal(t, in.ID, out.ID)
	require.True(t, in.Amount.Equal(out.Amount))
	require.Equal(t, in.Date, out.Date)
	require.True(t, in.CreatedAt.Equal(out.CreatedAt))
}

func TestDecodeLoanAcceptsEitherSpelling(t *testing.T) {
	t.Parallel()

	camel := Raw{
		"id": "l1", "lenderName": "Ravi", "amount": "10000", "dateTaken": "2026-01-01",
		"dueDate": "2026-01-31", "interestRate": "2", "reminderDays": json.Number("5"),
		"isPaid": true, "paidDate": "2026-01-20",
	}
	snake := Raw{
		"id": "l1", "lender_name": "Ravi", "amount": json.Number("10000"), "date_taken": "2026-01-01",
		"due_date": "2026-01-31", "interest_rate": 2.0, "reminder_days": "5",
		"is_paid": "true", "paid_date": "2026-01-20",
	}

	a := DecodeLoan(camel)
	b := DecodeLoan(snake)
	require.Equal(t, "Ravi", a.LenderName)
	require.Equal(t, a.LenderName, b.LenderName)
	require.True(t, a.Amount.Equal(b.Amount))
	require.True(t, a.InterestRate.Equal(b.InterestRate))
	require.Equal(t, a.DateTaken, b.DateTaken)
	require.Equal(t, a.DueDate, b.DueDate)
	require.Equal(t, 5, a.ReminderDays)
	require.Equal(t, a.ReminderDays, b.ReminderDays)
	require.True(t, a.IsPaid)
	require.Equal(t, a.IsPaid, b.IsPaid)
	require.Equal(t, a.PaidDate, b.PaidDate)
}

func TestDecodeLoanBlankSpellingDoesNotHideTheOther(t *testing.T) {
	t.Parallel()

	loan := DecodeLoan(Raw{
		"isPaid": false, "is_paid": true,
		"dueDate": "", "due_date": "2026-01-10",
		"lenderName": "", "lender_name": "Ravi",
		"interestRate": json.Number("0"), "interest_rate": "2",
		"reminderDays": 0, "reminder_days": "7",
	})
	require.True(t, loan.IsPaid)
	require.Equal(t, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), loan.DueDate)
	require.Equal(t, "Ravi", loan.LenderName)
	require.True(t, loan.InterestRate.Equal(decimal.NewFromInt(2)))
	require.Equal(t, 7, loan.ReminderDays)

	loan = DecodeLoan(Raw{"is_paid": "false", "isPaid": "true"})
	require.True(t, loan.IsPaid)

	tx := DecodeTransaction(Raw{"id": "t1", "amount": 5, "type": "expense", "is_deleted": false, "isDeleted": true})
	require.True(t, tx.IsDeleted)
}

func TestDecodeLoanDefaults(t *testing.T) {
	t.Parallel()

	loan := DecodeLoan(Raw{"amount": "oops"})
	require.True(t, loan.Amount.IsZero())
	require.Equal(t, models.DefaultReminderDays, loan.ReminderDays)
	require.True(t, loan.DueDate.IsZero())

	loan = DecodeLoan(Raw{"reminder_days": json.Number("0")})
	require.Equal(t, 0, loan.ReminderDays)
}

func TestEncodeLoanEmitsBothSpellings(t *testing.T) {
	t.Parallel()

	raw := EncodeLoan(models.Loan{
		ID:           "l2",
		LenderName:   "Asha",
		Amount:       decimal.NewFromInt(500),
		DueDate:      time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		InterestRate: decimal.NewFromInt(1),
		ReminderDays: 2,
		IsPaid:       true,
	})

	pairs := [][2]string{
		{"lenderName", "lender_name"},
		{"dueDate", "due_date"},
		{"interestRate", "interest_rate"},
		{"reminderDays", "reminder_days"},
		{"isPaid", "is_paid"},
	}
	for _, pair := range pairs {
		require.Contains(t, raw, pair[0])
		require.Contains(t, raw, pair[1])
		require.Equal(t, raw[pair[0]], raw[pair[1]])
	}
	require.Equal(t, "2026-05-01", raw["due_date"])
}

func TestDecodeUser(t *testing.T) {
	t.Parallel()

	raw, err := DecodeObject([]byte(`{
		"id": "u1", "name": "Meera", "savings_target": "5000", "avgIncome": 40000,
		"job_type": "driver", "aiTone": "motivational",
		"expenses": {"food": "3000", "transport": 1000, "bills": null}
	}`))
	require.NoError(t, err)

	user := DecodeUser(raw)
	require.Equal(t, "Meera", user.Name)
	require.True(t, user.SavingsTarget.Equal(decimal.NewFromInt(5000)))
	require.True(t, user.AvgIncome.Equal(decimal.NewFromInt(40000)))
	require.Equal(t, "driver", user.JobType)
	require.Equal(t, "motivational", user.AITone)
	require.True(t, user.Expenses.Food.Equal(decimal.NewFromInt(3000)))
	require.True(t, user.Expenses.Bills.IsZero())

	encoded := EncodeUser(user)
	require.Equal(t, encoded["savingsTarget"], encoded["savings_target"])
	require.Equal(t, encoded["avgIncome"], encoded["avg_income"])
}

func TestDecodeEstimates(t *testing.T) {
	t.Parallel()

	list, err := DecodeList([]byte(`[
		{"category": "Food", "estimated_amount": "4000"},
		{"category": "Bills", "estimated_amount": 1200},
		{"category": "", "estimated_amount": 50},
		{"category": "Other", "estimated_amount": 0}
	]`))
	require.NoError(t, err)

	est := DecodeEstimates(list)
	require.True(t, est.Food.Equal(decimal.NewFromInt(4000)))
	require.True(t, est.Bills.Equal(decimal.NewFromInt(1200)))
	require.True(t, est.Other.IsZero())
}

func TestDecodeSMSResult(t *testing.T) {
	t.Parallel()

	res := DecodeSMSResult(Raw{
		"amount": json.Number("450"), "category": "Food", "type": "debit",
		"merchant": "Swiggy", "confidence": json.Number("0.92"), "date": "2026-04-02",
	})
	require.Equal(t, models.TransactionExpense, res.Type)
	require.InDelta(t, 0.92, res.Confidence, 1e-9)
	require.True(t, res.Recordable())

	credit := DecodeSMSResult(Raw{"type": "CREDIT"})
	require.Equal(t, models.TransactionIncome, credit.Type)
}

func TestDecodeInsights(t *testing.T) {
	t.Parallel()

	t.Run("object with tip", func(t *testing.T) {
		t.Parallel()
		got := DecodeInsights(Raw{
			"insights": []any{"Spend less on food", Raw{"message": "Bills are up"}, ""},
			"tip":      "Cook at home",
		}, "default")
		require.Equal(t, []string{"Spend less on food", "Bills are up"}, got.Items)
		require.Equal(t, "Cook at home", got.Tip)
	})

	t.Run("bare list keeps default tip", func(t *testing.T) {
		t.Parallel()
		got := DecodeInsights([]any{"one"}, "default")
		require.Equal(t, []string{"one"}, got.Items)
		require.Equal(t, "default", got.Tip)
	})
}

func TestDecodeChallenge(t *testing.T) {
	t.Parallel()

	c, ok := DecodeChallenge(Raw{"title": "Save ₹10 today", "description": "Put aside a small amount.", "reward": json.Number("10")})
	require.True(t, ok)
	require.Equal(t, "Save ₹10 today", c.Title)
	require.True(t, c.Reward.Equal(decimal.NewFromInt(10)))

	_, ok = DecodeChallenge(Raw{"description": "no title"})
	require.False(t, ok)
}

func TestDecodeChatReply(t *testing.T) {
	t.Parallel()

	reply := DecodeChatReply(Raw{"response": "Added", "action": "transaction_added", "data": Raw{"transaction_id": "x"}})
	require.Equal(t, "Added", reply.Response)
	require.True(t, reply.TriggersRefresh())
	require.Equal(t, "x", reply.Data["transaction_id"])
}
