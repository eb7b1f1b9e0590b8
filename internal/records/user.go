package records

import (
	"encoding/json"
	"strings"

	"gitlab.com/yelinaung/spennies-bot/internal/models"
)

// DecodeUser normalizes a profile record from the backend or the local cache.
func DecodeUser(raw Raw) models.User {
	user := models.User{
		ID:            Text(raw["id"]),
		Email:         Text(raw["email"]),
		Name:          Text(raw["name"]),
		JobType:       Text(pick(raw, "jobType", "job_type")),
		Language:      Text(raw["language"]),
		AITone:        Text(pick(raw, "aiTone", "ai_tone")),
		AvgIncome:     Number(pick(raw, "avgIncome", "avg_income")),
		SavingsTarget: Number(pick(raw, "savingsTarget", "savings_target")),
	}
	if expenses, ok := raw["expenses"].(Raw); ok {
		for _, category := range models.EstimateCategories {
			user.Expenses.Set(category, Number(expenses[strings.ToLower(category)]))
		}
	}
	return user
}

// EncodeUser emits the profile with both field spellings.
func EncodeUser(user models.User) Raw {
	income := json.Number(user.AvgIncome.String())
	savings := json.Number(user.SavingsTarget.String())
	expenses := Raw{}
	for _, category := range models.EstimateCategories {
		expenses[strings.ToLower(category)] = json.Number(user.Expenses.Get(category).String())
	}

	raw := Raw{
		"email":          user.Email,
		"name":           user.Name,
		"jobType":        user.JobType,
		"job_type":       user.JobType,
		"language":       user.Language,
		"aiTone":         user.AITone,
		"ai_tone":        user.AITone,
		"avgIncome":      income,
		"avg_income":     income,
		"savingsTarget":  savings,
		"savings_target": savings,
		"expenses":       expenses,
	}
	if user.ID != "" {
		raw["id"] = user.ID
	}
	return raw
}

// DecodeEstimates folds the backend estimate list into per-category amounts.
// Entries without a category or with a zero amount are ignored.
func DecodeEstimates(list []Raw) models.Estimates {
	var estimates models.Estimates
	for _, raw := range list {
		category := Text(raw["category"])
		amount := Number(pick(raw, "estimated_amount", "estimatedAmount"))
		if category == "" || amount.IsZero() {
			continue
		}
		estimates.Set(category, amount)
	}
	return estimates
}

// EncodeRegistration builds the backend registration payload.
func EncodeRegistration(reg models.Registration, firebaseUID string) Raw {
	expenses := Raw{}
	for _, category := range models.EstimateCategories {
		expenses[strings.ToLower(category)] = json.Number(reg.Profile.Expenses.Get(category).String())
	}
	return Raw{
		"email":          reg.Email,
		"name":           reg.Profile.Name,
		"firebase_uid":   firebaseUID,
		"job_type":       reg.Profile.JobType,
		"language":       reg.Profile.Language,
		"ai_tone":        reg.Profile.AITone,
		"avg_income":     json.Number(reg.Profile.AvgIncome.String()),
		"savings_target": json.Number(reg.Profile.SavingsTarget.String()),
		"expenses":       expenses,
	}
}
