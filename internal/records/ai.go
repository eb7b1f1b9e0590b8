package records

import (
	"strings"

	"gitlab.com/yelinaung/spennies-bot/internal/models"
)

// DecodeSMSResult normalizes the SMS parse response. The parser reports
// "credit"/"debit"; those map to income/expense.
func DecodeSMSResult(raw Raw) *models.SMSParseResult {
	return &models.SMSParseResult{
		Amount:      Number(raw["amount"]),
		Category:    Text(raw["category"]),
		Type:        smsType(Text(raw["type"])),
		Description: Text(raw["description"]),
		Merchant:    Text(raw["merchant"]),
		Confidence:  Number(raw["confidence"]).InexactFloat64(),
		Date:        Date(raw["date"]),
	}
}

func smsType(t string) models.TransactionType {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "credit", "income":
		return models.TransactionIncome
	default:
		return models.TransactionExpense
	}
}

// DecodeChatReply normalizes one assistant turn.
func DecodeChatReply(raw Raw) models.ChatReply {
	reply := models.ChatReply{
		Response: Text(raw["response"]),
		Action:   Text(raw["action"]),
	}
	if data, ok := raw["data"].(Raw); ok {
		reply.Data = data
	}
	return reply
}

// DecodeInsights accepts either {insights, tip} or a bare list of insights.
// Individual insights may be strings or objects with a message-like field.
func DecodeInsights(v any, defaultTip string) models.Insights {
	out := models.Insights{Tip: defaultTip}

	var items []any
	switch body := v.(type) {
	case Raw:
		if list, ok := body["insights"].([]any); ok {
			items = list
		}
		if tip := Text(body["tip"]); tip != "" {
			out.Tip = tip
		}
	case []any:
		items = body
	}

	for _, item := range items {
		var text string
		switch it := item.(type) {
		case string:
			text = it
		case Raw:
			text = Text(pick(it, "message", "description", "text", "title"))
		}
		if text = strings.TrimSpace(text); text != "" {
			out.Items = append(out.Items, text)
		}
	}
	return out
}

// DecodeChallenge normalizes a challenge record. Records without a title are rejected.
func DecodeChallenge(raw Raw) (models.Challenge, bool) {
	title := strings.TrimSpace(Text(raw["title"]))
	if title == "" {
		return models.Challenge{}, false
	}
	return models.Challenge{
		Title:       title,
		Description: Text(raw["description"]),
		Reward:      Number(raw["reward"]),
	}, true
}
