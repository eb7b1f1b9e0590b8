package records

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gitlab.com/yelinaung/spennies-bot/internal/models"
)

// DecodeList parses a JSON array of objects. Non-object items are skipped.
// A top-level null decodes to an empty list.
func DecodeList(data []byte) ([]Raw, error) {
	var items []any
	if err := unmarshal(data, &items); err != nil {
		return nil, err
	}

	list := make([]Raw, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(Raw); ok {
			list = append(list, obj)
		}
	}
	return list, nil
}

// DecodeObject parses a single JSON object.
func DecodeObject(data []byte) (Raw, error) {
	var obj Raw
	if err := unmarshal(data, &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// DecodeValue parses any JSON document, keeping numbers as json.Number.
func DecodeValue(data []byte) (any, error) {
	var v any
	if err := unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func unmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed to decode record JSON: %w", err)
	}
	return nil
}

// DecodeTransaction normalizes one transaction record.
func DecodeTransaction(raw Raw) models.Transaction {
	return models.Transaction{
		ID:          Text(raw["id"]),
		Amount:      Number(raw["amount"]),
		Type:        models.TransactionType(strings.ToLower(strings.TrimSpace(Text(raw["type"])))),
		Category:    Text(raw["category"]),
		Description: Text(raw["description"]),
		Date:        Date(raw["date"]),
		Source:      strings.ToLower(Text(raw["source"])),
		CreatedAt:   Date(pick(raw, "created_at", "createdAt")),
		IsDeleted:   anyFlag(raw, "is_deleted", "isDeleted"),
	}
}

// DecodeTransactions normalizes a list of transaction records.
func DecodeTransactions(list []Raw) []models.Transaction {
	txs := make([]models.Transaction, 0, len(list))
	for _, raw := range list {
		txs = append(txs, DecodeTransaction(raw))
	}
	return txs
}

// EncodeTransaction produces the backend's snake_case transaction shape.
func EncodeTransaction(tx models.Transaction) Raw {
	raw := Raw{
		"amount":      json.Number(tx.Amount.String()),
		"type":        string(tx.Type),
		"category":    tx.Category,
		"description": tx.Description,
		"date":        formatDate(tx.Date),
		"source":      tx.Source,
	}
	if tx.ID != "" {
		raw["id"] = tx.ID
	}
	if !tx.CreatedAt.IsZero() {
		raw["created_at"] = formatTime(tx.CreatedAt)
	}
	if tx.IsDeleted {
		raw["is_deleted"] = true
	}
	return raw
}

// EncodeTransactions encodes a list of transactions.
func EncodeTransactions(txs []models.Transaction) []Raw {
	list := make([]Raw, 0, len(txs))
	for _, tx := range txs {
		list = append(list, EncodeTransaction(tx))
	}
	return list
}
