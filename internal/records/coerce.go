// Package records converts loosely typed backend and cache JSON into the
// canonical model types and back.
//
// Records arrive with mixed field spellings (savingsTarget vs savings_target),
// string-or-number amounts and optional fields. Everything is normalized here
// so that no other package sees the raw shapes.
package records

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Raw is a decoded JSON object.
type Raw = map[string]any

// DateLayout is the calendar date format used on the wire.
const DateLayout = "2006-01-02"

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	DateLayout,
}

// Number coerces a JSON value into a decimal. Missing or non-numeric values yield zero.
func Number(v any) decimal.Decimal {
	switch n := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return decimal.Zero
		}
		return d
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat(n)
	case int:
		return decimal.NewFromInt(int64(n))
	case int64:
		return decimal.NewFromInt(n)
	case decimal.Decimal:
		return n
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		if err != nil {
			return decimal.Zero
		}
		return d
	}
	return decimal.Zero
}

// Int coerces a JSON value into an int, truncating fractions.
func Int(v any) int {
	return int(Number(v).IntPart())
}

// Text coerces a JSON value into a string. Numbers are formatted, nil is empty.
func Text(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case bool:
		return strconv.FormatBool(s)
	}
	return ""
}

// Flag coerces a JSON value into a bool.
func Flag(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		return err == nil && parsed
	case json.Number, float64, int, int64:
		return !Number(b).IsZero()
	}
	return false
}

// Date parses a date or timestamp. Unparseable values yield the zero time.
// Values without a zone are read as UTC wall time.
func Date(v any) time.Time {
	s := strings.TrimSpace(Text(v))
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// pick reads one logical field stored under several spellings. A set value
// under any spelling beats a blank, false or zero one under another, so a
// stale default in one convention never hides real data in the other.
// Without any set value it falls back to the first present one.
func pick(raw Raw, keys ...string) any {
	var fallback any
	for _, key := range keys {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			continue
		}
		if isSet(v) {
			return v
		}
		if fallback == nil {
			fallback = v
		}
	}
	return fallback
}

func isSet(v any) bool {
	switch x := v.(type) {
	case string:
		x = strings.TrimSpace(x)
		if b, err := strconv.ParseBool(x); err == nil {
			return b
		}
		if d, err := decimal.NewFromString(x); err == nil {
			return !d.IsZero()
		}
		return x != ""
	case bool:
		return x
	case json.Number, float64, int, int64, decimal.Decimal:
		return !Number(x).IsZero()
	}
	return true
}

// anyFlag is true when any spelling carries a true flag.
func anyFlag(raw Raw, keys ...string) bool {
	for _, key := range keys {
		if Flag(raw[key]) {
			return true
		}
	}
	return false
}

func has(raw Raw, keys ...string) bool {
	return pick(raw, keys...) != nil
}

func formatDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(DateLayout)
}

func formatTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(time.RFC3339)
}
