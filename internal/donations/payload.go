package donations

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/solidarityfund/fundraiser-backend/pkg/errors"
)

const defaultCurrency = "USD"

// Event is a decoded webhook envelope. Payment is nil unless the event type
// is payment.* and the payload carried a payment object.
type Event struct {
	Type    string
	Payment *Payment
}

// IsPayment reports whether the event should be processed as a donation.
func (e *Event) IsPayment() bool {
	return e != nil && strings.HasPrefix(e.Type, "payment.")
}

// Payment is the normalized payment object. Every field downstream code
// touches is resolved here through the alias table, so nothing else branches
// on payload spelling.
type Payment struct {
	ID          string
	Status      string
	Note        string
	AmountCents int64
	Currency    string
	Email       string
	ReceiptURL  string
	CreatedAt   time.Time
}

// paymentAliases maps each normalized field to the payload spellings the
// provider has been observed to send (snake_case and camelCase).
var paymentAliases = map[string][]string{
	"amount_money": {"amount_money", "amountMoney"},
	"buyer_email":  {"buyer_email_address", "buyerEmailAddress"},
	"receipt_url":  {"receipt_url", "receiptUrl"},
	"created_at":   {"created_at", "createdAt"},
}

// ParseEvent decodes and normalizes a webhook payload. Validation failures
// come back as typed 400 errors with the exact public messages the ack
// contract promises.
func ParseEvent(raw []byte) (*Event, error) {
	var envelope map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&envelope); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid json")
	}

	evtType := stringField(envelope, "type")
	data, _ := envelope["data"].(map[string]any)
	if evtType == "" && data != nil {
		evtType = stringField(data, "type")
	}

	event := &Event{Type: evtType}
	if !event.IsPayment() {
		return event, nil
	}

	var paymentRaw map[string]any
	if data != nil {
		if object, ok := data["object"].(map[string]any); ok {
			paymentRaw, _ = object["payment"].(map[string]any)
		}
	}
	if paymentRaw == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id missing")
	}

	payment, err := normalizePayment(paymentRaw)
	if err != nil {
		return nil, err
	}
	event.Payment = payment
	return event, nil
}

func normalizePayment(m map[string]any) (*Payment, error) {
	id := strings.TrimSpace(stringField(m, "id"))
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id missing")
	}

	p := &Payment{
		ID:         id,
		Status:     strings.ToUpper(strings.TrimSpace(stringField(m, "status"))),
		Note:       stringField(m, "note"),
		Currency:   defaultCurrency,
		Email:      pickString(m, paymentAliases["buyer_email"]...),
		ReceiptURL: pickString(m, paymentAliases["receipt_url"]...),
	}

	money, _ := pick(m, paymentAliases["amount_money"]...)
	moneyMap, ok := money.(map[string]any)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid amount")
	}
	amount, err := coerceAmount(moneyMap["amount"])
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid amount")
	}
	p.AmountCents = amount
	if cur := strings.ToUpper(strings.TrimSpace(stringField(moneyMap, "currency"))); cur != "" {
		p.Currency = cur
	}

	if ts := pickString(m, paymentAliases["created_at"]...); ts != "" {
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			p.CreatedAt = parsed
		}
	}

	return p, nil
}

// coerceAmount accepts the three shapes the provider sends for minor units:
// a JSON number, a numeric string, or a 64-bit integer.
func coerceAmount(v any) (int64, error) {
	switch value := v.(type) {
	case nil:
		return 0, errors.New("amount missing")
	case json.Number:
		if n, err := value.Int64(); err == nil {
			return n, nil
		}
		f, err := value.Float64()
		if err != nil {
			return 0, fmt.Errorf("amount %q is not numeric", value.String())
		}
		return integralCents(f)
	case string:
		trimmed := strings.TrimSpace(value)
		if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, fmt.Errorf("amount %q is not numeric", value)
		}
		return integralCents(f)
	case int64:
		return value, nil
	case float64:
		return integralCents(value)
	default:
		return 0, fmt.Errorf("amount has unsupported type %T", v)
	}
}

func integralCents(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Trunc(f) != f {
		return 0, fmt.Errorf("amount %v is not a whole number of cents", f)
	}
	return int64(f), nil
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func pick(m map[string]any, keys ...string) (any, bool) {
	for _, key := range keys {
		if v, ok := m[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func pickString(m map[string]any, keys ...string) string {
	v, ok := pick(m, keys...)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
