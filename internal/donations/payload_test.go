package donations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/solidarityfund/fundraiser-backend/pkg/errors"
)

func TestParseEventNormalizesSnakeCase(t *testing.T) {
	raw := []byte(`{
		"type": "payment.updated",
		"data": {"object": {"payment": {
			"id": "pay-1",
			"status": "completed",
			"note": "teamSlug=team-falcon",
			"amount_money": {"amount": 2500, "currency": "usd"},
			"buyer_email_address": "donor@example.com",
			"receipt_url": "https://squareup.com/receipt/1",
			"created_at": "2026-08-01T12:00:00Z"
		}}}
	}`)

	event, err := ParseEvent(raw)
	require.NoError(t, err)
	require.True(t, event.IsPayment())

	p := event.Payment
	assert.Equal(t, "pay-1", p.ID)
	assert.Equal(t, "COMPLETED", p.Status)
	assert.Equal(t, int64(2500), p.AmountCents)
	assert.Equal(t, "USD", p.Currency)
	assert.Equal(t, "donor@example.com", p.Email)
	assert.Equal(t, "https://squareup.com/receipt/1", p.ReceiptURL)
	assert.False(t, p.CreatedAt.IsZero())
}

func TestParseEventNormalizesCamelCase(t *testing.T) {
	raw := []byte(`{
		"type": "payment.created",
		"data": {"object": {"payment": {
			"id": "pay-2",
			"status": "COMPLETED",
			"amountMoney": {"amount": "1000"},
			"buyerEmailAddress": "donor@example.com",
			"receiptUrl": "https://squareup.com/receipt/2",
			"createdAt": "2026-08-01T12:00:00Z"
		}}}
	}`)

	event, err := ParseEvent(raw)
	require.NoError(t, err)

	p := event.Payment
	assert.Equal(t, int64(1000), p.AmountCents, "string amount should coerce")
	assert.Equal(t, "USD", p.Currency, "currency should default")
	assert.NotEmpty(t, p.Email)
	assert.NotEmpty(t, p.ReceiptURL)
	assert.False(t, p.CreatedAt.IsZero())
}

func TestParseEventTypeFallback(t *testing.T) {
	raw := []byte(`{"data": {"type": "refund.created", "object": {}}}`)
	event, err := ParseEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, "refund.created", event.Type)
	assert.False(t, event.IsPayment())
}

func TestParseEventInvalidJSON(t *testing.T) {
	_, err := ParseEvent([]byte(`{not json`))
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Contains(t, typed.Message(), "invalid json")
}

func TestParseEventMissingPaymentID(t *testing.T) {
	cases := []string{
		`{"type":"payment.created"}`,
		`{"type":"payment.created","data":{"object":{"payment":{"status":"COMPLETED"}}}}`,
	}
	for _, raw := range cases {
		_, err := ParseEvent([]byte(raw))
		typed := pkgerrors.As(err)
		require.NotNil(t, typed, "payload: %s", raw)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
		assert.Contains(t, typed.Message(), "payment id missing")
	}
}

func TestCoerceAmount(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    int64
		wantErr bool
	}{
		{"integer", `{"amount": 2500}`, 2500, false},
		{"numeric string", `{"amount": "2500"}`, 2500, false},
		{"float integral", `{"amount": 2500.0}`, 2500, false},
		{"negative", `{"amount": -100}`, -100, false},
		{"fractional", `{"amount": 25.5}`, 0, true},
		{"word", `{"amount": "lots"}`, 0, true},
		{"missing", `{}`, 0, true},
		{"null", `{"amount": null}`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := []byte(`{"type":"payment.created","data":{"object":{"payment":{"id":"p","amount_money":` + tt.payload + `}}}}`)
			event, err := ParseEvent(raw)
			if tt.wantErr {
				typed := pkgerrors.As(err)
				require.NotNil(t, typed)
				assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
				assert.Contains(t, typed.Message(), "invalid amount")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, event.Payment.AmountCents)
		})
	}
}
