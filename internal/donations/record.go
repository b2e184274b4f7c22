package donations

import (
	"encoding/json"
	"time"
)

// Record is one ingested donation, keyed by the provider payment id.
// Email and ReceiptURL are sensitive and omitted from JSON when empty;
// Raw holds the original event payload and is only populated outside
// production.
type Record struct {
	ID          string          `json:"id"`
	TeamRef     *string         `json:"team_ref,omitempty"`
	AmountCents int64           `json:"amount_cents"`
	Currency    string          `json:"currency"`
	Email       string          `json:"email,omitempty"`
	ReceiptURL  string          `json:"receipt_url,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	Raw         json.RawMessage `json:"raw,omitempty"`
}

// Countable reports whether the record contributes to team totals: it must be
// attributed to a team and carry a positive amount.
func (r Record) Countable() bool {
	return r.TeamRef != nil && *r.TeamRef != "" && r.AmountCents > 0
}
