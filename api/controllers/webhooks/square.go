package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/solidarityfund/fundraiser-backend/internal/donations"
	pkgerrors "github.com/solidarityfund/fundraiser-backend/pkg/errors"
	"github.com/solidarityfund/fundraiser-backend/pkg/logger"
)

// Events are small; anything past this is not a payment webhook.
const maxEventBytes = 1 << 20

type donationIngester interface {
	HandleEvent(ctx context.Context, raw []byte) (*donations.Outcome, error)
}

// squareAck is the bare response shape the provider consumes. It never uses
// the API envelope.
type squareAck struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	Ignored string `json:"ignored,omitempty"`
	Skipped string `json:"skipped,omitempty"`
}

// SquareWebhook ingests Square payment events.
func SquareWebhook(svc donationIngester, verifier *SignatureVerifier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil || verifier == nil {
			writeAck(w, http.StatusInternalServerError, squareAck{Error: "webhook unavailable"})
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBytes))
		if err != nil {
			writeAck(w, http.StatusInternalServerError, squareAck{Error: "read failed"})
			return
		}

		if !verifier.Verify(ctx, r.Header, body) {
			if logg != nil {
				logg.Warn(ctx, "webhook rejected: invalid signature")
			}
			writeAck(w, http.StatusUnauthorized, squareAck{Error: "invalid signature"})
			return
		}

		outcome, err := svc.HandleEvent(ctx, body)
		if err != nil {
			writeAckError(ctx, logg, w, err)
			return
		}

		ack := squareAck{OK: true}
		switch outcome.Result {
		case donations.ResultIgnored:
			ack.Ignored = outcome.Reason
		case donations.ResultSkippedStatus, donations.ResultSkippedNoTeam, donations.ResultSkippedAmount:
			ack.Skipped = outcome.Reason
		}
		writeAck(w, http.StatusOK, ack)
	}
}

// SquareWebhookProbe answers the provider's reachability check.
func SquareWebhookProbe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeAck(w, http.StatusOK, squareAck{OK: true})
	}
}

func writeAckError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "processing failed")
	}
	if logg != nil {
		dump := pkgerrors.Dump(err)
		ctx = logg.WithFields(ctx, map[string]any{
			"error_code":  dump.Code,
			"error_chain": dump.Chain,
		})
		logg.Error(ctx, "webhook event failed", err)
	}

	status := pkgerrors.MetadataFor(typed.Code()).HTTPStatus
	// The provider treats any 5xx as retryable; collapse them to one code.
	if status >= http.StatusInternalServerError {
		status = http.StatusInternalServerError
	}
	writeAck(w, status, squareAck{Error: typed.Message()})
}

func writeAck(w http.ResponseWriter, status int, ack squareAck) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ack)
}
