package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/solidarityfund/fundraiser-backend/pkg/config"
	"github.com/solidarityfund/fundraiser-backend/pkg/logger"
)

// Square signature headers, preferred spelling first.
const (
	signatureHeader       = "x-square-hmacsha256-signature"
	legacySignatureHeader = "x-square-signature"
)

// SignatureVerifier checks Square webhook signatures: the provider signs
// base64(HMAC-SHA256(key, notificationURL + rawBody)) over the exact URL
// registered in its dashboard. Strict mode fails closed whenever the key,
// URL, or header is missing; permissive mode (dev only, refused by config in
// production) logs and lets the event through.
type SignatureVerifier struct {
	key           string
	url           string
	allowUnsigned bool
	logger        *logger.Logger
}

func NewSignatureVerifier(cfg config.WebhookConfig, logg *logger.Logger) *SignatureVerifier {
	return &SignatureVerifier{
		key:           strings.TrimSpace(cfg.SignatureKey),
		url:           strings.TrimSpace(cfg.NotificationURL),
		allowUnsigned: cfg.AllowUnsigned,
		logger:        logg,
	}
}

// Verify reports whether the request may be processed.
func (v *SignatureVerifier) Verify(ctx context.Context, header http.Header, body []byte) bool {
	if v.signatureMatches(header, body) {
		return true
	}
	if v.allowUnsigned {
		if v.logger != nil {
			v.logger.Warn(ctx, "webhook signature not verified, permissive mode")
		}
		return true
	}
	return false
}

func (v *SignatureVerifier) signatureMatches(header http.Header, body []byte) bool {
	if v.key == "" || v.url == "" {
		return false
	}
	provided := header.Get(signatureHeader)
	if provided == "" {
		provided = header.Get(legacySignatureHeader)
	}
	if provided == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(v.key))
	mac.Write([]byte(v.url))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	// Some proxies fold repeated headers into one comma-separated value;
	// any exact candidate match passes.
	for _, candidate := range strings.Split(provided, ",") {
		if hmac.Equal([]byte(strings.TrimSpace(candidate)), []byte(expected)) {
			return true
		}
	}
	return false
}
