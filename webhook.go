package starmoney

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/starmoney/starmoney-go/signature"
)

// SignatureHeader is the HTTP header StarMoney signs webhook deliveries with.
const SignatureHeader = signature.Header

// WebhookVerifier authenticates inbound webhook deliveries with the
// subscription's webhook secret. It is stateless and independent of the API
// client: construct one per subscription secret and share it across handlers.
type WebhookVerifier struct {
	verifier signature.HMACVerifier
}

// NewWebhookVerifier builds a verifier for the given webhook secret (the one
// registered with the subscription, not the JWT secret).
func NewWebhookVerifier(secret []byte) *WebhookVerifier {
	return &WebhookVerifier{verifier: signature.HMACVerifier{Key: secret}}
}

// VerifySignature reports whether signatureHeader is a valid HMAC-SHA256
// signature of the raw payload bytes. Malformed headers fail closed.
func (v *WebhookVerifier) VerifySignature(payload []byte, signatureHeader string) bool {
	return v.verifier.Verify(payload, signatureHeader) == nil
}

// ParseWebhook verifies the delivery and decodes it into a [WebhookEvent].
// The payload is never inspected before its signature checks out. A payload
// that fails to decode after a valid signature is a decode error, not a
// signature error; [IsSignature] distinguishes the two.
func (v *WebhookVerifier) ParseWebhook(payload []byte, signatureHeader string) (*WebhookEvent, error) {
	if err := v.verifier.Verify(payload, signatureHeader); err != nil {
		return nil, err
	}
	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("starmoney: decode webhook payload: %w", err)
	}
	if event.EventType == "" {
		return nil, errors.New("starmoney: webhook payload missing event_type")
	}
	return &event, nil
}

// IsSignature reports whether err is a webhook signature failure (mismatch or
// malformed header), as opposed to a decode failure of a validly signed
// payload.
func IsSignature(err error) bool {
	return errors.Is(err, signature.ErrMismatch) || errors.Is(err, signature.ErrMalformedHeader)
}
