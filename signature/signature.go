// Package signature verifies HMAC-SHA256 webhook signatures produced by the
// StarMoney event delivery service, and signs payloads the same way for tests
// and local delivery simulation.
//
// The server signs the raw payload bytes with the subscription's webhook
// secret and sends the digest as `sha256=<hex>` in the X-Webhook-Signature
// header. Verification recomputes the digest and compares in constant time;
// anything malformed fails closed.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	canonicaljson "github.com/gibson042/canonicaljson-go"
)

// Header is the HTTP header carrying the payload signature.
const Header = "X-Webhook-Signature"

// prefix declares the digest algorithm. Any other prefix fails verification.
const prefix = "sha256="

var (
	// ErrMalformedHeader reports a signature header with the wrong algorithm
	// prefix, encoding, or digest length.
	ErrMalformedHeader = errors.New("signature: malformed signature header")

	// ErrMismatch reports a well-formed signature that does not match the
	// payload.
	ErrMismatch = errors.New("signature: signature mismatch")
)

// Verifier validates the authenticity of a webhook payload.
type Verifier interface {
	Verify(payload []byte, signatureHeader string) error
}

// HMACVerifier verifies `sha256=<hex>` signatures with a shared secret.
type HMACVerifier struct {
	Key []byte
}

// Verify implements [Verifier]. It returns ErrMalformedHeader or ErrMismatch
// on failure; the comparison itself runs in constant time via [hmac.Equal].
func (v HMACVerifier) Verify(payload []byte, signatureHeader string) error {
	if len(v.Key) == 0 {
		return errors.New("signature: HMACVerifier requires a non-empty key")
	}
	encoded, ok := strings.CutPrefix(signatureHeader, prefix)
	if !ok {
		return fmt.Errorf("%w: expected %q prefix", ErrMalformedHeader, prefix)
	}
	provided, err := hex.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedHeader, err)
	}
	if len(provided) != sha256.Size {
		return fmt.Errorf("%w: digest must be %d bytes", ErrMalformedHeader, sha256.Size)
	}
	if !hmac.Equal(provided, digest(v.Key, payload)) {
		return ErrMismatch
	}
	return nil
}

// Verify reports whether signatureHeader is a valid signature of payload
// under key. It is the boolean form of [HMACVerifier.Verify].
func Verify(key, payload []byte, signatureHeader string) bool {
	return HMACVerifier{Key: key}.Verify(payload, signatureHeader) == nil
}

// Sign computes the signature header value for raw payload bytes.
func Sign(key, payload []byte) string {
	return prefix + hex.EncodeToString(digest(key, payload))
}

// SignCanonical marshals payload to canonical JSON (sorted keys, minimal
// separators, the server's wire form) and signs the result. Use it to build
// valid test deliveries: the returned body is byte-for-byte what the
// signature covers.
func SignCanonical(key []byte, payload any) (body []byte, signatureHeader string, err error) {
	body, err = canonicaljson.Marshal(payload)
	if err != nil {
		return nil, "", fmt.Errorf("signature: canonicalize payload: %w", err)
	}
	return body, Sign(key, body), nil
}

func digest(key, payload []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(payload)
	return mac.Sum(nil)
}
