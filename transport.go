package starmoney

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Transport dispatches a single outbound HTTP request. *http.Client satisfies
// it; the client never constructs sockets itself.
type Transport interface {
	Do(req *http.Request) (*http.Response, error)
}

// maxErrorBodyBytes caps how much of an error response is buffered for the
// surfaced message.
const maxErrorBodyBytes = 64 << 10

// requestDescriptor captures one logical API call. Built per call by a
// resource service, consumed by do, and discarded.
type requestDescriptor struct {
	method         string
	path           string
	scope          TokenScope
	body           any
	idempotencyKey string
}

// do executes a descriptor through the transport: resolves a bearer token for
// the scope, attaches headers, dispatches, classifies the outcome, and
// retries transient failures with exponential backoff and jitter. The same
// idempotency key and correlation ID are reused across every attempt of one
// logical operation so the server can deduplicate.
func (c *Client) do(ctx context.Context, desc requestDescriptor, out any) error {
	var payload []byte
	if desc.body != nil {
		encoded, err := json.Marshal(desc.body)
		if err != nil {
			return fmt.Errorf("starmoney: encode request body: %w", err)
		}
		payload = encoded
	}

	correlationID := uuid.NewString()
	delay := c.cfg.retryBaseDelay
	var lastErr *Error
	for attempt := 1; attempt <= c.cfg.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepWithJitter(ctx, delay); err != nil {
				return newTransportError(err)
			}
			delay *= 2
			if delay > c.cfg.retryMaxDelay {
				delay = c.cfg.retryMaxDelay
			}
		}

		apiErr := c.dispatch(ctx, desc, payload, correlationID, out)
		if apiErr == nil {
			return nil
		}
		if !apiErr.Retryable() || ctx.Err() != nil {
			return apiErr
		}
		lastErr = apiErr
	}
	return lastErr
}

// dispatch performs exactly one attempt.
func (c *Client) dispatch(ctx context.Context, desc requestDescriptor, payload []byte, correlationID string, out any) *Error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, desc.method, c.baseURL+desc.path, body)
	if err != nil {
		return newTransportError(err)
	}

	token, err := c.tokens.getOrMint(ctx, desc.scope)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return newTransportError(err)
		}
		// Signing is local; a mint failure means the credential is broken.
		mintErr := newAPIError(ErrorTypeAuthentication, 0, err.Error())
		mintErr.cause = err
		return mintErr
	}
	req.Header.Set("Authorization", "Bearer "+token.Value)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.cfg.userAgent)
	req.Header.Set("X-Correlation-ID", correlationID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if desc.idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", desc.idempotencyKey)
	}

	resp, err := c.cfg.transport.Do(req)
	if err != nil {
		return newTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := decodeJSON(resp.Body, out); err != nil {
			// The server already acted on this request; never redeliver it
			// just because the success body was undecodable.
			decodeErr := newTransportError(fmt.Errorf("decode response: %w", err))
			decodeErr.terminal = true
			return decodeErr
		}
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	apiErr := classifyStatus(resp.StatusCode, raw)
	if apiErr.Type == ErrorTypeRateLimit {
		apiErr.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
	}
	return apiErr
}

// decodeJSON strictly decodes a response body: exactly one JSON document,
// nothing trailing.
func decodeJSON(body io.Reader, v any) error {
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("response body required")
		}
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}

// sleepWithJitter waits for delay plus up to 10% random jitter, or until ctx
// is cancelled.
func sleepWithJitter(ctx context.Context, delay time.Duration) error {
	jitter := time.Duration(rand.Float64() * 0.1 * float64(delay))
	timer := time.NewTimer(delay + jitter)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
