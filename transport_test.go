package starmoney

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"
)

// scriptedTransport replays a fixed sequence of responses (or dial errors)
// and records every request it saw.
type scriptedTransport struct {
	mu       sync.Mutex
	steps    []scriptedStep
	requests []recordedRequest
}

type scriptedStep struct {
	status int
	header http.Header
	body   string
	err    error
}

type recordedRequest struct {
	method         string
	url            string
	authorization  string
	idempotencyKey string
	correlationID  string
	body           string
}

func (s *scriptedTransport) Do(req *http.Request) (*http.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var body string
	if req.Body != nil {
		raw, _ := io.ReadAll(req.Body)
		body = string(raw)
	}
	s.requests = append(s.requests, recordedRequest{
		method:         req.Method,
		url:            req.URL.String(),
		authorization:  req.Header.Get("Authorization"),
		idempotencyKey: req.Header.Get("Idempotency-Key"),
		correlationID:  req.Header.Get("X-Correlation-ID"),
		body:           body,
	})

	if len(s.steps) == 0 {
		return nil, errors.New("scriptedTransport: no steps left")
	}
	step := s.steps[0]
	s.steps = s.steps[1:]
	if step.err != nil {
		return nil, step.err
	}
	header := step.header
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{
		StatusCode: step.status,
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader([]byte(step.body))),
	}, nil
}

func (s *scriptedTransport) calls() []recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recordedRequest(nil), s.requests...)
}

func testClient(t *testing.T, transport Transport) *Client {
	t.Helper()
	client, err := New([]byte("jwt-secret"),
		WithIssuer("acme-payments"),
		WithBaseURL("https://api.starmoney.test/v1"),
		WithTransport(transport),
		withRetryDelays(time.Millisecond, 2*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestPipelineSuccessDecodesBody(t *testing.T) {
	t.Parallel()

	transport := &scriptedTransport{steps: []scriptedStep{
		{status: http.StatusOK, body: `{"user_id":"usr_1","status":"ACTIVE"}`},
	}}
	client := testClient(t, transport)

	var out struct {
		UserID string `json:"user_id"`
		Status string `json:"status"`
	}
	err := client.do(context.Background(), requestDescriptor{
		method: http.MethodGet,
		path:   "/accounts/usr_1",
		scope:  ServiceScope(),
	}, &out)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if out.UserID != "usr_1" || out.Status != "ACTIVE" {
		t.Fatalf("decoded %+v", out)
	}

	calls := transport.calls()
	if len(calls) != 1 {
		t.Fatalf("transport invoked %d times", len(calls))
	}
	if !strings.HasPrefix(calls[0].authorization, "Bearer ") {
		t.Fatalf("missing bearer header: %q", calls[0].authorization)
	}
	if calls[0].correlationID == "" {
		t.Fatal("missing correlation ID")
	}
	if calls[0].url != "https://api.starmoney.test/v1/accounts/usr_1" {
		t.Fatalf("url %q", calls[0].url)
	}
}

func TestPipelineRetryCeilingExhausted(t *testing.T) {
	t.Parallel()

	// Three transient failures followed by a success that must never be
	// reached: the default attempt bound is three.
	transport := &scriptedTransport{steps: []scriptedStep{
		{status: http.StatusInternalServerError, body: `{"detail":"boom"}`},
		{status: http.StatusBadGateway},
		{status: http.StatusServiceUnavailable},
		{status: http.StatusOK, body: `{}`},
	}}
	client := testClient(t, transport)

	err := client.do(context.Background(), requestDescriptor{
		method:         http.MethodPost,
		path:           "/payments",
		scope:          UserScope("usr_1"),
		body:           map[string]string{"amount": "10.00"},
		idempotencyKey: "sdk-test-key",
	}, nil)
	if !IsServer(err) {
		t.Fatalf("expected server error, got %v", err)
	}
	calls := transport.calls()
	if len(calls) != 3 {
		t.Fatalf("transport invoked %d times, want 3", len(calls))
	}
	for i, call := range calls {
		if call.idempotencyKey != "sdk-test-key" {
			t.Fatalf("attempt %d idempotency key %q", i+1, call.idempotencyKey)
		}
		if call.correlationID != calls[0].correlationID {
			t.Fatalf("attempt %d changed correlation ID", i+1)
		}
		if call.body != calls[0].body {
			t.Fatalf("attempt %d changed request body", i+1)
		}
	}
}

func TestPipelineTransientThenSuccess(t *testing.T) {
	t.Parallel()

	transport := &scriptedTransport{steps: []scriptedStep{
		{status: http.StatusBadGateway},
		{status: http.StatusOK, body: `{"ok":true}`},
	}}
	client := testClient(t, transport)

	var out map[string]any
	err := client.do(context.Background(), requestDescriptor{
		method:         http.MethodPost,
		path:           "/payments",
		scope:          UserScope("usr_1"),
		idempotencyKey: "sdk-retry-key",
	}, &out)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if len(transport.calls()) != 2 {
		t.Fatalf("transport invoked %d times, want 2", len(transport.calls()))
	}
}

func TestPipelineTransportErrorsRetried(t *testing.T) {
	t.Parallel()

	dialErr := errors.New("dial tcp: connection refused")
	transport := &scriptedTransport{steps: []scriptedStep{
		{err: dialErr},
		{err: dialErr},
		{err: dialErr},
	}}
	client := testClient(t, transport)

	err := client.do(context.Background(), requestDescriptor{
		method: http.MethodGet,
		path:   "/beneficiaries",
		scope:  UserScope("usr_1"),
	}, nil)
	if !IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if !errors.Is(err, dialErr) {
		t.Fatalf("underlying cause not preserved: %v", err)
	}
	if len(transport.calls()) != 3 {
		t.Fatalf("transport invoked %d times, want 3", len(transport.calls()))
	}
}

func TestPipelineAuthenticationFailureNotRetried(t *testing.T) {
	t.Parallel()

	transport := &scriptedTransport{steps: []scriptedStep{
		{status: http.StatusUnauthorized, body: `{"detail":"invalid token"}`},
	}}
	client := testClient(t, transport)

	err := client.do(context.Background(), requestDescriptor{
		method: http.MethodGet,
		path:   "/beneficiaries",
		scope:  UserScope("usr_1"),
	}, nil)
	if !IsAuthentication(err) {
		t.Fatalf("expected authentication error, got %v", err)
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Message != "invalid token" {
		t.Fatalf("server detail not surfaced: %v", err)
	}
	if len(transport.calls()) != 1 {
		t.Fatalf("transport invoked %d times, want 1", len(transport.calls()))
	}
}

func TestPipelineDuplicateNotRetried(t *testing.T) {
	t.Parallel()

	transport := &scriptedTransport{steps: []scriptedStep{
		{status: http.StatusConflict, body: `{"detail":"duplicate client_transaction_id"}`},
	}}
	client := testClient(t, transport)

	err := client.do(context.Background(), requestDescriptor{
		method:         http.MethodPost,
		path:           "/payments",
		scope:          UserScope("usr_1"),
		idempotencyKey: "sdk-dup",
	}, nil)
	if !IsDuplicateResource(err) {
		t.Fatalf("expected duplicate-resource error, got %v", err)
	}
	if len(transport.calls()) != 1 {
		t.Fatalf("transport invoked %d times, want 1", len(transport.calls()))
	}
}

func TestPipelineClassification(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{"forbidden", http.StatusForbidden, `{"detail":"forbidden"}`, IsAuthentication},
		{"not found", http.StatusNotFound, `{"detail":"payment not found"}`, IsNotFound},
		{"validation", http.StatusUnprocessableEntity, `{"detail":"amount must be positive"}`, IsValidation},
		{"bad request", http.StatusBadRequest, `{"detail":"malformed payload"}`, IsValidation},
		{"rate limit", http.StatusTooManyRequests, `{"detail":"slow down"}`, IsRateLimit},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			transport := &scriptedTransport{steps: []scriptedStep{
				{status: tc.status, body: tc.body},
			}}
			client := testClient(t, transport)
			err := client.do(context.Background(), requestDescriptor{
				method: http.MethodGet,
				path:   "/payments/status/x",
				scope:  UserScope("usr_1"),
			}, nil)
			if !tc.check(err) {
				t.Fatalf("status %d misclassified: %v", tc.status, err)
			}
			if len(transport.calls()) != 1 {
				t.Fatalf("status %d retried", tc.status)
			}
		})
	}
}

func TestPipelineRateLimitRetryAfter(t *testing.T) {
	t.Parallel()

	transport := &scriptedTransport{steps: []scriptedStep{
		{
			status: http.StatusTooManyRequests,
			header: http.Header{"Retry-After": []string{"7"}},
			body:   `{"detail":"slow down"}`,
		},
	}}
	client := testClient(t, transport)

	err := client.do(context.Background(), requestDescriptor{
		method: http.MethodGet,
		path:   "/beneficiaries",
		scope:  UserScope("usr_1"),
	}, nil)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.RetryAfter != 7*time.Second {
		t.Fatalf("retry after %v", apiErr.RetryAfter)
	}
}

func TestPipelineUndecodableSuccessNotRetried(t *testing.T) {
	t.Parallel()

	transport := &scriptedTransport{steps: []scriptedStep{
		{status: http.StatusCreated, body: `not json`},
		{status: http.StatusCreated, body: `{}`},
	}}
	client := testClient(t, transport)

	var out map[string]any
	err := client.do(context.Background(), requestDescriptor{
		method:         http.MethodPost,
		path:           "/payments",
		scope:          UserScope("usr_1"),
		idempotencyKey: "sdk-once",
	}, &out)
	if err == nil {
		t.Fatal("expected decode error")
	}
	// The server already accepted the payment; redelivering it would be worse
	// than surfacing the decode failure.
	if len(transport.calls()) != 1 {
		t.Fatalf("transport invoked %d times, want 1", len(transport.calls()))
	}
}

func TestPipelineReusesTokenUntilRefreshMargin(t *testing.T) {
	t.Parallel()

	transport := &scriptedTransport{steps: []scriptedStep{
		{status: http.StatusOK, body: `[]`},
		{status: http.StatusOK, body: `[]`},
		{status: http.StatusOK, body: `[]`},
	}}
	now := time.Now().UTC()
	client, err := New([]byte("jwt-secret"),
		WithBaseURL("https://api.starmoney.test/v1"),
		WithTransport(transport),
		withClock(func() time.Time { return now }),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	desc := requestDescriptor{method: http.MethodGet, path: "/beneficiaries", scope: UserScope("usr_1")}
	for i := 0; i < 2; i++ {
		if err := client.do(context.Background(), desc, nil); err != nil {
			t.Fatalf("do: %v", err)
		}
	}
	calls := transport.calls()
	if calls[0].authorization != calls[1].authorization {
		t.Fatal("fresh token was not reused across calls")
	}

	// Cross the refresh margin: the next call must carry a new token.
	now = now.Add(defaultTokenLifetime - defaultRefreshMargin + time.Second)
	if err := client.do(context.Background(), desc, nil); err != nil {
		t.Fatalf("do: %v", err)
	}
	calls = transport.calls()
	if calls[2].authorization == calls[0].authorization {
		t.Fatal("token inside the refresh margin was served")
	}
}

func TestPipelineContextCancellationStopsRetries(t *testing.T) {
	t.Parallel()

	transport := &scriptedTransport{steps: []scriptedStep{
		{status: http.StatusInternalServerError},
		{status: http.StatusInternalServerError},
		{status: http.StatusInternalServerError},
	}}
	client, err := New([]byte("jwt-secret"),
		WithBaseURL("https://api.starmoney.test/v1"),
		WithTransport(transport),
		withRetryDelays(time.Hour, time.Hour),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = client.do(ctx, requestDescriptor{
		method: http.MethodGet,
		path:   "/beneficiaries",
		scope:  UserScope("usr_1"),
	}, nil)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("cause %v", err)
	}
	if len(transport.calls()) != 1 {
		t.Fatalf("transport invoked %d times after cancellation, want 1", len(transport.calls()))
	}
}
