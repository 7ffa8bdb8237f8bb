package starmoney

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrorType classifies a failed API call.
type ErrorType string

const (
	ErrorTypeAuthentication    ErrorType = "authentication_error" // Rejected or misconfigured credentials.
	ErrorTypeValidation        ErrorType = "validation_error"     // Request rejected by server-side validation.
	ErrorTypeNotFound          ErrorType = "not_found"            // Resource does not exist.
	ErrorTypeDuplicateResource ErrorType = "duplicate_resource"   // Idempotency conflict, resource already exists.
	ErrorTypeRateLimit         ErrorType = "rate_limit_exceeded"  // Too many requests.
	ErrorTypeServer            ErrorType = "server_error"         // 5xx after exhausting retries.
	ErrorTypeTransport         ErrorType = "transport_error"      // Connection failure or timeout after exhausting retries.
)

// Error is a typed failure returned by API calls. Transient failures
// (ErrorTypeServer, ErrorTypeTransport) have already been retried up to the
// configured bound by the time they surface.
type Error struct {
	Type    ErrorType
	Message string
	// Status is the HTTP status code of the final response, or zero when the
	// failure never produced one.
	Status int
	// Detail carries the server-provided error body, when one was decodable.
	Detail map[string]any
	// RetryAfter is the server-requested wait for rate-limited calls.
	RetryAfter time.Duration

	cause error
	// terminal short-circuits retry for failures that occur after the server
	// already acted, such as an undecodable success body.
	terminal bool
}

// Error satisfies the stdlib error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Status > 0 {
		return fmt.Sprintf("starmoney: [%d] %s", e.Status, e.Message)
	}
	return "starmoney: " + e.Message
}

// Unwrap exposes the underlying transport error, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// Retryable reports whether the failure class is eligible for retry.
func (e *Error) Retryable() bool {
	if e.terminal {
		return false
	}
	return e.Type == ErrorTypeServer || e.Type == ErrorTypeTransport
}

func newAPIError(typ ErrorType, status int, message string) *Error {
	return &Error{Type: typ, Status: status, Message: message}
}

func newTransportError(err error) *Error {
	return &Error{
		Type:    ErrorTypeTransport,
		Message: err.Error(),
		cause:   err,
	}
}

// classifyStatus maps a response status and decoded error body to a typed
// Error. Statuses outside the known taxonomy collapse into the nearest class:
// other 4xx are treated as validation failures, anything >= 500 as server
// errors.
func classifyStatus(status int, body []byte) *Error {
	message, detail := decodeErrorBody(status, body)
	var typ ErrorType
	switch {
	case status == 400 || status == 422:
		typ = ErrorTypeValidation
	case status == 401 || status == 403:
		typ = ErrorTypeAuthentication
	case status == 404:
		typ = ErrorTypeNotFound
	case status == 409:
		typ = ErrorTypeDuplicateResource
	case status == 429:
		typ = ErrorTypeRateLimit
	case status >= 500:
		typ = ErrorTypeServer
	default:
		typ = ErrorTypeValidation
	}
	err := newAPIError(typ, status, message)
	err.Detail = detail
	return err
}

// decodeErrorBody extracts the server's "detail" field when present. The
// StarMoney API emits {"detail": "..."} payloads; detail may also be a
// structured value for field-level validation errors.
func decodeErrorBody(status int, body []byte) (string, map[string]any) {
	fallback := fmt.Sprintf("HTTP %d error", status)
	if len(body) == 0 {
		return fallback, nil
	}
	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return string(body), nil
	}
	if msg, ok := decoded["detail"].(string); ok && msg != "" {
		return msg, decoded
	}
	return fallback, decoded
}

func errorTypeIs(err error, typ ErrorType) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Type == typ
}

// IsAuthentication reports whether err is a credential failure (401/403).
func IsAuthentication(err error) bool { return errorTypeIs(err, ErrorTypeAuthentication) }

// IsValidation reports whether err is a server-side validation rejection.
func IsValidation(err error) bool { return errorTypeIs(err, ErrorTypeValidation) }

// IsNotFound reports whether err is a missing-resource failure.
func IsNotFound(err error) bool { return errorTypeIs(err, ErrorTypeNotFound) }

// IsDuplicateResource reports whether err is an idempotency conflict (409).
// Duplicate submissions of the same logical operation land here; the original
// operation's outcome is unchanged.
func IsDuplicateResource(err error) bool { return errorTypeIs(err, ErrorTypeDuplicateResource) }

// IsRateLimit reports whether err is a rate-limit rejection (429).
func IsRateLimit(err error) bool { return errorTypeIs(err, ErrorTypeRateLimit) }

// IsServer reports whether err is a 5xx that survived the retry budget.
func IsServer(err error) bool { return errorTypeIs(err, ErrorTypeServer) }

// IsTransport reports whether err is a connectivity failure that survived the
// retry budget.
func IsTransport(err error) bool { return errorTypeIs(err, ErrorTypeTransport) }
