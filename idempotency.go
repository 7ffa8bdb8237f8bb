package starmoney

import "github.com/google/uuid"

// idempotencyKeyPrefix marks keys generated by this SDK rather than supplied
// by the caller.
const idempotencyKeyPrefix = "sdk-"

// NewIdempotencyKey returns a fresh SDK-generated idempotency key. Keys are
// never derived from request content: two calls with identical parameters but
// no explicit key are independent operations.
func NewIdempotencyKey() string {
	return idempotencyKeyPrefix + uuid.NewString()
}

// resolveIdempotencyKey uses the caller's key verbatim when supplied (the
// caller owns its uniqueness semantics) and generates one otherwise. The
// resolved key must be held constant across every retry of the same logical
// operation.
func resolveIdempotencyKey(supplied string) string {
	if supplied != "" {
		return supplied
	}
	return NewIdempotencyKey()
}
