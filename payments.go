package starmoney

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// DefaultRailName is the payment rail used when the caller does not pick one.
const DefaultRailName = "BDK"

// PaymentStatus enumerates the lifecycle states reported for a payment.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "PENDING"
	PaymentStatusProcessing PaymentStatus = "PROCESSING"
	PaymentStatusAccepted   PaymentStatus = "ACCEPTED"
	PaymentStatusCompleted  PaymentStatus = "COMPLETED"
	PaymentStatusFailed     PaymentStatus = "FAILED"
)

// PaymentsService sends payments and tracks their status. All operations run
// in the sending user's scope.
type PaymentsService struct {
	client *Client
}

// PaymentSendRequest is the payload for submitting a payment. Amount is a
// decimal string ("100.00") so no precision is lost in transit.
//
// ClientTransactionID doubles as the idempotency key: leave it empty and the
// SDK generates one, or supply your own to own the retry semantics. Either
// way the same key is reused for every retry of this payment, and must never
// be reused for a different payment.
type PaymentSendRequest struct {
	Amount              string `json:"amount" validate:"required,amount"`
	Currency            string `json:"currency" validate:"required,currency"`
	BeneficiaryIBAN     string `json:"beneficiary_iban" validate:"required"`
	BeneficiaryName     string `json:"beneficiary_name" validate:"required"`
	Description         string `json:"description" validate:"required"`
	RailName            string `json:"rail_name,omitempty"`
	ClientTransactionID string `json:"client_transaction_id,omitempty"`
}

// Validate checks the request locally before it is sent.
func (r PaymentSendRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return normalizeValidationError(err)
	}
	return nil
}

// Payment is a submitted payment.
type Payment struct {
	TransactionID       string        `json:"transaction_id"`
	ClientTransactionID string        `json:"client_transaction_id"`
	UserID              string        `json:"user_id"`
	Amount              string        `json:"amount"`
	Currency            string        `json:"currency"`
	BeneficiaryIBAN     string        `json:"beneficiary_iban"`
	BeneficiaryName     string        `json:"beneficiary_name"`
	Status              PaymentStatus `json:"status"`
	RailName            string        `json:"rail_name"`
	CreatedAt           string        `json:"created_at"`
}

// PaymentStatusResponse reports the current state of a payment.
type PaymentStatusResponse struct {
	TransactionID       string        `json:"transaction_id"`
	ClientTransactionID string        `json:"client_transaction_id"`
	Status              PaymentStatus `json:"status"`
	Amount              string        `json:"amount"`
	Currency            string        `json:"currency"`
	FailureReason       string        `json:"failure_reason,omitempty"`
	CreatedAt           string        `json:"created_at"`
	UpdatedAt           string        `json:"updated_at"`
}

// Send submits a payment on behalf of the user. Returns the created payment,
// including the client transaction ID to track it with; a 409 means the same
// key was already submitted and surfaces as a duplicate-resource error.
func (s *PaymentsService) Send(ctx context.Context, userID string, req PaymentSendRequest) (*Payment, error) {
	if userID == "" {
		return nil, fmt.Errorf("starmoney: user_id is required")
	}
	if req.RailName == "" {
		req.RailName = DefaultRailName
	}
	req.ClientTransactionID = resolveIdempotencyKey(req.ClientTransactionID)
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var payment Payment
	err := s.client.do(ctx, requestDescriptor{
		method:         http.MethodPost,
		path:           "/payments",
		scope:          UserScope(userID),
		body:           req,
		idempotencyKey: req.ClientTransactionID,
	}, &payment)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetStatus looks up a payment by its client transaction ID. An unknown ID
// surfaces as a not-found error.
func (s *PaymentsService) GetStatus(ctx context.Context, userID, clientTransactionID string) (*PaymentStatusResponse, error) {
	if userID == "" {
		return nil, fmt.Errorf("starmoney: user_id is required")
	}
	if clientTransactionID == "" {
		return nil, fmt.Errorf("starmoney: client_transaction_id is required")
	}
	var status PaymentStatusResponse
	err := s.client.do(ctx, requestDescriptor{
		method: http.MethodGet,
		path:   "/payments/status/" + url.PathEscape(clientTransactionID),
		scope:  UserScope(userID),
	}, &status)
	if err != nil {
		return nil, err
	}
	return &status, nil
}
