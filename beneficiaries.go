package starmoney

import (
	"context"
	"fmt"
	"net/http"
)

// BeneficiariesService manages the payees a user can send payments to. All
// operations run in the user's scope.
type BeneficiariesService struct {
	client *Client
}

// BeneficiaryCreateRequest is the payload for registering a beneficiary.
type BeneficiaryCreateRequest struct {
	Name     string `json:"name" validate:"required"`
	IBAN     string `json:"iban" validate:"required"`
	Currency string `json:"currency" validate:"required,currency"`
	BankName string `json:"bank_name" validate:"required"`
	Address  string `json:"address" validate:"required"`
}

// Validate checks the request locally before it is sent.
func (r BeneficiaryCreateRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return normalizeValidationError(err)
	}
	return nil
}

// Beneficiary is a registered payee.
type Beneficiary struct {
	BeneficiaryID string `json:"beneficiary_id"`
	UserID        string `json:"user_id"`
	Name          string `json:"name"`
	IBAN          string `json:"iban"`
	Currency      string `json:"currency"`
	BankName      string `json:"bank_name"`
	Address       string `json:"address"`
	CreatedAt     string `json:"created_at"`
}

// Create registers a beneficiary for the user.
func (s *BeneficiariesService) Create(ctx context.Context, userID string, req BeneficiaryCreateRequest) (*Beneficiary, error) {
	if userID == "" {
		return nil, fmt.Errorf("starmoney: user_id is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var beneficiary Beneficiary
	err := s.client.do(ctx, requestDescriptor{
		method:         http.MethodPost,
		path:           "/beneficiaries",
		scope:          UserScope(userID),
		body:           req,
		idempotencyKey: NewIdempotencyKey(),
	}, &beneficiary)
	if err != nil {
		return nil, err
	}
	return &beneficiary, nil
}

// List returns every beneficiary registered for the user.
func (s *BeneficiariesService) List(ctx context.Context, userID string) ([]Beneficiary, error) {
	if userID == "" {
		return nil, fmt.Errorf("starmoney: user_id is required")
	}
	var beneficiaries []Beneficiary
	err := s.client.do(ctx, requestDescriptor{
		method: http.MethodGet,
		path:   "/beneficiaries",
		scope:  UserScope(userID),
	}, &beneficiaries)
	if err != nil {
		return nil, err
	}
	return beneficiaries, nil
}
