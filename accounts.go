package starmoney

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// AccountsService manages user accounts and their payment rail links.
// Account creation is a service-level operation; rail linking acts on behalf
// of the user.
type AccountsService struct {
	client *Client
}

// AccountCreateRequest is the payload for creating a user account.
type AccountCreateRequest struct {
	FirstName      string `json:"first_name" validate:"required"`
	LastName       string `json:"last_name" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	PhoneNumber    string `json:"phone_number" validate:"required"`
	DocumentType   string `json:"document_type" validate:"required"`
	DocumentNumber string `json:"document_number" validate:"required"`
	Address        string `json:"address" validate:"required"`
}

// Validate checks the request locally before it is sent.
func (r AccountCreateRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return normalizeValidationError(err)
	}
	return nil
}

// Account is a created user account.
type Account struct {
	UserID      string `json:"user_id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

// RailLink confirms a payment rail linked to an account.
type RailLink struct {
	UserID   string `json:"user_id"`
	RailName string `json:"rail_name"`
	Status   string `json:"status"`
	LinkedAt string `json:"linked_at"`
}

// Create opens a new user account. Uses the service scope.
func (s *AccountsService) Create(ctx context.Context, req AccountCreateRequest) (*Account, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var account Account
	err := s.client.do(ctx, requestDescriptor{
		method:         http.MethodPost,
		path:           "/accounts",
		scope:          ServiceScope(),
		body:           req,
		idempotencyKey: NewIdempotencyKey(),
	}, &account)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// LinkRail attaches a payment rail to the user's account.
func (s *AccountsService) LinkRail(ctx context.Context, userID, railName string) (*RailLink, error) {
	if userID == "" {
		return nil, fmt.Errorf("starmoney: user_id is required")
	}
	if railName == "" {
		railName = DefaultRailName
	}
	var link RailLink
	err := s.client.do(ctx, requestDescriptor{
		method:         http.MethodPost,
		path:           "/accounts/rails/" + url.PathEscape(railName),
		scope:          UserScope(userID),
		idempotencyKey: NewIdempotencyKey(),
	}, &link)
	if err != nil {
		return nil, err
	}
	return &link, nil
}
