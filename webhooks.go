package starmoney

import (
	"context"
	"net/http"
)

// WebhooksService manages event subscriptions. Subscriptions are
// service-level operations.
type WebhooksService struct {
	client *Client
}

// EventSubscription selects one event type to deliver, optionally filtered to
// specific users. A nil SubscribedUsers list receives events for all users.
type EventSubscription struct {
	EventType       WebhookEventType `json:"event_type" validate:"required"`
	SubscribedUsers []string         `json:"subscribed_users"`
}

// SubscriptionCreateRequest subscribes one endpoint to a single event type.
// The webhook secret is shared with StarMoney and later verifies delivery
// signatures; keep it distinct from the JWT secret.
type SubscriptionCreateRequest struct {
	EndpointURL     string           `json:"endpoint_url" validate:"required,url"`
	WebhookSecret   string           `json:"webhook_secret" validate:"required"`
	EventType       WebhookEventType `json:"event_type" validate:"required"`
	SubscribedUsers []string         `json:"subscribed_users"`
	RetryAttempts   int              `json:"retry_attempts" validate:"gte=0,max=10"`
	TimeoutSeconds  int              `json:"timeout_seconds" validate:"gte=0,max=60"`
}

// Validate checks the request locally before it is sent.
func (r SubscriptionCreateRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return normalizeValidationError(err)
	}
	return nil
}

// BatchSubscribeRequest subscribes one endpoint to several event types in a
// single call.
type BatchSubscribeRequest struct {
	EndpointURL        string              `json:"endpoint_url" validate:"required,url"`
	WebhookSecret      string              `json:"webhook_secret" validate:"required"`
	EventSubscriptions []EventSubscription `json:"event_subscriptions" validate:"required,min=1,dive"`
	RetryAttempts      int                 `json:"retry_attempts" validate:"gte=0,max=10"`
	TimeoutSeconds     int                 `json:"timeout_seconds" validate:"gte=0,max=60"`
}

// Validate checks the request locally before it is sent.
func (r BatchSubscribeRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return normalizeValidationError(err)
	}
	return nil
}

// Subscription confirms a created event subscription.
type Subscription struct {
	SubscriptionID string           `json:"subscription_id"`
	EndpointURL    string           `json:"endpoint_url"`
	EventType      WebhookEventType `json:"event_type"`
	CreatedAt      string           `json:"created_at"`
}

// BatchSubscribeResponse confirms a batch subscription.
type BatchSubscribeResponse struct {
	TotalCreated  int            `json:"total_created"`
	Subscriptions []Subscription `json:"subscriptions"`
}

const (
	defaultWebhookRetryAttempts  = 3
	defaultWebhookTimeoutSeconds = 10
)

// CreateSubscription subscribes an endpoint to a single event type.
func (s *WebhooksService) CreateSubscription(ctx context.Context, req SubscriptionCreateRequest) (*Subscription, error) {
	applyWebhookDefaults(&req.RetryAttempts, &req.TimeoutSeconds)
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var subscription Subscription
	err := s.client.do(ctx, requestDescriptor{
		method:         http.MethodPost,
		path:           "/webhook-subscriptions",
		scope:          ServiceScope(),
		body:           req,
		idempotencyKey: NewIdempotencyKey(),
	}, &subscription)
	if err != nil {
		return nil, err
	}
	return &subscription, nil
}

// BatchSubscribe subscribes an endpoint to several event types at once.
func (s *WebhooksService) BatchSubscribe(ctx context.Context, req BatchSubscribeRequest) (*BatchSubscribeResponse, error) {
	applyWebhookDefaults(&req.RetryAttempts, &req.TimeoutSeconds)
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var resp BatchSubscribeResponse
	err := s.client.do(ctx, requestDescriptor{
		method:         http.MethodPost,
		path:           "/webhook-subscriptions/batch",
		scope:          ServiceScope(),
		body:           req,
		idempotencyKey: NewIdempotencyKey(),
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func applyWebhookDefaults(retryAttempts, timeoutSeconds *int) {
	if *retryAttempts == 0 {
		*retryAttempts = defaultWebhookRetryAttempts
	}
	if *timeoutSeconds == 0 {
		*timeoutSeconds = defaultWebhookTimeoutSeconds
	}
}
