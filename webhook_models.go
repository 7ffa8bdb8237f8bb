package starmoney

import (
	"encoding/json"

	"github.com/oapi-codegen/runtime"
)

// WebhookEventType enumerates the payment events StarMoney delivers.
type WebhookEventType string

const (
	WebhookEventTypePaymentInitiated WebhookEventType = "payment.initiated"
	WebhookEventTypePaymentCompleted WebhookEventType = "payment.completed"
	WebhookEventTypePaymentFailed    WebhookEventType = "payment.failed"
)

// WebhookEvent is a verified webhook delivery. Data holds the event payload
// as a union; use the As* accessors matching EventType, or [EventData.AsMap]
// for untyped access.
type WebhookEvent struct {
	EventType WebhookEventType `json:"event_type"`
	Data      EventData        `json:"data"`
}

// PaymentInitiatedData is the payload of a payment.initiated event.
type PaymentInitiatedData struct {
	TransactionID       string `json:"transaction_id"`
	ClientTransactionID string `json:"client_transaction_id"`
	UserID              string `json:"user_id"`
	Amount              string `json:"amount"`
	Currency            string `json:"currency"`
	RailName            string `json:"rail_name"`
	InitiatedAt         string `json:"initiated_at"`
}

// PaymentCompletedData is the payload of a payment.completed event.
type PaymentCompletedData struct {
	TransactionID       string `json:"transaction_id"`
	ClientTransactionID string `json:"client_transaction_id"`
	UserID              string `json:"user_id"`
	Amount              string `json:"amount"`
	Currency            string `json:"currency"`
	RailName            string `json:"rail_name"`
	CompletedAt         string `json:"completed_at"`
}

// PaymentFailedData is the payload of a payment.failed event.
type PaymentFailedData struct {
	TransactionID       string `json:"transaction_id"`
	ClientTransactionID string `json:"client_transaction_id"`
	UserID              string `json:"user_id"`
	Amount              string `json:"amount"`
	Currency            string `json:"currency"`
	RailName            string `json:"rail_name"`
	FailureReason       string `json:"failure_reason"`
	FailedAt            string `json:"failed_at"`
}

// EventData holds the event payload union.
type EventData struct {
	union json.RawMessage
}

// AsMap returns the union data as a generic mapping.
func (t EventData) AsMap() (map[string]any, error) {
	var body map[string]any
	err := json.Unmarshal(t.union, &body)
	return body, err
}

// AsPaymentInitiated returns the union data inside the EventData as a PaymentInitiatedData
func (t EventData) AsPaymentInitiated() (PaymentInitiatedData, error) {
	var body PaymentInitiatedData
	err := json.Unmarshal(t.union, &body)
	return body, err
}

// FromPaymentInitiated overwrites any union data inside the EventData as the provided PaymentInitiatedData
func (t *EventData) FromPaymentInitiated(v PaymentInitiatedData) error {
	b, err := json.Marshal(v)
	t.union = b
	return err
}

// MergePaymentInitiated performs a merge with any union data inside the EventData, using the provided PaymentInitiatedData
func (t *EventData) MergePaymentInitiated(v PaymentInitiatedData) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	merged, err := runtime.JSONMerge(t.union, b)
	t.union = merged
	return err
}

// AsPaymentCompleted returns the union data inside the EventData as a PaymentCompletedData
func (t EventData) AsPaymentCompleted() (PaymentCompletedData, error) {
	var body PaymentCompletedData
	err := json.Unmarshal(t.union, &body)
	return body, err
}

// FromPaymentCompleted overwrites any union data inside the EventData as the provided PaymentCompletedData
func (t *EventData) FromPaymentCompleted(v PaymentCompletedData) error {
	b, err := json.Marshal(v)
	t.union = b
	return err
}

// MergePaymentCompleted performs a merge with any union data inside the EventData, using the provided PaymentCompletedData
func (t *EventData) MergePaymentCompleted(v PaymentCompletedData) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	merged, err := runtime.JSONMerge(t.union, b)
	t.union = merged
	return err
}

// AsPaymentFailed returns the union data inside the EventData as a PaymentFailedData
func (t EventData) AsPaymentFailed() (PaymentFailedData, error) {
	var body PaymentFailedData
	err := json.Unmarshal(t.union, &body)
	return body, err
}

// FromPaymentFailed overwrites any union data inside the EventData as the provided PaymentFailedData
func (t *EventData) FromPaymentFailed(v PaymentFailedData) error {
	b, err := json.Marshal(v)
	t.union = b
	return err
}

// MergePaymentFailed performs a merge with any union data inside the EventData, using the provided PaymentFailedData
func (t *EventData) MergePaymentFailed(v PaymentFailedData) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	merged, err := runtime.JSONMerge(t.union, b)
	t.union = merged
	return err
}

// MarshalJSON serializes the underlying union for EventData.
func (t EventData) MarshalJSON() ([]byte, error) {
	b, err := t.union.MarshalJSON()
	return b, err
}

// UnmarshalJSON loads union data for EventData.
func (t *EventData) UnmarshalJSON(b []byte) error {
	err := t.union.UnmarshalJSON(b)
	return err
}
