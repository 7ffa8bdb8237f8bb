// Package starmoney is the Go client for the StarMoney Bank API. It covers
// account creation, beneficiary management, payment submission and status
// tracking, and webhook subscriptions, and independently verifies inbound
// webhook deliveries signed by StarMoney.
//
// # Client
//
// Build a [Client] with [New] and your shared JWT secret. Every call resolves
// a short-lived bearer token from the client's token cache (service-level or
// scoped to a user), attaches an idempotency key on state-changing calls, and
// retries transient failures with exponential backoff. Failures surface as
// typed [Error] values that callers can classify with helpers such as
// [IsAuthentication] and [IsDuplicateResource].
//
//	client, err := starmoney.New([]byte(secret),
//		starmoney.WithIssuer("acme-payments"),
//		starmoney.WithBaseURL("https://api.starmoney.com/v1"),
//	)
//
// # Webhooks
//
// Inbound deliveries carry an HMAC-SHA256 signature in the
// X-Webhook-Signature header. Use [NewWebhookVerifier] with the subscription
// secret to authenticate a payload before trusting it;
// [WebhookVerifier.ParseWebhook] verifies and decodes in one step.
// Verification is stateless and safe for any number of concurrent deliveries.
package starmoney
