package starmoney

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL     = "https://api.starmoney.com/v1"
	defaultIssuer      = "starmoney-sdk"
	defaultTimeout     = 30 * time.Second
	defaultUserAgent   = "starmoney-go/1.0"
	defaultMaxAttempts = 3

	retryBaseDelay = 200 * time.Millisecond
	retryMaxDelay  = 2 * time.Second
)

// Client is the StarMoney API client. A single instance is safe for
// concurrent use; the token cache is the only mutable state it owns.
type Client struct {
	cfg     config
	baseURL string
	tokens  *tokenCache

	// Accounts manages user accounts and payment rail links.
	Accounts *AccountsService
	// Beneficiaries manages payment beneficiaries.
	Beneficiaries *BeneficiariesService
	// Payments sends payments and tracks their status.
	Payments *PaymentsService
	// Webhooks manages event subscriptions.
	Webhooks *WebhooksService
}

// New builds a Client signing with the given shared secret. Configuration is
// validated here and immutable afterward.
func New(secret []byte, opts ...Option) (*Client, error) {
	cfg := config{
		issuer:         defaultIssuer,
		baseURL:        defaultBaseURL,
		timeout:        defaultTimeout,
		tokenLifetime:  defaultTokenLifetime,
		refreshMargin:  defaultRefreshMargin,
		maxAttempts:    defaultMaxAttempts,
		retryBaseDelay: retryBaseDelay,
		retryMaxDelay:  retryMaxDelay,
		userAgent:      defaultUserAgent,
		clock:          time.Now,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if len(secret) == 0 {
		return nil, errors.New("starmoney: secret is required")
	}
	if cfg.issuer == "" {
		return nil, errors.New("starmoney: issuer is required")
	}
	parsed, err := url.Parse(cfg.baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("starmoney: base URL %q is not a valid absolute URL", cfg.baseURL)
	}
	if cfg.transport == nil {
		cfg.transport = &http.Client{Timeout: cfg.timeout}
	}

	cred := Credential{Secret: secret, Issuer: cfg.issuer}
	c := &Client{
		cfg:     cfg,
		baseURL: strings.TrimRight(cfg.baseURL, "/"),
		tokens:  newTokenCache(cred, cfg.tokenLifetime, cfg.refreshMargin, cfg.clock),
	}
	c.Accounts = &AccountsService{client: c}
	c.Beneficiaries = &BeneficiariesService{client: c}
	c.Payments = &PaymentsService{client: c}
	c.Webhooks = &WebhooksService{client: c}
	return c, nil
}

// InvalidateTokens drops all cached bearer tokens. Call after rotating the
// shared secret server-side, or on an unexpected 401, to force fresh mints.
func (c *Client) InvalidateTokens() {
	c.tokens.invalidate()
}

// Close releases idle connections held by the default transport. Custom
// transports installed via [WithTransport] stay owned by the caller.
func (c *Client) Close() {
	if closer, ok := c.cfg.transport.(interface{ CloseIdleConnections() }); ok {
		closer.CloseIdleConnections()
	}
}
