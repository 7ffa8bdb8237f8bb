package starmoney

import (
	"time"
)

type config struct {
	issuer         string
	baseURL        string
	transport      Transport
	timeout        time.Duration
	tokenLifetime  time.Duration
	refreshMargin  time.Duration
	maxAttempts    int
	retryBaseDelay time.Duration
	retryMaxDelay  time.Duration
	userAgent      string
	clock          func() time.Time
}

// Option customizes client behavior.
type Option func(*config)

// WithIssuer sets the issuer claim baked into minted tokens. The issuer must
// be registered with StarMoney.
func WithIssuer(issuer string) Option {
	return func(cfg *config) {
		cfg.issuer = issuer
	}
}

// WithBaseURL points the client at a specific StarMoney environment.
func WithBaseURL(baseURL string) Option {
	return func(cfg *config) {
		cfg.baseURL = baseURL
	}
}

// WithTransport replaces the HTTP transport used for dispatch. The supplied
// transport owns connection pooling and timeouts; WithTimeout has no effect
// when a custom transport is installed.
func WithTransport(transport Transport) Option {
	return func(cfg *config) {
		cfg.transport = transport
	}
}

// WithTimeout sets the per-request timeout of the default transport.
func WithTimeout(timeout time.Duration) Option {
	if timeout <= 0 {
		panic("starmoney: timeout must be positive")
	}
	return func(cfg *config) {
		cfg.timeout = timeout
	}
}

// WithTokenLifetime overrides how long minted bearer tokens stay valid. The
// lifetime must exceed the refresh margin or every lookup would mint.
func WithTokenLifetime(lifetime time.Duration) Option {
	if lifetime <= defaultRefreshMargin {
		panic("starmoney: token lifetime must exceed the refresh margin")
	}
	return func(cfg *config) {
		cfg.tokenLifetime = lifetime
	}
}

// WithMaxAttempts bounds how many times a call is dispatched before a
// transient failure is surfaced. Attempts include the initial dispatch.
func WithMaxAttempts(attempts int) Option {
	if attempts < 1 {
		panic("starmoney: max attempts must be at least 1")
	}
	return func(cfg *config) {
		cfg.maxAttempts = attempts
	}
}

// WithUserAgent overrides the User-Agent header sent with every request.
func WithUserAgent(userAgent string) Option {
	return func(cfg *config) {
		cfg.userAgent = userAgent
	}
}

// withClock provides deterministic time in tests.
func withClock(fn func() time.Time) Option {
	return func(cfg *config) {
		cfg.clock = fn
	}
}

// withRetryDelays tightens backoff delays so retry tests run fast.
func withRetryDelays(base, max time.Duration) Option {
	return func(cfg *config) {
		cfg.retryBaseDelay = base
		cfg.retryMaxDelay = max
	}
}
