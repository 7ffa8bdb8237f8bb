package starmoney

import (
	"context"
	"sync"
	"time"
)

// defaultRefreshMargin is how long before expiry a cached token is treated as
// stale and replaced.
const defaultRefreshMargin = 30 * time.Second

// tokenCache holds at most one live token per scope and mints replacements
// before expiry. Minting is single-flight per scope: concurrent callers that
// find the same scope missing or stale share one mint instead of racing. The
// key space stays small (the service scope plus one entry per active user),
// so entries are only ever evicted by replacement.
type tokenCache struct {
	cred          Credential
	lifetime      time.Duration
	refreshMargin time.Duration
	clock         func() time.Time
	mint          func(scope TokenScope, cred Credential, lifetime time.Duration, now time.Time) (Token, error)

	mu      sync.Mutex
	tokens  map[TokenScope]Token
	pending map[TokenScope]*mintFlight
}

// mintFlight is the in-flight handle late arrivals attach to. The minting
// caller publishes token/err and then closes done; waiters only read after
// done is closed.
type mintFlight struct {
	done  chan struct{}
	token Token
	err   error
}

func newTokenCache(cred Credential, lifetime, refreshMargin time.Duration, clock func() time.Time) *tokenCache {
	return &tokenCache{
		cred:          cred,
		lifetime:      lifetime,
		refreshMargin: refreshMargin,
		clock:         clock,
		mint:          mintToken,
		tokens:        make(map[TokenScope]Token),
		pending:       make(map[TokenScope]*mintFlight),
	}
}

// getOrMint returns a token for scope that is valid for at least the refresh
// margin. A caller cancelled while waiting on another caller's mint abandons
// only its own wait; the mint itself completes and is published for the
// remaining waiters.
func (c *tokenCache) getOrMint(ctx context.Context, scope TokenScope) (Token, error) {
	c.mu.Lock()
	now := c.clock()
	if tok, ok := c.tokens[scope]; ok && tok.ExpiresAt.Sub(now) > c.refreshMargin {
		c.mu.Unlock()
		return tok, nil
	}
	if flight, ok := c.pending[scope]; ok {
		c.mu.Unlock()
		select {
		case <-ctx.Done():
			return Token{}, ctx.Err()
		case <-flight.done:
			return flight.token, flight.err
		}
	}
	flight := &mintFlight{done: make(chan struct{})}
	c.pending[scope] = flight
	c.mu.Unlock()

	tok, err := c.mint(scope, c.cred, c.lifetime, now)

	c.mu.Lock()
	if err == nil {
		c.tokens[scope] = tok
	}
	delete(c.pending, scope)
	c.mu.Unlock()

	flight.token, flight.err = tok, err
	close(flight.done)
	return tok, err
}

// invalidate drops every cached token, forcing fresh mints on the next use.
func (c *tokenCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = make(map[TokenScope]Token)
}
