package starmoney

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// defaultTokenLifetime bounds how long a minted bearer token stays valid.
const defaultTokenLifetime = 15 * time.Minute

// Credential holds the signing material shared with the StarMoney server.
// Immutable for the lifetime of the client.
type Credential struct {
	Secret []byte
	Issuer string
}

// TokenScope identifies what a token authorizes: the service itself, or a
// single user. The zero value is the service scope. Scopes are comparable and
// key the token cache.
type TokenScope struct {
	userID string
}

// ServiceScope returns the issuer-only scope used for service-to-service
// operations such as account creation and webhook subscriptions.
func ServiceScope() TokenScope { return TokenScope{} }

// UserScope returns a scope authorizing operations on behalf of one user.
func UserScope(userID string) TokenScope { return TokenScope{userID: userID} }

// IsService reports whether the scope is issuer-only.
func (s TokenScope) IsService() bool { return s.userID == "" }

// UserID returns the scoped user, or the empty string for the service scope.
func (s TokenScope) UserID() string { return s.userID }

func (s TokenScope) String() string {
	if s.IsService() {
		return "service"
	}
	return "user:" + s.userID
}

// Token is a minted bearer credential. Owned by the token cache; replaced,
// never mutated, once issued.
type Token struct {
	Scope     TokenScope
	Value     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// mintToken builds and signs an HS256 JWT for the given scope. The subject is
// the issuer for the service scope and the user ID otherwise. Signing is a
// pure local operation; a failure here means the credential is misconfigured.
func mintToken(scope TokenScope, cred Credential, lifetime time.Duration, now time.Time) (Token, error) {
	subject := cred.Issuer
	if !scope.IsService() {
		subject = scope.UserID()
	}
	expiresAt := now.Add(lifetime)
	claims := jwt.RegisteredClaims{
		Issuer:    cred.Issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cred.Secret)
	if err != nil {
		return Token{}, fmt.Errorf("starmoney: sign token for %s: %w", scope, err)
	}
	return Token{
		Scope:     scope,
		Value:     signed,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	}, nil
}
