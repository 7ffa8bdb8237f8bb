package starmoney

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func parseClaims(t *testing.T, secret []byte, value string) jwt.RegisteredClaims {
	t.Helper()
	var claims jwt.RegisteredClaims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if _, err := parser.ParseWithClaims(value, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}); err != nil {
		t.Fatalf("parse token: %v", err)
	}
	return claims
}

func TestMintServiceToken(t *testing.T) {
	t.Parallel()

	cred := Credential{Secret: []byte("jwt-secret"), Issuer: "acme-payments"}
	now := time.Now().UTC().Truncate(time.Second)

	tok, err := mintToken(ServiceScope(), cred, 15*time.Minute, now)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if !tok.Scope.IsService() {
		t.Fatalf("expected service scope, got %s", tok.Scope)
	}
	if !tok.IssuedAt.Equal(now) {
		t.Fatalf("issued at %v, want %v", tok.IssuedAt, now)
	}
	if want := now.Add(15 * time.Minute); !tok.ExpiresAt.Equal(want) {
		t.Fatalf("expires at %v, want %v", tok.ExpiresAt, want)
	}

	claims := parseClaims(t, cred.Secret, tok.Value)
	if claims.Issuer != "acme-payments" {
		t.Fatalf("issuer claim %q", claims.Issuer)
	}
	if claims.Subject != "acme-payments" {
		t.Fatalf("service token subject %q, want issuer", claims.Subject)
	}
	if !claims.ExpiresAt.Time.Equal(tok.ExpiresAt) {
		t.Fatalf("exp claim %v, want %v", claims.ExpiresAt.Time, tok.ExpiresAt)
	}
}

func TestMintUserToken(t *testing.T) {
	t.Parallel()

	cred := Credential{Secret: []byte("jwt-secret"), Issuer: "acme-payments"}
	now := time.Now().UTC().Truncate(time.Second)

	tok, err := mintToken(UserScope("usr_42"), cred, 15*time.Minute, now)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	claims := parseClaims(t, cred.Secret, tok.Value)
	if claims.Subject != "usr_42" {
		t.Fatalf("user token subject %q", claims.Subject)
	}
	if claims.Issuer != "acme-payments" {
		t.Fatalf("issuer claim %q", claims.Issuer)
	}
}

func TestMintDistinctScopesDistinctTokens(t *testing.T) {
	t.Parallel()

	cred := Credential{Secret: []byte("jwt-secret"), Issuer: "acme-payments"}
	now := time.Now().UTC()

	service, err := mintToken(ServiceScope(), cred, time.Hour, now)
	if err != nil {
		t.Fatalf("mint service: %v", err)
	}
	user, err := mintToken(UserScope("usr_1"), cred, time.Hour, now)
	if err != nil {
		t.Fatalf("mint user: %v", err)
	}
	if service.Value == user.Value {
		t.Fatal("service and user tokens must differ")
	}
}
