// Package providertest issues provider-style ID tokens for tests.
package providertest

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
)

// Signer mints RS256 tokens and exposes the matching key set.
type Signer struct {
	key *rsa.PrivateKey
}

func NewSigner(t testing.TB) *Signer {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	return &Signer{key: key}
}

func (s *Signer) KeySet() oidc.KeySet {
	return &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&s.key.PublicKey}}
}

// Sign returns a compact JWT over claims.
func (s *Signer) Sign(t testing.TB, claims jwt.MapClaims) string {
	t.Helper()

	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = "test-key"

	raw, err := tok.SignedString(s.key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return raw
}

// Claims returns a valid claim set for issuer/audience/subject.
func Claims(issuer, audience, subject, email string) jwt.MapClaims {
	now := time.Now()
	c := jwt.MapClaims{
		"iss": issuer,
		"aud": audience,
		"sub": subject,
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	}
	if email != "" {
		c["email"] = email
		c["email_verified"] = true
	}
	return c
}
