package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/keys"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid access token")

// PublicKeys resolves a verification key by kid.
type PublicKeys interface {
	PublicKey(kid string) (keys.PublicKey, bool)
}

// Verifier validates access tokens issued by this service.
type Verifier struct {
	keys     PublicKeys
	issuer   string
	audience string
	now      func() time.Time
}

func NewVerifier(publicKeys PublicKeys, issuer, audience string) *Verifier {
	return &Verifier{
		keys:     publicKeys,
		issuer:   issuer,
		audience: audience,
		now:      time.Now,
	}
}

func (v *Verifier) Verify(raw string) (*Claims, error) {
	claims := &Claims{}

	tok, err := jwt.ParseWithClaims(raw, claims, v.keyFunc,
		jwt.WithValidMethods([]string{"RS256", "ES256", "ES384", "ES512"}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil || !tok.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub", ErrInvalidToken)
	}

	return claims, nil
}

func (v *Verifier) keyFunc(tok *jwt.Token) (any, error) {
	kid, _ := tok.Header["kid"].(string)
	if kid == "" {
		return nil, errors.New("missing kid header")
	}

	key, ok := v.keys.PublicKey(kid)
	if !ok {
		return nil, fmt.Errorf("unknown kid %q", kid)
	}
	if tok.Method.Alg() != key.Algorithm {
		return nil, fmt.Errorf("kid %q does not sign with %s", kid, tok.Method.Alg())
	}
	return key.Key, nil
}
