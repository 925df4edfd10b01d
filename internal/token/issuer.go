package token

import (
	"fmt"
	"time"

	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/keys"

	"github.com/golang-jwt/jwt/v5"
)

// Lifetime of every access token.
const Lifetime = 15 * time.Minute

// Claims is the payload of an access token.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Token is a signed access token and the facts a response needs about it.
type Token struct {
	AccessToken string
	KeyID       string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// ExpiresIn is the lifetime in whole seconds.
func (t *Token) ExpiresIn() int64 {
	return int64(t.ExpiresAt.Sub(t.IssuedAt) / time.Second)
}

// SigningKeys supplies the key to sign with.
type SigningKeys interface {
	Current() (*keys.SigningKey, error)
}

type Issuer struct {
	keys     SigningKeys
	issuer   string
	audience string
	now      func() time.Time
}

type IssuerOption func(*Issuer)

func WithIssuerClock(now func() time.Time) IssuerOption {
	return func(i *Issuer) { i.now = now }
}

func NewIssuer(signingKeys SigningKeys, issuer, audience string, opts ...IssuerOption) *Issuer {
	i := &Issuer{
		keys:     signingKeys,
		issuer:   issuer,
		audience: audience,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Issue signs a token for the user with the current key. ErrNoKeysAvailable
// from the key store is returned unwrapped.
func (i *Issuer) Issue(userID, email string) (*Token, error) {
	key, err := i.keys.Current()
	if err != nil {
		return nil, err
	}

	method := jwt.GetSigningMethod(key.Algorithm)
	if method == nil {
		return nil, fmt.Errorf("token: unsupported algorithm %q", key.Algorithm)
	}

	// JWT times have second precision
	iat := i.now().Truncate(time.Second)
	exp := iat.Add(Lifetime)

	tok := jwt.NewWithClaims(method, Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings{i.audience},
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	tok.Header["kid"] = key.ID

	signed, err := tok.SignedString(key.Private)
	if err != nil {
		return nil, fmt.Errorf("token: sign: %w", err)
	}

	return &Token{
		AccessToken: signed,
		KeyID:       key.ID,
		IssuedAt:    iat,
		ExpiresAt:   exp,
	}, nil
}
