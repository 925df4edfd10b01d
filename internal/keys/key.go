package keys

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoKeysAvailable means no key with private material is loaded. It is a
// deployment defect, never a client error.
var ErrNoKeysAvailable = errors.New("no keys available for signing")

// SigningKey is one loaded key generation. Private is nil for keys that are
// only kept so previously issued tokens stay verifiable.
type SigningKey struct {
	ID        string
	Algorithm string
	CreatedAt time.Time
	Private   crypto.Signer
	Public    crypto.PublicKey
}

func (k *SigningKey) CanSign() bool {
	return k.Private != nil
}

func (k *SigningKey) publicOnly() *SigningKey {
	c := *k
	c.Private = nil
	return &c
}

// PublicKey is the verification half of a key as published in the JWKS.
type PublicKey struct {
	ID        string
	Algorithm string
	Key       crypto.PublicKey
	Current   bool
}

// NewSigningKey validates the pair and derives the JWS algorithm.
// pub may be nil when priv is set, and priv may be nil for a retired key.
func NewSigningKey(id string, createdAt time.Time, priv crypto.Signer, pub crypto.PublicKey) (*SigningKey, error) {
	if id == "" {
		return nil, errors.New("keys: empty key id")
	}
	if priv == nil && pub == nil {
		return nil, fmt.Errorf("keys: %s has no key material", id)
	}

	if priv != nil {
		derived := priv.Public()
		if pub == nil {
			pub = derived
		} else if eq, ok := pub.(interface{ Equal(crypto.PublicKey) bool }); !ok || !eq.Equal(derived) {
			return nil, fmt.Errorf("keys: %s public key does not match private key", id)
		}
	}

	alg, err := algorithmFor(pub)
	if err != nil {
		return nil, fmt.Errorf("keys: %s: %w", id, err)
	}

	return &SigningKey{
		ID:        id,
		Algorithm: alg,
		CreatedAt: createdAt,
		Private:   priv,
		Public:    pub,
	}, nil
}

func algorithmFor(pub crypto.PublicKey) (string, error) {
	switch k := pub.(type) {
	case *rsa.PublicKey:
		if k.N.BitLen() < 2048 {
			return "", fmt.Errorf("rsa key of %d bits is too small", k.N.BitLen())
		}
		return jwt.SigningMethodRS256.Alg(), nil
	case *ecdsa.PublicKey:
		switch k.Curve {
		case elliptic.P256():
			return jwt.SigningMethodES256.Alg(), nil
		case elliptic.P384():
			return jwt.SigningMethodES384.Alg(), nil
		case elliptic.P521():
			return jwt.SigningMethodES512.Alg(), nil
		}
		return "", errors.New("unsupported ec curve")
	}
	return "", fmt.Errorf("unsupported key type %T", pub)
}

// ParsePrivateKeyPEM accepts RSA (PKCS#1 or PKCS#8) and EC (SEC1 or PKCS#8) keys.
func ParsePrivateKeyPEM(data []byte) (crypto.Signer, error) {
	if rsaKey, err := jwt.ParseRSAPrivateKeyFromPEM(data); err == nil {
		return rsaKey, nil
	}
	ecKey, err := jwt.ParseECPrivateKeyFromPEM(data)
	if err != nil {
		return nil, errors.New("keys: not a PEM encoded RSA or EC private key")
	}
	return ecKey, nil
}

// ParsePublicKeyPEM accepts SPKI, PKCS#1 and certificate encoded keys.
func ParsePublicKeyPEM(data []byte) (crypto.PublicKey, error) {
	if rsaKey, err := jwt.ParseRSAPublicKeyFromPEM(data); err == nil {
		return rsaKey, nil
	}
	ecKey, err := jwt.ParseECPublicKeyFromPEM(data)
	if err != nil {
		return nil, errors.New("keys: not a PEM encoded RSA or EC public key")
	}
	return ecKey, nil
}
