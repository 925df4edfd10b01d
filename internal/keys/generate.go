package keys

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const rsaKeyBits = 2048

// GenerateRSA creates a fresh RS256 key generation.
func GenerateRSA(kid string, createdAt time.Time) (*SigningKey, error) {
	priv, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return nil, fmt.Errorf("keys: generate rsa: %w", err)
	}
	return NewSigningKey(kid, createdAt, priv, nil)
}

// EncodePrivateKeyPEM writes the private key as PKCS#8.
func EncodePrivateKeyPEM(priv crypto.Signer) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("keys: marshal private key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}

// EncodePublicKeyPEM writes the public key as SubjectPublicKeyInfo.
func EncodePublicKeyPEM(pub crypto.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("keys: marshal public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

// WriteKeyFiles stores a generation in dir using the directory naming scheme.
// The private file is written last so a watcher never sees a half pair as
// signable.
func WriteKeyFiles(dir string, key *SigningKey) (privatePath, publicPath string, err error) {
	privPEM, err := EncodePrivateKeyPEM(key.Private)
	if err != nil {
		return "", "", err
	}
	pubPEM, err := EncodePublicKeyPEM(key.Public)
	if err != nil {
		return "", "", err
	}

	privName, pubName := KeyFileNames(key.CreatedAt, key.ID)
	privatePath = filepath.Join(dir, privName)
	publicPath = filepath.Join(dir, pubName)

	if err := os.WriteFile(publicPath, pubPEM, 0o644); err != nil {
		return "", "", fmt.Errorf("keys: write %s: %w", publicPath, err)
	}
	if err := os.WriteFile(privatePath, privPEM, 0o600); err != nil {
		return "", "", fmt.Errorf("keys: write %s: %w", privatePath, err)
	}
	return privatePath, publicPath, nil
}
