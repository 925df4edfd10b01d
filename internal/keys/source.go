package keys

import (
	"bytes"
	"context"
	"crypto"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/logger"
)

const (
	privateSuffix = ".key.pem"
	publicSuffix  = ".pub.pem"
)

// Source enumerates key material. Order does not matter; the Store sorts.
type Source interface {
	Load(ctx context.Context) ([]*SigningKey, error)
}

// EnvSource is single-key mode: one pair passed through configuration as
// base64 encoded PEM. Plain PEM is accepted too.
type EnvSource struct {
	KeyID         string
	PrivateKeyPEM string
	PublicKeyPEM  string
}

func (s EnvSource) Load(context.Context) ([]*SigningKey, error) {
	if s.KeyID == "" || s.PrivateKeyPEM == "" {
		logger.Warn("single-key mode has no key configured", map[string]any{
			"key_id_set":      s.KeyID != "",
			"private_key_set": s.PrivateKeyPEM != "",
		})
		return nil, nil
	}

	privPEM, err := decodeEnvPEM(s.PrivateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("keys: private key: %w", err)
	}
	priv, err := ParsePrivateKeyPEM(privPEM)
	if err != nil {
		return nil, err
	}

	var pub crypto.PublicKey
	if s.PublicKeyPEM != "" {
		pubPEM, err := decodeEnvPEM(s.PublicKeyPEM)
		if err != nil {
			return nil, fmt.Errorf("keys: public key: %w", err)
		}
		if pub, err = ParsePublicKeyPEM(pubPEM); err != nil {
			return nil, err
		}
	}

	key, err := NewSigningKey(s.KeyID, time.Time{}, priv, pub)
	if err != nil {
		return nil, err
	}
	return []*SigningKey{key}, nil
}

func decodeEnvPEM(value string) ([]byte, error) {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, "-----BEGIN") {
		return []byte(value), nil
	}
	decoded, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	if !bytes.Contains(decoded, []byte("-----BEGIN")) {
		return nil, errors.New("decoded value is not PEM")
	}
	return decoded, nil
}

// DirSource is multi-key mode. Each generation is a file pair named
// <unix-seconds>_<kid>.key.pem and <unix-seconds>_<kid>.pub.pem. A pair
// without the private file is published for verification only.
type DirSource struct {
	Dir string
}

type filePair struct {
	createdAt time.Time
	kid       string
	private   string
	public    string
}

// ParseKeyFileName splits a key file name into its timestamp and kid.
func ParseKeyFileName(name string) (createdAt time.Time, kid string, private bool, ok bool) {
	var stem string
	switch {
	case strings.HasSuffix(name, privateSuffix):
		stem, private = strings.TrimSuffix(name, privateSuffix), true
	case strings.HasSuffix(name, publicSuffix):
		stem = strings.TrimSuffix(name, publicSuffix)
	default:
		return time.Time{}, "", false, false
	}

	ts, kid, found := strings.Cut(stem, "_")
	if !found || kid == "" {
		return time.Time{}, "", false, false
	}
	secs, err := strconv.ParseInt(ts, 10, 64)
	if err != nil || secs < 0 {
		return time.Time{}, "", false, false
	}
	return time.Unix(secs, 0).UTC(), kid, private, true
}

// KeyFileNames returns the private and public file names for a generation.
func KeyFileNames(createdAt time.Time, kid string) (private, public string) {
	stem := strconv.FormatInt(createdAt.Unix(), 10) + "_" + kid
	return stem + privateSuffix, stem + publicSuffix
}

func (s DirSource) Load(ctx context.Context) ([]*SigningKey, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("keys: read %s: %w", s.Dir, err)
	}

	pairs := make(map[string]*filePair)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		createdAt, kid, private, ok := ParseKeyFileName(entry.Name())
		if !ok {
			if strings.HasSuffix(entry.Name(), ".pem") {
				logger.Warn("ignoring key file with unexpected name", map[string]any{
					"file": entry.Name(),
				})
			}
			continue
		}

		p, seen := pairs[kid]
		if !seen {
			p = &filePair{createdAt: createdAt, kid: kid}
			pairs[kid] = p
		} else if !p.createdAt.Equal(createdAt) {
			return nil, fmt.Errorf("keys: kid %q appears with two timestamps", kid)
		}

		path := filepath.Join(s.Dir, entry.Name())
		if private {
			p.private = path
		} else {
			p.public = path
		}
	}

	loaded := make([]*SigningKey, 0, len(pairs))
	for _, p := range pairs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		key, err := p.load()
		if err != nil {
			return nil, err
		}
		loaded = append(loaded, key)
	}

	return loaded, nil
}

func (p *filePair) load() (*SigningKey, error) {
	var (
		priv crypto.Signer
		pub  crypto.PublicKey
	)

	if p.private != "" {
		data, err := os.ReadFile(p.private)
		if err != nil {
			return nil, fmt.Errorf("keys: %w", err)
		}
		if priv, err = ParsePrivateKeyPEM(data); err != nil {
			return nil, fmt.Errorf("%w (%s)", err, filepath.Base(p.private))
		}
	}

	if p.public != "" {
		data, err := os.ReadFile(p.public)
		if err != nil {
			return nil, fmt.Errorf("keys: %w", err)
		}
		if pub, err = ParsePublicKeyPEM(data); err != nil {
			return nil, fmt.Errorf("%w (%s)", err, filepath.Base(p.public))
		}
	}

	return NewSigningKey(p.kid, p.createdAt, priv, pub)
}
