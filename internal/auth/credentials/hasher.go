package credentials

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLength = 8

var (
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	errMismatch         = errors.New("password mismatch")
	errUnknownHash      = errors.New("unrecognized password hash format")
)

// Hasher hashes passwords with argon2id. It still verifies bcrypt hashes
// written by earlier versions of the service.
type Hasher struct {
	time    uint32
	memory  uint32
	threads uint8
	keyLen  uint32
	saltLen int

	// dummy is hashed with the configured params so VerifyDummy costs the
	// same as a real verification.
	dummy string
}

type HasherOption func(*Hasher)

// WithArgon2Params overrides the cost parameters. memory is in KiB.
func WithArgon2Params(time, memory uint32, threads uint8) HasherOption {
	return func(h *Hasher) {
		h.time = time
		h.memory = memory
		h.threads = threads
	}
}

func NewHasher(opts ...HasherOption) *Hasher {
	h := &Hasher{
		time:    1,
		memory:  64 * 1024,
		threads: 4,
		keyLen:  32,
		saltLen: 16,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.dummy, _ = h.hash("dummy-password-never-matches")
	return h
}

// HashPassword returns an encoded argon2id hash of password.
func (h *Hasher) HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	return h.hash(password)
}

func (h *Hasher) hash(password string) (string, error) {
	salt := make([]byte, h.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("credentials: generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, h.time, h.memory, h.threads, h.keyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.memory, h.time, h.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyPassword compares password with a stored argon2id or bcrypt hash.
func (h *Hasher) VerifyPassword(hash string, password string) error {
	switch {
	case strings.HasPrefix(hash, "$argon2id$"):
		return verifyArgon2(hash, password)
	case strings.HasPrefix(hash, "$2a$"), strings.HasPrefix(hash, "$2b$"), strings.HasPrefix(hash, "$2y$"):
		if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
			return errMismatch
		}
		return nil
	}
	return errUnknownHash
}

// VerifyDummy burns the same work as a real verification. It keeps the
// unknown-user path as slow as a wrong password.
func (h *Hasher) VerifyDummy(password string) {
	_ = verifyArgon2(h.dummy, password)
}

func verifyArgon2(encoded string, password string) error {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return errUnknownHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return errUnknownHash
	}

	var (
		memory, time uint32
		threads      uint8
	)
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return fmt.Errorf("credentials: parse argon2id params: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return fmt.Errorf("credentials: decode salt: %w", err)
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return fmt.Errorf("credentials: decode hash: %w", err)
	}

	actual := argon2.IDKey([]byte(password), salt, time, memory, threads, uint32(len(expected)))
	if subtle.ConstantTimeCompare(actual, expected) != 1 {
		return errMismatch
	}
	return nil
}
