package credentials

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/logger"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("credentials taken")
	ErrInvalidEmail       = errors.New("invalid email address")
)

type Service struct {
	users  user.Store
	hasher *Hasher
}

func NewService(users user.Store, hasher *Hasher) *Service {
	return &Service{users: users, hasher: hasher}
}

// NormalizeEmail trims and lower-cases an address and rejects malformed input.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// Register creates a password account. Any uniqueness violation,
// including a concurrent registration, surfaces as ErrEmailTaken.
func (s *Service) Register(
	ctx context.Context,
	email string,
	password string,
) (*user.User, error) {

	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if user.IsPlaceholderEmail(email) {
		return nil, ErrInvalidEmail
	}

	hash, err := s.hasher.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u, err := s.users.Create(ctx, user.NewUser{
		Email:        email,
		PasswordHash: hash,
	})
	if errors.Is(err, user.ErrConflict) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("credentials: register: %w", err)
	}

	return u, nil
}

// Authenticate checks an email/password pair. Unknown email, an account
// without a password and a wrong password all return ErrInvalidCredentials.
func (s *Service) Authenticate(
	ctx context.Context,
	email string,
	password string,
) (*user.User, error) {

	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, user.ErrNotFound) {
		s.hasher.VerifyDummy(password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("credentials: lookup: %w", err)
	}

	if !u.HasPassword() {
		s.hasher.VerifyDummy(password)
		return nil, ErrInvalidCredentials
	}

	if err := s.hasher.VerifyPassword(u.PasswordHash, password); err != nil {
		if !errors.Is(err, errMismatch) {
			logger.Warn("stored password hash unreadable", map[string]any{
				"user_id": u.ID,
				"error":   err.Error(),
			})
		}
		return nil, ErrInvalidCredentials
	}

	return u, nil
}
