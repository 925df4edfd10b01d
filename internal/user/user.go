package user

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Provider names an external identity provider a user can be linked to.
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderApple  Provider = "apple"
)

// Valid reports whether p is a provider the user record has a column for.
func (p Provider) Valid() bool {
	return p == ProviderGoogle || p == ProviderApple
}

// PlaceholderDomain is the reserved mail domain for accounts created from a
// provider identity that carried no email.
func (p Provider) PlaceholderDomain() string {
	return string(p) + ".local"
}

// IsPlaceholderEmail reports whether email lies in a reserved provider domain.
// Such addresses can only be assigned by identity resolution.
func IsPlaceholderEmail(email string) bool {
	_, domain, ok := strings.Cut(strings.ToLower(email), "@")
	if !ok {
		return false
	}
	for _, p := range []Provider{ProviderGoogle, ProviderApple} {
		if domain == p.PlaceholderDomain() {
			return true
		}
	}
	return false
}

var (
	ErrNotFound = errors.New("user: not found")
	// ErrConflict is returned when a write would violate email or provider id uniqueness.
	ErrConflict = errors.New("user: uniqueness conflict")
	// ErrAlreadyLinked is returned when the user already holds a different id for the provider.
	ErrAlreadyLinked = errors.New("user: provider already linked to another subject")
)

// User is the canonical account record. Email is stored lower-cased.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	ProviderIDs  map[Provider]string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// ProviderID returns the subject linked for p, or "".
func (u *User) ProviderID(p Provider) string {
	if u.ProviderIDs == nil {
		return ""
	}
	return u.ProviderIDs[p]
}

// NewUser describes a record to insert. The store assigns ID and timestamps.
type NewUser struct {
	Email        string
	PasswordHash string
	Provider     Provider
	ProviderID   string
}

// Store persists users. Implementations enforce uniqueness of email and of
// each provider id and report violations as ErrConflict.
type Store interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByProviderID(ctx context.Context, provider Provider, subject string) (*User, error)
	Create(ctx context.Context, u NewUser) (*User, error)
	// LinkProviderID sets the provider id on an existing user without touching
	// any other field. Linking the same subject twice is a no-op.
	LinkProviderID(ctx context.Context, userID string, provider Provider, subject string) (*User, error)
}
