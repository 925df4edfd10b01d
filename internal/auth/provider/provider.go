package provider

import (
	"context"
	"errors"

	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/auth"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/user"
)

var (
	// ErrInvalidToken covers every verification failure. The cause is logged, never returned.
	ErrInvalidToken = errors.New("invalid provider token")
	// ErrProviderNotConfigured is returned for a provider without trust configuration.
	ErrProviderNotConfigured = errors.New("provider not configured")
)

// Verifier checks a provider-issued token against that provider's trust root.
// Implementations return identity facts only and must not create or link users.
type Verifier interface {
	Name() user.Provider

	// Verify validates signature, audience, issuer and expiry of rawToken.
	// Any failure is reported as ErrInvalidToken.
	Verify(ctx context.Context, rawToken string) (*auth.Identity, error)
}

// CodeFlow is implemented by providers that also support the browser
// authorization-code flow with PKCE.
type CodeFlow interface {
	Verifier

	// SupportsCodeFlow reports whether client secret and redirect URL are configured.
	SupportsCodeFlow() bool

	// AuthCodeURL returns the authorization URL.
	// State and PKCE parameters are provided by the caller.
	AuthCodeURL(state string, codeChallenge string) string

	// ExchangeCode redeems the code and verifies the returned id_token.
	ExchangeCode(ctx context.Context, code string, codeVerifier string) (*auth.Identity, error)
}
