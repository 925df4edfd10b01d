// Package broker exposes the public authentication operations: each one
// verifies a credential, resolves it to a user and issues an access token.
package broker

import (
	"context"
	"errors"

	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/auth"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/auth/credentials"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/auth/provider"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/auth/resolver"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/logger"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/metrics"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/token"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/user"
)

const (
	methodRegister = "register"
	methodPassword = "password"
)

// Recorder receives authentication outcomes.
type Recorder interface {
	Login(method, outcome string)
	TokenIssued(kid string)
}

type nopRecorder struct{}

func (nopRecorder) Login(string, string) {}
func (nopRecorder) TokenIssued(string)   {}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(userID, email string) (*token.Token, error)
}

type Broker struct {
	credentials *credentials.Service
	providers   *provider.Registry
	resolver    resolver.Resolver
	issuer      TokenIssuer
	recorder    Recorder
}

type Option func(*Broker)

func WithRecorder(r Recorder) Option {
	return func(b *Broker) {
		if r != nil {
			b.recorder = r
		}
	}
}

func New(
	credentialService *credentials.Service,
	providers *provider.Registry,
	identityResolver resolver.Resolver,
	issuer TokenIssuer,
	opts ...Option,
) *Broker {
	b := &Broker{
		credentials: credentialService,
		providers:   providers,
		resolver:    identityResolver,
		issuer:      issuer,
		recorder:    nopRecorder{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Register creates a password account and returns its first token.
func (b *Broker) Register(ctx context.Context, email, password string) (*token.Token, error) {
	u, err := b.credentials.Register(ctx, email, password)
	if err != nil {
		b.recorder.Login(methodRegister, outcome(err))
		return nil, err
	}
	return b.issue(methodRegister, u)
}

// Login authenticates with email and password.
func (b *Broker) Login(ctx context.Context, email, password string) (*token.Token, error) {
	u, err := b.credentials.Authenticate(ctx, email, password)
	if err != nil {
		b.recorder.Login(methodPassword, outcome(err))
		return nil, err
	}
	return b.issue(methodPassword, u)
}

// LoginWithProvider verifies a provider-issued token and signs in the
// matching user, linking or creating it as needed.
func (b *Broker) LoginWithProvider(ctx context.Context, providerName, rawToken string) (*token.Token, error) {
	p, err := b.providers.Get(providerName)
	if err != nil {
		b.recorder.Login(providerName, metrics.OutcomeFailure)
		return nil, err
	}

	identity, err := p.Verify(ctx, rawToken)
	if err != nil {
		b.recorder.Login(providerName, metrics.OutcomeFailure)
		return nil, provider.ErrInvalidToken
	}

	return b.LoginWithIdentity(ctx, identity)
}

// LoginWithIdentity signs in an identity that was already verified, for
// example by the authorization-code callback.
func (b *Broker) LoginWithIdentity(ctx context.Context, identity *auth.Identity) (*token.Token, error) {
	if identity == nil {
		return nil, provider.ErrInvalidToken
	}

	u, err := b.resolver.Resolve(ctx, identity)
	if err != nil {
		b.recorder.Login(string(identity.Provider), outcome(err))
		return nil, err
	}
	return b.issue(string(identity.Provider), u)
}

func (b *Broker) issue(method string, u *user.User) (*token.Token, error) {
	tok, err := b.issuer.Issue(u.ID, u.Email)
	if err != nil {
		b.recorder.Login(method, metrics.OutcomeError)
		logger.Error("token issuance failed", map[string]any{
			"user_id": u.ID,
			"method":  method,
			"error":   err.Error(),
		})
		return nil, err
	}

	b.recorder.Login(method, metrics.OutcomeSuccess)
	b.recorder.TokenIssued(tok.KeyID)

	logger.Info("access token issued", map[string]any{
		"user_id": u.ID,
		"method":  method,
		"kid":     tok.KeyID,
	})

	return tok, nil
}

// outcome separates caller mistakes from server faults.
func outcome(err error) string {
	switch {
	case errors.Is(err, credentials.ErrInvalidCredentials),
		errors.Is(err, credentials.ErrEmailTaken),
		errors.Is(err, credentials.ErrInvalidEmail),
		errors.Is(err, credentials.ErrPasswordTooShort),
		errors.Is(err, provider.ErrInvalidToken),
		errors.Is(err, provider.ErrProviderNotConfigured),
		errors.Is(err, resolver.ErrIdentityConflict):
		return metrics.OutcomeFailure
	}
	return metrics.OutcomeError
}
