package apple

import (
	"context"
	"errors"
	"time"

	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/auth"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/auth/provider"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/user"

	"github.com/coreos/go-oidc/v3/oidc"
)

const (
	Issuer  = "https://appleid.apple.com"
	KeysURL = "https://appleid.apple.com/auth/keys"
)

type Config struct {
	// ClientID is the app bundle id or services id expected in aud.
	ClientID string
}

type Option func(*options)

type options struct {
	keySet oidc.KeySet
	now    func() time.Time
}

// WithKeySet replaces Apple's remote JWKS.
func WithKeySet(ks oidc.KeySet) Option {
	return func(o *options) { o.keySet = ks }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Provider verifies Sign in with Apple identity tokens. Apple publishes
// no usable discovery document for this flow, so the JWKS URL is fixed.
type Provider struct {
	verifier *oidc.IDTokenVerifier
}

var _ provider.Verifier = (*Provider)(nil)

// New builds the verifier. ctx bounds background JWKS refreshes and should
// live as long as the process.
func New(ctx context.Context, cfg Config, opts ...Option) (*Provider, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("apple: client id is required")
	}

	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	keySet := o.keySet
	if keySet == nil {
		keySet = oidc.NewRemoteKeySet(ctx, KeysURL)
	}

	return &Provider{
		verifier: oidc.NewVerifier(Issuer, keySet, &oidc.Config{
			ClientID: cfg.ClientID,
			Now:      o.now,
		}),
	}, nil
}

func (p *Provider) Name() user.Provider {
	return user.ProviderApple
}

// Verify checks an identity token. Apple only includes email on the first
// authorization, so Identity.Email may be empty.
func (p *Provider) Verify(ctx context.Context, rawToken string) (*auth.Identity, error) {
	return provider.VerifyIDToken(ctx, p.verifier, user.ProviderApple, rawToken)
}
