package google

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/auth"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/auth/provider"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/logger"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/user"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

const Issuer = "https://accounts.google.com"

// Endpoint is used when discovery is skipped.
var Endpoint = oauth2.Endpoint{
	AuthURL:   "https://accounts.google.com/o/oauth2/v2/auth",
	TokenURL:  "https://oauth2.googleapis.com/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type Option func(*options)

type options struct {
	keySet oidc.KeySet
	now    func() time.Time
}

// WithKeySet skips discovery and verifies against ks.
func WithKeySet(ks oidc.KeySet) Option {
	return func(o *options) { o.keySet = ks }
}

// WithClock overrides the time used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

type Provider struct {
	oauthConfig *oauth2.Config
	verifier    *oidc.IDTokenVerifier
}

var _ provider.CodeFlow = (*Provider)(nil)

// New builds the Google verifier. Trust comes from OIDC discovery of
// accounts.google.com unless a key set is injected.
func New(ctx context.Context, cfg Config, opts ...Option) (*Provider, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("google: client id is required")
	}

	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	oidcCfg := &oidc.Config{
		ClientID: cfg.ClientID,
		Now:      o.now,
	}

	var (
		verifier *oidc.IDTokenVerifier
		endpoint = Endpoint
	)
	if o.keySet != nil {
		verifier = oidc.NewVerifier(Issuer, o.keySet, oidcCfg)
	} else {
		oidcProvider, err := oidc.NewProvider(ctx, Issuer)
		if err != nil {
			return nil, fmt.Errorf("google: discovery failed: %w", err)
		}
		verifier = oidcProvider.Verifier(oidcCfg)
		endpoint = oidcProvider.Endpoint()
	}

	p := &Provider{verifier: verifier}

	if cfg.ClientSecret != "" && cfg.RedirectURL != "" {
		p.oauthConfig = &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes: []string{
				oidc.ScopeOpenID,
				"profile",
				"email",
			},
		}
	}

	return p, nil
}

// Name returns the provider identifier used by the registry.
func (p *Provider) Name() user.Provider {
	return user.ProviderGoogle
}

// Verify checks a Google ID token sent by a client SDK.
func (p *Provider) Verify(ctx context.Context, rawToken string) (*auth.Identity, error) {
	return provider.VerifyIDToken(ctx, p.verifier, user.ProviderGoogle, rawToken)
}

func (p *Provider) SupportsCodeFlow() bool {
	return p.oauthConfig != nil
}

// AuthCodeURL builds the OAuth authorization URL with PKCE parameters.
func (p *Provider) AuthCodeURL(state string, codeChallenge string) string {
	return p.oauthConfig.AuthCodeURL(
		state,
		oauth2.AccessTypeOnline,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

func (p *Provider) ExchangeCode(
	ctx context.Context,
	code string,
	codeVerifier string,
) (*auth.Identity, error) {

	if p.oauthConfig == nil {
		return nil, provider.ErrProviderNotConfigured
	}

	token, err := p.oauthConfig.Exchange(
		ctx,
		code,
		oauth2.SetAuthURLParam("code_verifier", codeVerifier),
	)
	if err != nil {
		logger.Warn("google token exchange failed", map[string]any{
			"error": err.Error(),
		})
		return nil, provider.ErrInvalidToken
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		logger.Warn("google did not return id_token", nil)
		return nil, provider.ErrInvalidToken
	}

	return p.Verify(ctx, rawIDToken)
}
