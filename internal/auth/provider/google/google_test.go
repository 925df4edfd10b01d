package google

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/auth/provider"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/auth/provider/providertest"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const clientID = "google-client.apps.googleusercontent.com"

func newTestProvider(t *testing.T, signer *providertest.Signer, cfg Config) *Provider {
	t.Helper()
	if cfg.ClientID == "" {
		cfg.ClientID = clientID
	}
	p, err := New(context.Background(), cfg, WithKeySet(signer.KeySet()))
	require.NoError(t, err)
	return p
}

func TestVerifyValidToken(t *testing.T) {
	signer := providertest.NewSigner(t)
	p := newTestProvider(t, signer, Config{})

	raw := signer.Sign(t, providertest.Claims(Issuer, clientID, "g-123", "player@gmail.com"))

	id, err := p.Verify(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, user.ProviderGoogle, id.Provider)
	assert.Equal(t, "g-123", id.Subject)
	assert.Equal(t, "player@gmail.com", id.Email)
	assert.True(t, id.EmailVerified)
}

func TestVerifyAcceptsSchemelessIssuer(t *testing.T) {
	signer := providertest.NewSigner(t)
	p := newTestProvider(t, signer, Config{})

	raw := signer.Sign(t, providertest.Claims("accounts.google.com", clientID, "g-1", ""))

	id, err := p.Verify(context.Background(), raw)
	require.NoError(t, err)
	assert.Empty(t, id.Email)
}

func TestVerifyRejections(t *testing.T) {
	signer := providertest.NewSigner(t)
	other := providertest.NewSigner(t)
	p := newTestProvider(t, signer, Config{})

	expired := providertest.Claims(Issuer, clientID, "g-1", "a@b.com")
	expired["exp"] = time.Now().Add(-time.Hour).Unix()

	noSub := providertest.Claims(Issuer, clientID, "", "a@b.com")
	delete(noSub, "sub")

	cases := map[string]string{
		"wrong audience": signer.Sign(t, providertest.Claims(Issuer, "someone-else", "g-1", "a@b.com")),
		"wrong issuer":   signer.Sign(t, providertest.Claims("https://evil.example", clientID, "g-1", "a@b.com")),
		"expired":        signer.Sign(t, expired),
		"foreign key":    other.Sign(t, providertest.Claims(Issuer, clientID, "g-1", "a@b.com")),
		"missing sub":    signer.Sign(t, noSub),
		"garbage":        "not-a-jwt",
		"empty":          "",
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := p.Verify(context.Background(), raw)
			assert.Equal(t, provider.ErrInvalidToken, err)
		})
	}
}

func TestCodeFlowRequiresSecretAndRedirect(t *testing.T) {
	signer := providertest.NewSigner(t)

	verifyOnly := newTestProvider(t, signer, Config{})
	assert.False(t, verifyOnly.SupportsCodeFlow())

	_, err := verifyOnly.ExchangeCode(context.Background(), "code", "verifier")
	assert.ErrorIs(t, err, provider.ErrProviderNotConfigured)

	full := newTestProvider(t, signer, Config{
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8080/oauth/callback/google",
	})
	require.True(t, full.SupportsCodeFlow())

	u, err := url.Parse(full.AuthCodeURL("state-1", "challenge-1"))
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "accounts.google.com", u.Host)
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, "challenge-1", q.Get("code_challenge"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.Equal(t, clientID, q.Get("client_id"))
}

func TestNewRequiresClientID(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.Error(t, err)
}
