package apple

import (
	"context"
	"testing"

	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/auth/provider"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/auth/provider/providertest"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bundleID = "com.example.game"

func TestVerifyIdentityToken(t *testing.T) {
	signer := providertest.NewSigner(t)
	p, err := New(context.Background(), Config{ClientID: bundleID}, WithKeySet(signer.KeySet()))
	require.NoError(t, err)

	claims := providertest.Claims(Issuer, bundleID, "001234.abcd", "relay@privaterelay.appleid.com")
	claims["email_verified"] = "true"

	id, err := p.Verify(context.Background(), signer.Sign(t, claims))
	require.NoError(t, err)
	assert.Equal(t, user.ProviderApple, id.Provider)
	assert.Equal(t, "001234.abcd", id.Subject)
	assert.Equal(t, "relay@privaterelay.appleid.com", id.Email)
	assert.True(t, id.EmailVerified)
}

func TestVerifyWithoutEmail(t *testing.T) {
	signer := providertest.NewSigner(t)
	p, err := New(context.Background(), Config{ClientID: bundleID}, WithKeySet(signer.KeySet()))
	require.NoError(t, err)

	id, err := p.Verify(context.Background(), signer.Sign(t, providertest.Claims(Issuer, bundleID, "001234.abcd", "")))
	require.NoError(t, err)
	assert.Empty(t, id.Email)
}

func TestVerifyRejectsGoogleIssuedToken(t *testing.T) {
	signer := providertest.NewSigner(t)
	p, err := New(context.Background(), Config{ClientID: bundleID}, WithKeySet(signer.KeySet()))
	require.NoError(t, err)

	raw := signer.Sign(t, providertest.Claims("https://accounts.google.com", bundleID, "x", ""))

	_, err = p.Verify(context.Background(), raw)
	assert.Equal(t, provider.ErrInvalidToken, err)
}

func TestNewRequiresClientID(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.Error(t, err)
}
