package broker

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"sync"
	"testing"
	"time"

	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/auth/credentials"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/auth/provider"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/auth/provider/apple"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/auth/provider/google"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/auth/provider/providertest"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/auth/resolver"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/keys"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/token"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	issuerURL      = "http://localhost:3000"
	audience       = "unity-game-client"
	googleClientID = "google-client"
	appleClientID  = "com.example.game"
)

type staticSource []*keys.SigningKey

func (s staticSource) Load(context.Context) ([]*keys.SigningKey, error) { return s, nil }

type countingRecorder struct {
	mu     sync.Mutex
	logins map[string]int
	issued int
}

func (r *countingRecorder) Login(method, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logins[method+"/"+outcome]++
}

func (r *countingRecorder) TokenIssued(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.issued++
}

type fixture struct {
	broker   *Broker
	users    *user.MemoryStore
	verifier *token.Verifier
	signer   *providertest.Signer
	recorder *countingRecorder
}

func newFixture(t *testing.T, withKey bool) *fixture {
	t.Helper()
	ctx := context.Background()

	var source staticSource
	if withKey {
		priv, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
		k, err := keys.NewSigningKey("K1", time.Now(), priv, nil)
		require.NoError(t, err)
		source = staticSource{k}
	}
	keyStore := keys.NewStore(source, time.Hour)
	require.NoError(t, keyStore.Load(ctx))

	signer := providertest.NewSigner(t)
	googleProvider, err := google.New(ctx, google.Config{ClientID: googleClientID}, google.WithKeySet(signer.KeySet()))
	require.NoError(t, err)
	appleProvider, err := apple.New(ctx, apple.Config{ClientID: appleClientID}, apple.WithKeySet(signer.KeySet()))
	require.NoError(t, err)

	users := user.NewMemoryStore()
	recorder := &countingRecorder{logins: map[string]int{}}

	b := New(
		credentials.NewService(users, credentials.NewHasher(credentials.WithArgon2Params(1, 1024, 1))),
		provider.NewRegistry(googleProvider, appleProvider),
		resolver.NewStoreResolver(users),
		token.NewIssuer(keyStore, issuerURL, audience),
		WithRecorder(recorder),
	)

	return &fixture{
		broker:   b,
		users:    users,
		verifier: token.NewVerifier(keyStore, issuerURL, audience),
		signer:   signer,
		recorder: recorder,
	}
}

func (f *fixture) googleToken(t *testing.T, sub, email string) string {
	return f.signer.Sign(t, providertest.Claims(google.Issuer, googleClientID, sub, email))
}

func TestRegisterIssuesVerifiableToken(t *testing.T) {
	f := newFixture(t, true)

	tok, err := f.broker.Register(context.Background(), "a@x.com", "password-1")
	require.NoError(t, err)

	claims, err := f.verifier.Verify(tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.NotEmpty(t, claims.Subject)
	assert.Equal(t, 1, f.recorder.logins["register/success"])
}

func TestRegisterTwiceFails(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.broker.Register(ctx, "a@x.com", "password-1")
	require.NoError(t, err)

	_, err = f.broker.Register(ctx, "a@x.com", "password-2")
	assert.ErrorIs(t, err, credentials.ErrEmailTaken)
	assert.Equal(t, 1, f.recorder.logins["register/failure"])
}

func TestLoginErrorsAreUniform(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.broker.Register(ctx, "a@x.com", "right-password")
	require.NoError(t, err)

	_, missingErr := f.broker.Login(ctx, "missing@x.com", "pw")
	_, wrongErr := f.broker.Login(ctx, "a@x.com", "wrongpw")

	assert.Equal(t, credentials.ErrInvalidCredentials, missingErr)
	assert.Equal(t, missingErr, wrongErr)

	tok, err := f.broker.Login(ctx, "a@x.com", "right-password")
	require.NoError(t, err)
	assert.NotEmpty(t, tok.AccessToken)
}

func TestLoginWithProviderIsIdempotent(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	first, err := f.broker.LoginWithProvider(ctx, "google", f.googleToken(t, "g1", "p@gmail.com"))
	require.NoError(t, err)
	second, err := f.broker.LoginWithProvider(ctx, "google", f.googleToken(t, "g1", "p@gmail.com"))
	require.NoError(t, err)

	c1, err := f.verifier.Verify(first.AccessToken)
	require.NoError(t, err)
	c2, err := f.verifier.Verify(second.AccessToken)
	require.NoError(t, err)

	assert.Equal(t, c1.Subject, c2.Subject)
	assert.Equal(t, 1, f.users.Len())
}

func TestLoginWithProviderLinksLocalAccount(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	local, err := f.broker.Register(ctx, "a@x.com", "password-1")
	require.NoError(t, err)
	viaGoogle, err := f.broker.LoginWithProvider(ctx, "google", f.googleToken(t, "g1", "a@x.com"))
	require.NoError(t, err)

	c1, err := f.verifier.Verify(local.AccessToken)
	require.NoError(t, err)
	c2, err := f.verifier.Verify(viaGoogle.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, c1.Subject, c2.Subject)

	u, err := f.users.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, u.HasPassword())
	assert.Equal(t, "g1", u.ProviderID(user.ProviderGoogle))

	// password still works after linking
	_, err = f.broker.Login(ctx, "a@x.com", "password-1")
	assert.NoError(t, err)
}

func TestLoginWithAppleWithoutEmail(t *testing.T) {
	f := newFixture(t, true)
	raw := f.signer.Sign(t, providertest.Claims(apple.Issuer, appleClientID, "001.abc", ""))

	tok, err := f.broker.LoginWithProvider(context.Background(), "apple", raw)
	require.NoError(t, err)

	claims, err := f.verifier.Verify(tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "001.abc@apple.local", claims.Email)
}

func TestReservedPlaceholderEmailCannotBlockProviderLogin(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.broker.Register(ctx, "001.abc@apple.local", "password-1")
	assert.ErrorIs(t, err, credentials.ErrInvalidEmail)
	assert.Equal(t, 1, f.recorder.logins["register/failure"])

	raw := f.signer.Sign(t, providertest.Claims(apple.Issuer, appleClientID, "001.abc", ""))
	tok, err := f.broker.LoginWithProvider(ctx, "apple", raw)
	require.NoError(t, err)

	claims, err := f.verifier.Verify(tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "001.abc@apple.local", claims.Email)
	assert.Equal(t, 1, f.recorder.logins["apple/success"])
}

func TestUnresolvablePlaceholderIsAConflictNotAnError(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	// an account that predates the reserved-domain check
	_, err := f.users.Create(ctx, user.NewUser{Email: "001.abc@apple.local", PasswordHash: "hash"})
	require.NoError(t, err)

	raw := f.signer.Sign(t, providertest.Claims(apple.Issuer, appleClientID, "001.abc", ""))
	_, err = f.broker.LoginWithProvider(ctx, "apple", raw)
	assert.ErrorIs(t, err, resolver.ErrIdentityConflict)
	assert.Equal(t, 1, f.recorder.logins["apple/failure"])
	assert.Zero(t, f.recorder.logins["apple/error"])
}

func TestLoginWithProviderFailures(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.broker.LoginWithProvider(ctx, "github", "whatever")
	assert.ErrorIs(t, err, provider.ErrProviderNotConfigured)

	wrongAud := f.signer.Sign(t, providertest.Claims(google.Issuer, "not-us", "g1", "a@x.com"))
	_, err = f.broker.LoginWithProvider(ctx, "google", wrongAud)
	assert.Equal(t, provider.ErrInvalidToken, err)

	assert.Equal(t, 0, f.users.Len())
}

func TestConcurrentFirstProviderLogins(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	raw := f.googleToken(t, "g-new", "new@x.com")

	const n = 16
	subjects := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok, err := f.broker.LoginWithProvider(ctx, "google", raw)
			if err != nil {
				return
			}
			if claims, err := f.verifier.Verify(tok.AccessToken); err == nil {
				subjects[i] = claims.Subject
			}
		}(i)
	}
	wg.Wait()

	require.NotEmpty(t, subjects[0])
	for _, s := range subjects {
		assert.Equal(t, subjects[0], s)
	}
	assert.Equal(t, 1, f.users.Len())
}

func TestNoKeysIsFatal(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.broker.Register(context.Background(), "a@x.com", "password-1")
	assert.ErrorIs(t, err, keys.ErrNoKeysAvailable)
	assert.Equal(t, 1, f.recorder.logins["register/error"])
}
